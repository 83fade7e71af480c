package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daave2/nps-scraper-sub000/internal/models"
)

func TestScoreLabel(t *testing.T) {
	tests := []struct {
		score string
		want  string
	}{
		{"0", "0 🔴 Detractor"},
		{"4", "4 🔴 Detractor"},
		{"5", "5 🟠 Passive"},
		{"7", "7 🟠 Passive"},
		{"8", "8 🟢 Promoter"},
		{"10", "10 🟢 Promoter"},
		{"n/a", "n/a"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ScoreLabel(tt.score))
	}
}

func TestCommentBatchPayload(t *testing.T) {
	c := models.Comment{
		Store:     "218 Thornton Cleveleys",
		Timestamp: "2025-10-22",
		Comment:   "Great <service>",
		Score:     "9",
	}

	p := CommentBatchPayload([]Section{CommentSection(c)}, 1, 1, 5)

	require.Len(t, p.Cards, 1)
	assert.Equal(t, "NPS Comments", p.Cards[0].Header.Title)
	assert.Equal(t, "Showing 1-1 of 5 new", p.Cards[0].Header.Subtitle)

	widgets := p.Cards[0].Sections[0].Widgets
	require.Len(t, widgets, 4)
	assert.Equal(t, "218 Thornton Cleveleys", widgets[0].KeyValue.Content)
	assert.Equal(t, "9 🟢 Promoter", widgets[2].KeyValue.Content)
	assert.Equal(t, "Great &lt;service&gt;", widgets[3].KeyValue.Content)
	assert.True(t, widgets[3].KeyValue.ContentMultiline)
}

func TestComplaintSectionTruncatesLongText(t *testing.T) {
	c := models.Complaint{
		CaseNumber:    "600123",
		Description:   strings.Repeat("a", 900),
		StoreResponse: strings.Repeat("b", 900),
	}

	s := ComplaintSection(c)

	desc := s.Widgets[4].DecoratedText.Text
	resp := s.Widgets[5].DecoratedText.Text

	assert.True(t, strings.HasSuffix(desc, "... (truncated)"))
	assert.True(t, strings.HasSuffix(resp, "... (truncated)"))
	assert.Less(t, len(resp), len(desc))
}

func TestComplaintSectionShortTextUntouched(t *testing.T) {
	c := models.Complaint{CaseNumber: "600123", Description: "short", StoreResponse: "fine"}

	s := ComplaintSection(c)

	assert.Equal(t, "short", s.Widgets[4].DecoratedText.Text)
	assert.Equal(t, "fine", s.Widgets[5].DecoratedText.Text)
}

func TestComplaintBatchPayloadUsesCardsV2(t *testing.T) {
	p := ComplaintBatchPayload([]Section{{}}, 1, 1, 1)

	require.Len(t, p.CardsV2, 1)
	assert.True(t, strings.HasPrefix(p.CardsV2[0].CardID, "complaints-"))
	assert.Equal(t, "Customer Complaints", p.CardsV2[0].Card.Header.Title)
	assert.Empty(t, p.Cards)
}

func TestDailySummaryCardRendersSentinels(t *testing.T) {
	p := DailySummaryCard(models.MetricsReport{})

	require.Len(t, p.CardsV2, 1)

	for _, s := range p.CardsV2[0].Card.Sections {
		for _, w := range s.Widgets {
			assert.NotEmpty(t, w.DecoratedText.Text)
		}
	}
}

func TestDailySummaryCardPairText(t *testing.T) {
	m := models.MetricsReport{"scan_rate": "540", "scan_vs_target": "-12"}

	p := DailySummaryCard(m)

	var found string

	for _, s := range p.CardsV2[0].Card.Sections {
		for _, w := range s.Widgets {
			if w.DecoratedText.TopLabel == "Scan Rate" {
				found = w.DecoratedText.Text
			}
		}
	}

	assert.Equal(t, "540 (-12 vs target)", found)
}

func TestDeferralDigest(t *testing.T) {
	p := DeferralDigest(5)

	assert.Contains(t, p.Text, "5")
	assert.Contains(t, p.Text, "held back")
}

func TestAlertMessage(t *testing.T) {
	p := AlertMessage("🚨 something broke", "https://ci.example.com/runs/42")

	assert.Contains(t, p.Text, "something broke")
	assert.Contains(t, p.Text, "https://ci.example.com/runs/42")

	bare := AlertMessage("plain", "")
	assert.Equal(t, "plain", bare.Text)
}
