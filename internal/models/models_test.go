package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommentValid(t *testing.T) {
	good := Comment{Store: "218 Thornton Cleveleys", Timestamp: "2025-10-22", Comment: "ok", Score: "9"}
	assert.True(t, good.Valid())

	tests := []struct {
		name   string
		mutate func(*Comment)
	}{
		{"bad score", func(c *Comment) { c.Score = "11" }},
		{"empty score", func(c *Comment) { c.Score = "" }},
		{"bad date", func(c *Comment) { c.Timestamp = "22/10/2025" }},
		{"store without number", func(c *Comment) { c.Store = "Thornton Cleveleys" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := good
			tt.mutate(&c)
			assert.False(t, c.Valid())
		})
	}
}

func TestCommentKeyRoundtrip(t *testing.T) {
	c := Comment{Store: "218 Thornton Cleveleys", Timestamp: "2025-10-22", Comment: "multi\nline", Score: "9"}

	assert.Equal(t, c.Key(), CommentKeyFromRow(c.Row()))
}

func TestCommentKeyExcludesScore(t *testing.T) {
	a := Comment{Store: "s", Timestamp: "t", Comment: "c", Score: "1"}
	b := a
	b.Score = "9"

	assert.Equal(t, a.Key(), b.Key())
}

func TestComplaintValid(t *testing.T) {
	assert.True(t, Complaint{CaseNumber: "600123"}.Valid())
	assert.False(t, Complaint{CaseNumber: ""}.Valid())
	assert.False(t, Complaint{CaseNumber: "60x123"}.Valid())
}

func TestComplaintKeyRoundtrip(t *testing.T) {
	c := Complaint{CaseNumber: "600123", Store: "Thornton Cleveleys"}

	assert.Equal(t, "600123", c.Key())
	assert.Equal(t, c.Key(), ComplaintKeyFromRow(c.Row()))
	assert.Len(t, c.Row(), len(ComplaintHeaders))
}

func TestMetricsReportRowOrderAndSentinel(t *testing.T) {
	m := MetricsReport{"page_timestamp": "22 Oct 2025, 09:15:30"}

	row := m.Row()

	assert.Len(t, row, len(MetricHeaders))
	assert.Equal(t, "22 Oct 2025, 09:15:30", row[0])

	for _, v := range row[1:] {
		assert.Equal(t, Absent, v)
	}
}
