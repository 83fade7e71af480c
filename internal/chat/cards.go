package chat

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"

	"github.com/Daave2/nps-scraper-sub000/internal/models"
)

// Display width caps for complaint card text fields.
const (
	maxDescriptionWidth = 700
	maxResponseWidth    = 500
)

// ScoreLabel renders a score with its NPS sentiment bucket.
func ScoreLabel(score string) string {
	n, err := strconv.Atoi(score)
	if err != nil {
		return score
	}

	switch {
	case n <= 4:
		return fmt.Sprintf("%d 🔴 Detractor", n)
	case n <= 7:
		return fmt.Sprintf("%d 🟠 Passive", n)
	default:
		return fmt.Sprintf("%d 🟢 Promoter", n)
	}
}

// CommentSection renders one comment as a classic card section.
func CommentSection(c models.Comment) Section {
	return Section{
		Widgets: []Widget{
			{KeyValue: &KeyValue{TopLabel: "Store", Content: esc(c.Store)}},
			{KeyValue: &KeyValue{TopLabel: "Date", Content: esc(c.Timestamp)}},
			{KeyValue: &KeyValue{TopLabel: "Score", Content: ScoreLabel(c.Score)}},
			{KeyValue: &KeyValue{
				TopLabel:         "Comment",
				Content:          esc(c.Comment),
				ContentMultiline: true,
			}},
		},
	}
}

// CommentBatchPayload wraps comment sections in one classic card. first and
// last are 1-based positions within the run's total.
func CommentBatchPayload(sections []Section, first, last, total int) Payload {
	return Payload{
		Cards: []Card{{
			Header: &Header{
				Title:    "NPS Comments",
				Subtitle: fmt.Sprintf("Showing %d-%d of %d new", first, last, total),
			},
			Sections: sections,
		}},
	}
}

// ComplaintSection renders one complaint as a cardsV2 section. Long free-text
// fields are truncated by display width so a single complaint cannot blow the
// message size limit.
func ComplaintSection(c models.Complaint) Section {
	return Section{
		Header: fmt.Sprintf("Case %s", esc(c.CaseNumber)),
		Widgets: []Widget{
			{DecoratedText: &DecoratedText{TopLabel: "Opened", Text: esc(c.OpenedDate)}},
			{DecoratedText: &DecoratedText{TopLabel: "Store", Text: esc(c.Store)}},
			{DecoratedText: &DecoratedText{
				TopLabel: "Category",
				Text:     esc(joinNonEmpty(" / ", c.CaseType, c.CaseCategory, c.CaseReason)),
			}},
			{DecoratedText: &DecoratedText{
				TopLabel: "Detail",
				Text:     esc(c.DetailedReason),
			}},
			{DecoratedText: &DecoratedText{
				TopLabel: "Description",
				Text:     esc(truncate(c.Description, maxDescriptionWidth)),
				WrapText: true,
			}},
			{DecoratedText: &DecoratedText{
				TopLabel: "Store Response",
				Text:     esc(truncate(c.StoreResponse, maxResponseWidth)),
				WrapText: true,
			}},
		},
	}
}

// ComplaintBatchPayload wraps complaint sections in one cardsV2 card.
func ComplaintBatchPayload(sections []Section, first, last, total int) Payload {
	return Payload{
		CardsV2: []CardV2Item{{
			CardID: "complaints-" + uuid.NewString(),
			Card: Card{
				Header: &Header{
					Title:    "Customer Complaints",
					Subtitle: fmt.Sprintf("Showing %d-%d of %d new", first, last, total),
				},
				Sections: sections,
			},
		}},
	}
}

// DailySummaryCard renders the full daily metrics report as one cardsV2
// message. Every field renders; absent metrics show the sentinel.
func DailySummaryCard(m models.MetricsReport) Payload {
	sections := []Section{
		{
			Header: "Sales",
			Widgets: []Widget{
				kv("Total", m.Get("sales_total")),
				kv("LFL", m.Get("sales_lfl")),
				kv("vs Target", m.Get("sales_vs_target")),
			},
		},
		{
			Header: "NPS",
			Widgets: []Widget{
				kv("Supermarket", m.Get("supermarket_nps")),
				kv("Colleague Happiness", m.Get("colleague_happiness")),
				kv("Home Delivery", m.Get("home_delivery_nps")),
				kv("Cafe", m.Get("cafe_nps")),
				kv("Click & Collect", m.Get("click_collect_nps")),
				kv("Customer Toilets", m.Get("customer_toilet_nps")),
			},
		},
		{
			Header: "Front End Service",
			Widgets: []Widget{
				kv("SCO Utilisation", m.Get("sco_utilisation")),
				kv("Efficiency", m.Get("efficiency")),
				kv("Scan Rate", pairText(m, "scan_rate", "scan_vs_target")),
				kv("Interventions", pairText(m, "interventions", "interventions_vs_target")),
				kv("Mainbank Closed", pairText(m, "mainbank_closed", "mainbank_vs_target")),
			},
		},
		{
			Header: "Online",
			Widgets: []Widget{
				kv("Availability", m.Get("availability_pct")),
				kv("Despatched on Time", m.Get("despatched_on_time")),
				kv("Delivered on Time", m.Get("delivered_on_time")),
				kv("C&C Avg Wait", m.Get("cc_avg_wait")),
			},
		},
		{
			Header: "Waste & Markdowns",
			Widgets: []Widget{
				kv("Waste", m.Get("waste_total")),
				kv("Markdowns", m.Get("markdowns_total")),
				kv("Total", m.Get("wm_total")),
				kv("Delta", pairText(m, "wm_delta", "wm_delta_pct")),
			},
		},
		{
			Header: "Shrink",
			Widgets: []Widget{
				kv("Order Adjustments", m.Get("moa")),
				kv("Waste Validation", m.Get("waste_validation")),
				kv("Unrecorded Waste", m.Get("unrecorded_waste_pct")),
				kv("vs Budget", m.Get("shrink_vs_budget_pct")),
			},
		},
		{
			Header: "Payroll",
			Widgets: []Widget{
				kv("Outturn", m.Get("payroll_outturn")),
				kv("Absence", m.Get("absence_outturn")),
				kv("Productive", m.Get("productive_outturn")),
				kv("Holiday", m.Get("holiday_outturn")),
				kv("Base Cost", m.Get("current_base_cost")),
			},
		},
		{
			Header: "More Card",
			Widgets: []Widget{
				kv("Swipe Rate", m.Get("swipe_rate")),
				kv("Swipes WOW", m.Get("swipes_wow_pct")),
				kv("Swipes YOY", m.Get("swipes_yoy_pct")),
				kv("New Customers", m.Get("new_customers")),
			},
		},
		{
			Header: "Operations",
			Widgets: []Widget{
				kv("Key Complaints", m.Get("complaints_key")),
				kv("Data Provided", m.Get("data_provided")),
				kv("Trusted Data", m.Get("trusted_data")),
				kv("My Reports", m.Get("my_reports")),
				kv("Weekly Activity", m.Get("weekly_activity")),
			},
		},
	}

	return Payload{
		CardsV2: []CardV2Item{{
			CardID: "daily-" + uuid.NewString(),
			Card: Card{
				Header: &Header{
					Title:    "Daily Report Summary",
					Subtitle: esc(joinNonEmpty(" · ", m.Get("period_range"), m.Get("page_timestamp"))),
				},
				Sections: sections,
			},
		}},
	}
}

// DeferralDigest summarises records held back by the per-run cap.
func DeferralDigest(deferred int) Payload {
	return TextPayload(fmt.Sprintf(
		"ℹ️ %d further record(s) were held back by the per-run cap and will be sent on the next run.",
		deferred))
}

// AlertMessage formats an operational alert, appending the CI run URL when
// one is known so the message links back to the failing run.
func AlertMessage(text, runURL string) Payload {
	if runURL != "" {
		text = text + "\nRun: " + runURL
	}

	return TextPayload(text)
}

func kv(label, value string) Widget {
	return Widget{DecoratedText: &DecoratedText{TopLabel: label, Text: esc(value)}}
}

// pairText renders "value (delta vs target)", dropping the suffix when the
// delta is absent.
func pairText(m models.MetricsReport, valueKey, deltaKey string) string {
	value := m.Get(valueKey)

	delta := m.Get(deltaKey)
	if delta == models.Absent {
		return value
	}

	return fmt.Sprintf("%s (%s vs target)", value, delta)
}

// esc escapes text for the limited HTML subset Chat renders in widgets.
func esc(s string) string {
	return html.EscapeString(s)
}

// truncate caps s at the given display width, marking the cut.
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}

	return runewidth.Truncate(s, width, "") + "... (truncated)"
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]

	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}

	return strings.Join(kept, sep)
}
