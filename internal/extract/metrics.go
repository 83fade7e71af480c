package extract

import (
	"regexp"
	"strings"

	"github.com/Daave2/nps-scraper-sub000/internal/models"
)

// Value shapes shared across the metric catalog.
var (
	shapePercent   = regexp.MustCompile(`(-?\d{1,3}(?:\.\d+)?%)`)
	shapeSignedInt = regexp.MustCompile(`(-?\d{1,3})`)
	shapeMoney     = regexp.MustCompile(`([£-]?\s?[0-9.,]+[KMB]?)`)
	shapeClock     = regexp.MustCompile(`(\b\d{2}:\d{2}\b)`)
	shapeCount     = regexp.MustCompile(`(\d{1,5})`)
	shapeCountBig  = regexp.MustCompile(`([0-9,]{1,8})`)
)

const defaultWindow = 140

// fieldSpec resolves one metric: the first in-window shape match after the
// label, scoped to a named block or the whole text.
type fieldSpec struct {
	key    string
	block  string
	label  string
	shape  *regexp.Regexp
	window int
}

// pairSpec resolves a value plus its "vs Target" delta in one pattern. The
// delta search starts strictly after this label's own occurrence, never after
// another metric's "vs Target".
type pairSpec struct {
	keyValue string
	keyDelta string
	pattern  *regexp.Regexp
}

// blockSpec scopes dependent labels to the report section they belong to,
// keeping shared vocabulary from leaking between adjacent panels.
type blockSpec struct {
	start string
	ends  []string
}

// compositeSpec captures a multi-column row in one pattern. Patterns are
// tried in order; if none match, every key resolves to the sentinel.
type compositeSpec struct {
	keys     []string
	block    string
	patterns []*regexp.Regexp
}

var metricBlocks = map[string]blockSpec{
	"frontend":   {start: "Front End Service", ends: []string{"Production Planning", "More Card Engagement", "Online", "Privacy"}},
	"online":     {start: "Online", ends: []string{"Front End Service", "Production Planning", "Privacy"}},
	"waste":      {start: "Waste & Markdowns", ends: []string{"My Reports", "Clean & Rotate", "Payroll", "Online", "Privacy"}},
	"payroll":    {start: "Payroll", ends: []string{"More Card Engagement", "Stock Record NPS", "Online", "Privacy"}},
	"shrink":     {start: "Shrink", ends: []string{"Online", "Production Planning", "Privacy"}},
	"cards":      {start: "More Card Engagement", ends: []string{"Stock Record NPS", "Production Planning", "Privacy"}},
	"production": {start: "Production Planning", ends: []string{"Shrink", "Online", "Privacy"}},
}

var metricFields = []fieldSpec{
	// NPS tiles sit anywhere on the page; the value is a small signed integer.
	{key: "supermarket_nps", label: "Supermarket NPS", shape: shapeSignedInt, window: 110},
	{key: "colleague_happiness", label: "Colleague Happiness", shape: shapeSignedInt, window: 110},
	{key: "home_delivery_nps", label: "Home Delivery NPS", shape: shapeSignedInt, window: 110},
	{key: "cafe_nps", label: "Cafe NPS", shape: shapeSignedInt, window: 110},
	{key: "click_collect_nps", label: "Click & Collect NPS", shape: shapeSignedInt, window: 110},
	{key: "customer_toilet_nps", label: "Customer Toilet NPS", shape: shapeSignedInt, window: 110},

	{key: "sco_utilisation", block: "frontend", label: "Sco Utilisation", shape: shapePercent},
	{key: "efficiency", block: "frontend", label: "Efficiency", shape: shapePercent},

	{key: "availability_pct", block: "online", label: "Availability", shape: shapePercent},
	{key: "despatched_on_time", block: "online", label: "Despatched on Time", shape: shapePercent},
	{key: "delivered_on_time", block: "online", label: "Delivered on Time", shape: shapePercent},
	{key: "cc_avg_wait", block: "online", label: "Click & Collect", shape: shapeClock, window: 80},

	{key: "payroll_outturn", block: "payroll", label: "Payroll Outturn", shape: shapeMoney},
	{key: "absence_outturn", block: "payroll", label: "Absence Outturn", shape: shapeMoney},
	{key: "productive_outturn", block: "payroll", label: "Productive Outturn", shape: shapeMoney},
	{key: "holiday_outturn", block: "payroll", label: "Holiday Outturn", shape: shapeMoney},
	{key: "current_base_cost", block: "payroll", label: "Current Base Cost", shape: shapeMoney},

	{key: "moa", block: "shrink", label: "Morrisons Order Adjustments", shape: shapeMoney},
	{key: "waste_validation", block: "shrink", label: "Waste Validation", shape: shapePercent},
	{key: "unrecorded_waste_pct", block: "shrink", label: "Unrecorded Waste %", shape: shapePercent},
	{key: "shrink_vs_budget_pct", block: "shrink", label: "Shrink vs Budget %", shape: shapePercent},

	{key: "swipe_rate", block: "cards", label: "Swipe Rate", shape: shapePercent},
	{key: "swipes_wow_pct", block: "cards", label: "Swipes WOW %", shape: shapePercent},
	{key: "new_customers", block: "cards", label: "New Customers", shape: shapeCountBig},
	{key: "swipes_yoy_pct", block: "cards", label: "Swipes YOY %", shape: shapePercent},

	{key: "data_provided", block: "production", label: "Data Provided", shape: shapePercent},
	{key: "trusted_data", block: "production", label: "Trusted Data", shape: shapePercent},

	{key: "complaints_key", label: "Key Customer Complaints", shape: shapeCount},
	{key: "my_reports", label: "My Reports", shape: regexp.MustCompile(`([0-9,]{1,6})`)},
	{key: "weekly_activity", label: "Weekly Activity %", shape: shapePercent},
}

var metricPairs = []pairSpec{
	{
		keyValue: "scan_rate", keyDelta: "scan_vs_target",
		pattern: regexp.MustCompile(`(?is)Scan Rate\s+(\d{1,4}).{0,50}?vs Target\s+(-?\d+(?:\.\d+)?)`),
	},
	{
		keyValue: "interventions", keyDelta: "interventions_vs_target",
		pattern: regexp.MustCompile(`(?is)Interventions\s+(\d{1,4}).{0,50}?vs Target\s+(-?\d+(?:\.\d+)?)`),
	},
	{
		keyValue: "mainbank_closed", keyDelta: "mainbank_vs_target",
		pattern: regexp.MustCompile(`(?is)Mainbank Closed\s+(\d{1,4}).{0,60}?vs Target\s+(-?\d+(?:\.\d+)?)`),
	},
}

var metricComposites = []compositeSpec{
	{
		keys: []string{"sales_total", "sales_lfl", "sales_vs_target"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?is)Sales.*?Total\s+([£-]?\s?[0-9.,]+[KMB]?)\s+([+-]?\d+(?:\.\d+)?%)\s+([£+-]?\s?[0-9.,]+[KMB]?)`),
			// Looser structural fallback for renders that wrap the row.
			regexp.MustCompile(`(?is)Sales.*?\b([£]?[0-9.,]+[KMB]?)\b.*?\b([+-]?\d+%)\b.*?\b([+-]?[£]?[0-9.,]+[KMB]?)\b`),
		},
	},
	{
		keys:  []string{"waste_total", "markdowns_total", "wm_total", "wm_delta", "wm_delta_pct"},
		block: "waste",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?is)Total\s+([£-]?\s?[0-9.,]+[KMB]?)\s+([£-]?\s?[0-9.,]+[KMB]?)\s+([£-]?\s?[0-9.,]+[KMB]?)\s+([£+-]?\s?[0-9.,]+[KMB]?)\s+(-?\d+(?:\.\d+)?%)`),
		},
	},
}

// Header context fields resolved over the full text.
var (
	periodRangePattern   = regexp.MustCompile(`(?i)The data on this report is from:\s*([^\n]+)`)
	pageTimestampPattern = regexp.MustCompile(`\b(\d{1,2}\s+[A-Za-z]{3}\s+\d{4},\s*\d{2}:\d{2}:\d{2})\b`)
	storeLinePattern     = regexp.MustCompile(`(?s)[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}.*?\|\s*.*?\|\s*\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}`)
)

// MetricsExtractor implements the label-proximity strategy: a fixed catalog
// of labels, value shapes and search windows resolved against the full text.
// Every catalog entry resolves to a value or the absence sentinel; the report
// card always renders every field.
type MetricsExtractor struct{}

func NewMetricsExtractor() *MetricsExtractor {
	return &MetricsExtractor{}
}

// Extract resolves the whole catalog against the report text.
func (e *MetricsExtractor) Extract(text string) models.MetricsReport {
	out := models.MetricsReport{}

	out["period_range"] = firstGroup(periodRangePattern, text)
	out["page_timestamp"] = firstGroup(pageTimestampPattern, text)

	if m := storeLinePattern.FindString(text); m != "" {
		out["store_line"] = strings.TrimSpace(m)
	} else {
		out["store_line"] = models.Absent
	}

	blocks := map[string]string{"": text}
	for name, b := range metricBlocks {
		blocks[name] = blockText(text, b.start, b.ends)
	}

	for _, f := range metricFields {
		window := f.window
		if window == 0 {
			window = defaultWindow
		}

		out[f.key] = nearAfter(blocks[f.block], f.label, f.shape, window)
	}

	frontend := blocks["frontend"]
	for _, p := range metricPairs {
		if m := p.pattern.FindStringSubmatch(frontend); m != nil {
			out[p.keyValue] = strings.TrimSpace(m[1])
			out[p.keyDelta] = strings.TrimSpace(m[2])
		} else {
			out[p.keyValue] = models.Absent
			out[p.keyDelta] = models.Absent
		}
	}

	for _, c := range metricComposites {
		scope := blocks[c.block]
		matched := false

		for _, pat := range c.patterns {
			m := pat.FindStringSubmatch(scope)
			if m == nil {
				continue
			}

			for i, key := range c.keys {
				out[key] = cleanNumber(m[i+1])
			}

			matched = true

			break
		}

		if !matched {
			for _, key := range c.keys {
				out[key] = models.Absent
			}
		}
	}

	return out
}

// blockText returns the text from the first case-insensitive occurrence of
// start up to the nearest of the end markers, or "" when start is absent.
func blockText(text, start string, ends []string) string {
	lower := strings.ToLower(text)

	s := strings.Index(lower, strings.ToLower(start))
	if s < 0 {
		return ""
	}

	rest := lower[s+len(start):]
	epos := len(rest)

	for _, end := range ends {
		if i := strings.Index(rest, strings.ToLower(end)); i >= 0 && i < epos {
			epos = i
		}
	}

	return text[s : s+len(start)+epos]
}

// nearAfter finds the label case-insensitively and returns the first shape
// match in the window immediately following it, or the sentinel.
func nearAfter(text, label string, shape *regexp.Regexp, window int) string {
	i := strings.Index(strings.ToLower(text), strings.ToLower(label))
	if i < 0 {
		return models.Absent
	}

	start := i + len(label)
	end := start + window

	if end > len(text) {
		end = len(text)
	}

	if m := shape.FindStringSubmatch(text[start:end]); m != nil {
		return cleanNumber(m[1])
	}

	return models.Absent
}

func firstGroup(pattern *regexp.Regexp, text string) string {
	if m := pattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	return models.Absent
}

// cleanNumber strips the stray inner spaces rendering leaves in tokens like
// "£ 465.1K".
func cleanNumber(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}
