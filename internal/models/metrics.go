package models

// Absent is the sentinel shown for a metric that could not be found.
const Absent = "—"

// MetricHeaders fixes the daily_report_log.csv column order. The daily report
// card and the history log both read values in this order.
var MetricHeaders = []string{
	"page_timestamp", "period_range", "store_line",
	"sales_total", "sales_lfl", "sales_vs_target",
	"supermarket_nps", "colleague_happiness", "home_delivery_nps",
	"cafe_nps", "click_collect_nps", "customer_toilet_nps",
	"sco_utilisation", "efficiency", "scan_rate", "scan_vs_target",
	"interventions", "interventions_vs_target",
	"mainbank_closed", "mainbank_vs_target",
	"availability_pct", "despatched_on_time", "delivered_on_time", "cc_avg_wait",
	"waste_total", "markdowns_total", "wm_total", "wm_delta", "wm_delta_pct",
	"moa", "waste_validation", "unrecorded_waste_pct", "shrink_vs_budget_pct",
	"payroll_outturn", "absence_outturn", "productive_outturn",
	"holiday_outturn", "current_base_cost",
	"swipe_rate", "swipes_wow_pct", "new_customers", "swipes_yoy_pct",
	"complaints_key", "data_provided", "trusted_data", "my_reports",
	"weekly_activity",
}

// MetricsReport maps metric keys to their printed values. Values are kept as
// printed on the report; no numeric interpretation happens here.
type MetricsReport map[string]string

// Get returns the value for key, or the absence sentinel.
func (m MetricsReport) Get(key string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}

	return Absent
}

// Row returns the report in daily_report_log.csv field order.
func (m MetricsReport) Row() []string {
	row := make([]string, len(MetricHeaders))
	for i, h := range MetricHeaders {
		row[i] = m.Get(h)
	}

	return row
}
