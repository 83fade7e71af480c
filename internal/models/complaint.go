package models

import "regexp"

// NoResponseText is the placeholder stored when a complaint carries no store response.
const NoResponseText = "[No response recorded]"

// CaseNumberPattern matches the purely numeric case identifier.
var CaseNumberPattern = regexp.MustCompile(`^\d+$`)

// ComplaintHeaders is the fixed column order of complaints_log.csv.
var ComplaintHeaders = []string{
	"case_number", "opened_date", "store", "dashboard_business_area",
	"case_type", "case_category", "case_reason", "detailed_case_reason",
	"description", "store_response",
}

// Complaint is a customer complaint case recovered from the report text.
type Complaint struct {
	CaseNumber     string
	OpenedDate     string
	Store          string
	BusinessArea   string
	CaseType       string
	CaseCategory   string
	CaseReason     string
	DetailedReason string
	Description    string
	StoreResponse  string
}

// Key returns the natural key identifying this complaint for deduplication.
func (c Complaint) Key() string {
	return c.CaseNumber
}

// Valid reports whether the case number is present and purely numeric.
func (c Complaint) Valid() bool {
	return CaseNumberPattern.MatchString(c.CaseNumber)
}

// Row returns the complaint in complaints_log.csv field order.
func (c Complaint) Row() []string {
	return []string{
		c.CaseNumber, c.OpenedDate, c.Store, c.BusinessArea,
		c.CaseType, c.CaseCategory, c.CaseReason, c.DetailedReason,
		c.Description, c.StoreResponse,
	}
}

// ComplaintKeyFromRow rebuilds the natural key from a persisted log row.
func ComplaintKeyFromRow(row []string) string {
	if len(row) == 0 {
		return ""
	}

	return row[0]
}
