package extract

import (
	"regexp"
	"strings"

	"github.com/Daave2/nps-scraper-sub000/internal/models"
)

// blockState tracks progress through one complaint block. Fields arrive on
// consecutive lines in a fixed order, so each state consumes exactly one line
// until the free-text description and response phases.
type blockState int

const (
	stateSeeking blockState = iota
	stateListItemSeen
	stateDateSeen
	stateStoreSeen
	stateCaseSeen
	stateAreaSeen
	stateTypeSeen
	stateCategorySeen
	stateReasonSeen
	stateReadingDescription
	stateReadingResponse
)

var (
	openedDatePattern = regexp.MustCompile(`(?i)^\d{1,2}\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{4},\s+\d{2}:\d{2}:\d{2}$`)
	listItemPattern   = regexp.MustCompile(`^\d+\.$`)
	endMarkerPattern  = regexp.MustCompile(`(?i)^(Respond|under review|null)$`)
	paginationPattern = regexp.MustCompile(`^\d+\s+-\s+\d+\s*/\s*\d+`)
	columnHeaderPattern = regexp.MustCompile(
		`(?i)^(opened_date|store|case_number|dashboard_business_area|case_type|case_category|` +
			`case_reason|detailed_case_reason|description|response_url|store_response)$`)
	nullToken = "null"
)

// ComplaintExtractor implements the finite-state block strategy for the
// complaints report: a numbered list marker tentatively opens a record, the
// next eight lines fill the fixed fields, then description and response text
// accumulate until the next block starts.
type ComplaintExtractor struct{}

func NewComplaintExtractor() *ComplaintExtractor {
	return &ComplaintExtractor{}
}

// Extract runs the state machine over the normalized lines and returns the
// complaint records it completes. Partial blocks are discarded, except that a
// block still reading its response when input ends is flushed as-is.
func (e *ComplaintExtractor) Extract(lines []string) []models.Complaint {
	var out []models.Complaint

	cur := newCursor(lines)
	state := stateSeeking

	var rec models.Complaint

	var desc, resp []string

	for {
		line, ok := cur.Next()
		if !ok {
			break
		}

		// Global skip rule, independent of state.
		if line == "" || paginationPattern.MatchString(line) || columnHeaderPattern.MatchString(line) {
			continue
		}

		switch state {
		case stateSeeking:
			if listItemPattern.MatchString(line) {
				state = stateListItemSeen
			}

		case stateListItemSeen:
			if openedDatePattern.MatchString(line) {
				rec = models.Complaint{OpenedDate: line}
				desc, resp = nil, nil
				state = stateDateSeen
			} else {
				state = stateSeeking
			}

		case stateDateSeen:
			rec.Store = line
			state = stateStoreSeen

		case stateStoreSeen:
			if models.CaseNumberPattern.MatchString(line) {
				rec.CaseNumber = line
				state = stateCaseSeen
			} else {
				rec = models.Complaint{}
				state = stateSeeking
			}

		case stateCaseSeen:
			rec.BusinessArea = line
			state = stateAreaSeen

		case stateAreaSeen:
			rec.CaseType = line
			state = stateTypeSeen

		case stateTypeSeen:
			rec.CaseCategory = line
			state = stateCategorySeen

		case stateCategorySeen:
			rec.CaseReason = line
			state = stateReasonSeen

		case stateReasonSeen:
			rec.DetailedReason = line
			state = stateReadingDescription

		case stateReadingDescription:
			switch {
			case listItemPattern.MatchString(line) || openedDatePattern.MatchString(line):
				// Next block begins: close this one without a response
				// and reprocess the line.
				rec.Description = strings.TrimSpace(strings.Join(desc, "\n"))
				rec.StoreResponse = models.NoResponseText
				out = append(out, rec)
				rec = models.Complaint{}
				cur.Unread()

				state = stateSeeking
			case endMarkerPattern.MatchString(line):
				rec.Description = strings.TrimSpace(strings.Join(desc, "\n"))
				state = stateReadingResponse
			default:
				desc = append(desc, line)
			}

		case stateReadingResponse:
			if listItemPattern.MatchString(line) || openedDatePattern.MatchString(line) {
				rec.StoreResponse = responseText(resp)
				out = append(out, rec)
				rec = models.Complaint{}
				cur.Unread()

				state = stateSeeking
			} else if !strings.EqualFold(line, nullToken) {
				resp = append(resp, line)
			}
		}
	}

	// Input ended mid-response: flush the pending record.
	if state == stateReadingResponse && rec.CaseNumber != "" {
		rec.StoreResponse = responseText(resp)
		out = append(out, rec)
	}

	return out
}

func responseText(resp []string) string {
	if text := strings.TrimSpace(strings.Join(resp, "\n")); text != "" {
		return text
	}

	return models.NoResponseText
}
