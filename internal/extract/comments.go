package extract

import (
	"regexp"
	"strings"

	"github.com/Daave2/nps-scraper-sub000/internal/models"
)

// anchorToken marks the start of a comment block in the rendered report.
const anchorToken = "Submission via:"

// backWindow bounds the backward scan for the date and store lines.
const backWindow = 8

// noisePattern catalogs report chrome that must never end up in a comment
// body: menu text, weekday names, period selectors, legal footers.
var noisePattern = regexp.MustCompile(
	`(?i)^(This|Last|Yesterday|go back|regional_manager|Privacy$|By |Lighthouse|You are about to|` +
		`Highly$|Satisfied$|Dissatisfied$|The data on this report|Showing results|Record Count|ⓘ|Net Promoter Score|` +
		`Your weighted NPS|Satisfaction is the percentage|If no email survey responses|` +
		`The last \d+ (days|weeks)|Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday|` +
		`This Year|This Quarter|This Period|This Week|Google Home|Terms of Service|Privacy Policy)$`)

// CommentExtractor implements the anchor-based strategy: find the anchor
// token, recover the nearest date and store lines behind it, then collect the
// comment body forward until a score line terminates the block.
type CommentExtractor struct {
	skipped int
}

func NewCommentExtractor() *CommentExtractor {
	return &CommentExtractor{}
}

// Skipped returns how many anchors were dropped because the surrounding lines
// never produced a well-formed record.
func (e *CommentExtractor) Skipped() int {
	return e.skipped
}

// Extract scans the normalized lines and returns candidate comment records in
// input order. Anchors that do not yield a complete date/store/score triple
// emit nothing.
func (e *CommentExtractor) Extract(lines []string) []models.Comment {
	var out []models.Comment

	cur := newCursor(lines)

	for {
		line, ok := cur.Next()
		if !ok {
			break
		}

		if !strings.HasPrefix(line, anchorToken) {
			continue
		}

		// Backward scan, nearest line first, date and store independently.
		// Text lines sitting between the date/store pair and the anchor are
		// the leading part of the comment body.
		var dateLine, storeLine string

		var lead []string

		for _, prev := range cur.Before(backWindow) {
			switch {
			case dateLine == "" && models.DatePattern.MatchString(prev):
				dateLine = prev
			case storeLine == "" && models.StorePattern.MatchString(prev):
				storeLine = prev
			case dateLine == "" && storeLine == "" && !noisePattern.MatchString(prev):
				lead = append(lead, prev)
			}

			if dateLine != "" && storeLine != "" {
				break
			}
		}

		// lead was collected nearest first; restore document order.
		for i, j := 0, len(lead)-1; i < j; i, j = i+1, j-1 {
			lead[i], lead[j] = lead[j], lead[i]
		}

		// Forward scan: collect the body until a score line closes the
		// block. A date line after at least one body line starts the next
		// block and is pushed back for reprocessing.
		body := lead

		var scoreLine string

		for {
			next, more := cur.Next()
			if !more {
				break
			}

			if models.ScorePattern.MatchString(next) {
				scoreLine = next

				break
			}

			if models.DatePattern.MatchString(next) && len(body) > 0 {
				cur.Unread()

				break
			}

			if noisePattern.MatchString(next) || strings.HasPrefix(next, anchorToken) {
				continue
			}

			body = append(body, next)
		}

		comment := models.Comment{
			Store:     storeLine,
			Timestamp: dateLine,
			Comment:   strings.TrimSpace(strings.Join(body, "\n")),
			Score:     scoreLine,
		}
		if comment.Comment == "" {
			comment.Comment = models.NoCommentText
		}

		if comment.Valid() {
			out = append(out, comment)
		} else {
			e.skipped++
		}
	}

	return out
}
