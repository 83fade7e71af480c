// Package models defines the record types extracted from rendered reports.
package models

import "regexp"

// NoCommentText is the placeholder stored when a comment body is empty.
const NoCommentText = "[No text]"

// keySep separates natural-key fields; it never appears in report text.
const keySep = "\x1f"

// Shapes shared by the comment extractor and record validation.
var (
	DatePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	ScorePattern = regexp.MustCompile(`^(10|[0-9])$`)
	StorePattern = regexp.MustCompile(`^\d+\s+.+`)
)

// Comment is a single NPS survey comment recovered from the report text.
type Comment struct {
	Store     string
	Timestamp string
	Comment   string
	Score     string
}

// Key returns the natural key identifying this comment for deduplication.
func (c Comment) Key() string {
	return c.Store + keySep + c.Timestamp + keySep + c.Comment
}

// Valid reports whether every field matches its required shape.
func (c Comment) Valid() bool {
	return StorePattern.MatchString(c.Store) &&
		DatePattern.MatchString(c.Timestamp) &&
		ScorePattern.MatchString(c.Score)
}

// Row returns the comment in comments_log.csv field order.
func (c Comment) Row() []string {
	return []string{c.Store, c.Timestamp, c.Comment, c.Score}
}

// CommentKeyFromRow rebuilds the natural key from a persisted log row.
func CommentKeyFromRow(row []string) string {
	if len(row) < 3 {
		return ""
	}

	return row[0] + keySep + row[1] + keySep + row[2]
}
