// Package textnorm canonicalizes raw rendered-report text before extraction.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Rendered dashboards sprinkle invisible characters into copied text.
var invisibles = strings.NewReplacer(
	" ", " ", // non-breaking space
	" ", " ", // narrow non-breaking space
	"​", "", // zero-width space
	"‌", "", // zero-width non-joiner
	"\uFEFF", "", // BOM / zero-width no-break space
)

// Normalize canonicalizes a single line: invisible characters are collapsed,
// the text is NFKC-normalized, and surrounding whitespace is stripped.
func Normalize(s string) string {
	s = invisibles.Replace(s)
	s = norm.NFKC.String(s)

	return strings.TrimSpace(s)
}

// Lines normalizes each raw line and drops lines that normalize to empty.
// Order is preserved; extractors rely on it for backward and forward scanning.
func Lines(raw []string) []string {
	out := make([]string, 0, len(raw))

	for _, line := range raw {
		if n := Normalize(line); n != "" {
			out = append(out, n)
		}
	}

	return out
}
