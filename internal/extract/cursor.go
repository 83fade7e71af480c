// Package extract recovers structured records from normalized report text.
// Three independent strategies share the same shape: a sequence of lines in,
// a sequence of candidate records out. Malformed candidates are discarded
// silently; callers dedupe and deliver what remains.
package extract

// cursor is a pushback reader over a line sequence. State machines advance it
// with Next and rewind exactly one position with Unread, so a "reprocess this
// line" transition is explicit instead of an index adjustment.
type cursor struct {
	lines []string
	pos   int
}

func newCursor(lines []string) *cursor {
	return &cursor{lines: lines}
}

// Next returns the next line, or false when the input is exhausted.
func (c *cursor) Next() (string, bool) {
	if c.pos >= len(c.lines) {
		return "", false
	}

	line := c.lines[c.pos]
	c.pos++

	return line, true
}

// Unread rewinds the cursor one position so the last line returned by Next is
// returned again. Calling Unread at the start of the input is a no-op.
func (c *cursor) Unread() {
	if c.pos > 0 {
		c.pos--
	}
}

// Before returns up to n lines preceding the line most recently returned by
// Next, nearest first. It is used for bounded backward scans.
func (c *cursor) Before(n int) []string {
	end := c.pos - 1
	if end < 0 {
		return nil
	}

	start := end - n
	if start < 0 {
		start = 0
	}

	out := make([]string, 0, end-start)
	for i := end - 1; i >= start; i-- {
		out = append(out, c.lines[i])
	}

	return out
}
