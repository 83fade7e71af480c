// Package report obtains the rendered report text and classifies it before
// extraction. The renderer itself lives outside this program; a Fetcher only
// hands over the text it produced.
package report

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Daave2/nps-scraper-sub000/internal/textnorm"
)

// State classifies a fetched snapshot.
type State int

const (
	// StateOK means the snapshot holds report content worth extracting.
	StateOK State = iota
	// StateAuthWall means the renderer was shown a sign-in or permission
	// page instead of the report.
	StateAuthWall
	// StateNoContent means the snapshot is empty.
	StateNoContent
)

// Snapshot is one fetched report: its normalized lines and classification.
type Snapshot struct {
	Lines []string
	State State
}

// Fetcher produces a report snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// Auth wall pages surface one of these phrases near the top.
var authWallMarkers = []string{
	"please sign in",
	"can't access report",
	"you need permission",
}

// Lines to inspect for auth markers; wall pages are short and front-loaded.
const classifyWindow = 80

// Classify normalizes raw text and labels it.
func Classify(raw string) Snapshot {
	lines := textnorm.Lines(strings.Split(raw, "\n"))
	if len(lines) == 0 {
		return Snapshot{State: StateNoContent}
	}

	window := lines
	if len(window) > classifyWindow {
		window = window[:classifyWindow]
	}

	for _, line := range window {
		lower := strings.ToLower(line)

		for _, marker := range authWallMarkers {
			if strings.Contains(lower, marker) {
				return Snapshot{Lines: lines, State: StateAuthWall}
			}
		}
	}

	return Snapshot{Lines: lines, State: StateOK}
}

// FileFetcher reads a report dump written by the external renderer.
type FileFetcher struct {
	Path string
}

func (f FileFetcher) Fetch(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read report %s: %w", f.Path, err)
	}

	return Classify(string(raw)), nil
}
