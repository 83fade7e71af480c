// Package delivery batches new records, posts them to a webhook and records
// each successful batch in the journal. A record is journalled only after the
// batch containing it is accepted, so a crash or hard failure re-sends at
// most the in-flight batch and never skips a record.
package delivery

import (
	"context"
	"fmt"

	"github.com/Daave2/nps-scraper-sub000/internal/chat"
	"github.com/Daave2/nps-scraper-sub000/internal/journal"
	"github.com/Daave2/nps-scraper-sub000/internal/logger"
)

// Item is one deliverable record: its dedupe key, the journal row persisted
// on success and the card section shown in the batch message.
type Item struct {
	ItemKey string
	Row     []string
	Section chat.Section
}

// Key implements journal.Keyed.
func (i Item) Key() string { return i.ItemKey }

// Journal is the subset of journal.Log delivery needs.
type Journal interface {
	Keys() (map[string]struct{}, error)
	Append(rows [][]string) error
}

// Engine delivers items in batches with a per-run cap.
type Engine struct {
	Poster     chat.Poster
	Journal    Journal
	WebhookURL string
	BatchSize  int
	MaxPerRun  int
	Log        *logger.Logger

	// BuildBatch renders one batch message; first and last are 1-based
	// positions within the run's sendable total.
	BuildBatch func(sections []chat.Section, first, last, total int) chat.Payload
	// Digest renders the single held-back notice sent when the cap bites.
	Digest func(deferred int) chat.Payload
}

// Result reports what a delivery run did.
type Result struct {
	Sent     int
	Deferred int
	Batches  int
}

// Deliver filters items against the journal, sends the new ones in order and
// journals each accepted batch. The first failed batch aborts the rest; its
// items stay out of the journal and are retried next run.
func (e *Engine) Deliver(ctx context.Context, items []Item) (Result, error) {
	var res Result

	seen, err := e.Journal.Keys()
	if err != nil {
		return res, fmt.Errorf("load journal: %w", err)
	}

	fresh := journal.FilterNew(items, seen)
	if len(fresh) == 0 {
		e.Log.Info("no new records to deliver", "extracted", len(items))

		return res, nil
	}

	sendable := fresh
	if e.MaxPerRun > 0 && len(sendable) > e.MaxPerRun {
		res.Deferred = len(sendable) - e.MaxPerRun
		sendable = sendable[:e.MaxPerRun]
	}

	total := len(sendable)

	e.Log.Info("delivering records",
		"new", len(fresh), "sending", total, "deferred", res.Deferred)

	for start := 0; start < total; start += e.BatchSize {
		end := start + e.BatchSize
		if end > total {
			end = total
		}

		batch := sendable[start:end]

		sections := make([]chat.Section, len(batch))
		rows := make([][]string, len(batch))

		for i, item := range batch {
			sections[i] = item.Section
			rows[i] = item.Row
		}

		payload := e.BuildBatch(sections, start+1, end, total)

		if err := e.Poster.Post(ctx, e.WebhookURL, payload); err != nil {
			return res, fmt.Errorf("post batch %d: %w", res.Batches+1, err)
		}

		if err := e.Journal.Append(rows); err != nil {
			// The batch was accepted but not journalled; it will repeat
			// next run. Surface loudly rather than continue and widen the
			// duplicated window.
			return res, fmt.Errorf("journal batch %d: %w", res.Batches+1, err)
		}

		res.Sent += len(batch)
		res.Batches++

		e.Log.Debug("batch delivered", "batch", res.Batches, "records", len(batch))
	}

	if res.Deferred > 0 && e.Digest != nil {
		if err := e.Poster.Post(ctx, e.WebhookURL, e.Digest(res.Deferred)); err != nil {
			return res, fmt.Errorf("post deferral digest: %w", err)
		}
	}

	return res, nil
}
