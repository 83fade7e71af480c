package delivery

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daave2/nps-scraper-sub000/internal/chat"
	"github.com/Daave2/nps-scraper-sub000/internal/logger"
)

// fakePoster records posted payloads and fails on request when scripted.
type fakePoster struct {
	posted []chat.Payload
	failOn int
}

func (f *fakePoster) Post(ctx context.Context, url string, p chat.Payload) error {
	if f.failOn > 0 && len(f.posted)+1 == f.failOn {
		return fmt.Errorf("%w: HTTP 500", chat.ErrHardStatus)
	}

	f.posted = append(f.posted, p)

	return nil
}

// fakeJournal keeps appended rows in memory.
type fakeJournal struct {
	seen map[string]struct{}
	rows [][]string
}

func (f *fakeJournal) Keys() (map[string]struct{}, error) {
	if f.seen == nil {
		return map[string]struct{}{}, nil
	}

	return f.seen, nil
}

func (f *fakeJournal) Append(rows [][]string) error {
	f.rows = append(f.rows, rows...)

	return nil
}

func makeItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		key := fmt.Sprintf("k%03d", i)
		items[i] = Item{ItemKey: key, Row: []string{key}, Section: chat.Section{Header: key}}
	}

	return items
}

type batchMark struct {
	sections int
	first    int
	last     int
	total    int
}

func newEngine(poster *fakePoster, jnl *fakeJournal, batches *[]batchMark, digests *int) *Engine {
	return &Engine{
		Poster:     poster,
		Journal:    jnl,
		WebhookURL: "https://chat.googleapis.com/v1/spaces/x/messages",
		BatchSize:  10,
		MaxPerRun:  30,
		Log:        logger.NewLogger("error"),
		BuildBatch: func(sections []chat.Section, first, last, total int) chat.Payload {
			*batches = append(*batches, batchMark{len(sections), first, last, total})

			return chat.Payload{Text: fmt.Sprintf("batch %d-%d", first, last)}
		},
		Digest: func(deferred int) chat.Payload {
			*digests++

			return chat.DeferralDigest(deferred)
		},
	}
}

func TestDeliverUnderCap(t *testing.T) {
	poster := &fakePoster{}
	jnl := &fakeJournal{}

	var batches []batchMark

	var digests int

	eng := newEngine(poster, jnl, &batches, &digests)

	res, err := eng.Deliver(context.Background(), makeItems(25))

	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 25, Deferred: 0, Batches: 3}, res)
	assert.Equal(t, []batchMark{
		{10, 1, 10, 25},
		{10, 11, 20, 25},
		{5, 21, 25, 25},
	}, batches)
	assert.Equal(t, 0, digests)
	assert.Len(t, jnl.rows, 25)
	assert.Len(t, poster.posted, 3)
}

func TestDeliverOverCapDefersWithOneDigest(t *testing.T) {
	poster := &fakePoster{}
	jnl := &fakeJournal{}

	var batches []batchMark

	var digests int

	eng := newEngine(poster, jnl, &batches, &digests)

	res, err := eng.Deliver(context.Background(), makeItems(35))

	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 30, Deferred: 5, Batches: 3}, res)
	assert.Equal(t, 1, digests)
	assert.Len(t, jnl.rows, 30)
	// 3 batch messages plus the digest.
	assert.Len(t, poster.posted, 4)
}

func TestDeliverHardFailureAbortsRemainingBatches(t *testing.T) {
	poster := &fakePoster{failOn: 2}
	jnl := &fakeJournal{}

	var batches []batchMark

	var digests int

	eng := newEngine(poster, jnl, &batches, &digests)
	eng.MaxPerRun = 40

	res, err := eng.Deliver(context.Background(), makeItems(40))

	require.ErrorIs(t, err, chat.ErrHardStatus)
	assert.Equal(t, 10, res.Sent)
	assert.Equal(t, 1, res.Batches)
	// Only the first batch reached the journal.
	assert.Len(t, jnl.rows, 10)
	assert.Len(t, poster.posted, 1)
	assert.Equal(t, 0, digests)
}

func TestDeliverSkipsAlreadyJournalled(t *testing.T) {
	poster := &fakePoster{}
	jnl := &fakeJournal{seen: map[string]struct{}{"k000": {}, "k001": {}}}

	var batches []batchMark

	var digests int

	eng := newEngine(poster, jnl, &batches, &digests)

	res, err := eng.Deliver(context.Background(), makeItems(5))

	require.NoError(t, err)
	assert.Equal(t, 3, res.Sent)
}

func TestDeliverNothingNewPostsNothing(t *testing.T) {
	poster := &fakePoster{}
	jnl := &fakeJournal{seen: map[string]struct{}{"k000": {}}}

	var batches []batchMark

	var digests int

	eng := newEngine(poster, jnl, &batches, &digests)

	res, err := eng.Deliver(context.Background(), makeItems(1))

	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Empty(t, poster.posted)
}

func TestDeliverBatchNeverExceedsBatchSize(t *testing.T) {
	poster := &fakePoster{}
	jnl := &fakeJournal{}

	var batches []batchMark

	var digests int

	eng := newEngine(poster, jnl, &batches, &digests)
	eng.BatchSize = 4
	eng.MaxPerRun = 100

	_, err := eng.Deliver(context.Background(), makeItems(11))

	require.NoError(t, err)

	for _, b := range batches {
		assert.LessOrEqual(t, b.sections, 4)
	}
}
