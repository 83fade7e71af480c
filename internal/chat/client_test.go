package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daave2/nps-scraper-sub000/internal/logger"
)

func testClient(t *testing.T) (*Client, *[]time.Duration) {
	t.Helper()

	c := NewClient(
		&http.Client{Timeout: 5 * time.Second},
		1000,
		Backoff{Base: 2 * time.Second, Max: 30 * time.Second, Growth: 1.7},
		logger.NewLogger("error"),
	)

	var sleeps []time.Duration

	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)

		return nil
	}

	return c, &sleeps
}

func TestPostSuccess(t *testing.T) {
	var got string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		got = string(buf[:n])
	}))
	defer srv.Close()

	c, sleeps := testClient(t)

	require.NoError(t, c.Post(context.Background(), srv.URL, TextPayload("hello")))
	assert.Empty(t, *sleeps)
	assert.JSONEq(t, `{"text":"hello"}`, got)
}

func TestPostRetriesOn429HonoringRetryAfter(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}
	}))
	defer srv.Close()

	c, sleeps := testClient(t)

	require.NoError(t, c.Post(context.Background(), srv.URL, TextPayload("x")))
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{3 * time.Second}, *sleeps)
}

func TestPostRetryAfterCappedAtCeiling(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "600")
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}
	}))
	defer srv.Close()

	c, sleeps := testClient(t)

	require.NoError(t, c.Post(context.Background(), srv.URL, TextPayload("x")))
	assert.Equal(t, []time.Duration{30 * time.Second}, *sleeps)
}

func TestPostBackoffGrowsBetweenRetries(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	c, sleeps := testClient(t)

	require.NoError(t, c.Post(context.Background(), srv.URL, TextPayload("x")))
	require.Len(t, *sleeps, 3)

	assert.Equal(t, 2*time.Second, (*sleeps)[0])
	assert.InDelta(t, 3.4, (*sleeps)[1].Seconds(), 0.01)
	assert.InDelta(t, 5.78, (*sleeps)[2].Seconds(), 0.01)
}

func TestPostHardStatusAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, sleeps := testClient(t)

	err := c.Post(context.Background(), srv.URL, TextPayload("x"))

	require.ErrorIs(t, err, ErrHardStatus)
	assert.Empty(t, *sleeps)
}

func TestPostTransportErrorRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	url := srv.URL

	srv.Close()

	c, _ := testClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()

		return ctx.Err()
	}

	err := c.Post(ctx, url, TextPayload("x"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrHardStatus)
}

func TestIsChatWebhook(t *testing.T) {
	assert.True(t, IsChatWebhook("https://chat.googleapis.com/v1/spaces/AAA/messages?key=k&token=t"))
	assert.False(t, IsChatWebhook("http://chat.googleapis.com/v1/spaces/AAA/messages"))
	assert.False(t, IsChatWebhook("https://example.com/hook"))
	assert.False(t, IsChatWebhook("::not a url"))
}

func TestRedact(t *testing.T) {
	assert.Equal(t,
		"https://chat.googleapis.com/v1/spaces/AAA/messages?...",
		Redact("https://chat.googleapis.com/v1/spaces/AAA/messages?key=secret&token=secret"))
	assert.Equal(t, "https://example.com/hook", Redact("https://example.com/hook"))
}
