package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Daave2/nps-scraper-sub000/internal/logger"
)

// ErrHardStatus marks a webhook response that retrying cannot fix. Delivery
// stops for the run when it is returned.
var ErrHardStatus = errors.New("webhook returned non-retryable status")

const chatHost = "chat.googleapis.com"

// Poster sends one payload to one webhook.
type Poster interface {
	Post(ctx context.Context, webhookURL string, payload Payload) error
}

// Backoff controls the retry delay sequence for rate-limited posts. The
// delay starts at Base, multiplies by Growth after each retry and never
// exceeds Max. A Retry-After header overrides the computed delay, still
// capped at Max.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Growth float64
}

// Client posts payloads to Google Chat webhooks. A token bucket paces posts
// ahead of the server's own limiting; HTTP 429 and transport errors are
// retried indefinitely, any other non-200 status is a hard failure.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	backoff    Backoff
	log        *logger.Logger

	// sleep is replaceable so retry timing is testable.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(httpClient *http.Client, perSecond float64, backoff Backoff, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		backoff:    backoff,
		log:        log,
		sleep:      sleepCtx,
	}
}

// Post sends payload to webhookURL, blocking until it is accepted or fails
// hard. The context bounds the whole call including retries.
func (c *Client) Post(ctx context.Context, webhookURL string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	delay := c.backoff.Base

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		status, retryAfter, err := c.postOnce(ctx, webhookURL, body)

		switch {
		case err == nil && status == http.StatusOK:
			return nil

		case err == nil && status != http.StatusTooManyRequests:
			return fmt.Errorf("%w: HTTP %d from %s", ErrHardStatus, status, Redact(webhookURL))

		case err != nil:
			c.log.Warn("webhook post failed, retrying",
				"attempt", attempt, "error", err, "webhook", Redact(webhookURL))

		default:
			c.log.Warn("webhook rate limited",
				"attempt", attempt, "webhook", Redact(webhookURL))
		}

		wait := delay
		if retryAfter > 0 {
			wait = retryAfter
		}

		if wait > c.backoff.Max {
			wait = c.backoff.Max
		}

		if err := c.sleep(ctx, wait); err != nil {
			return fmt.Errorf("waiting to retry: %w", err)
		}

		delay = time.Duration(float64(delay) * c.backoff.Growth)
		if delay > c.backoff.Max {
			delay = c.backoff.Max
		}
	}
}

func (c *Client) postOnce(ctx context.Context, webhookURL string, body []byte) (status int, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode == http.StatusTooManyRequests {
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, perr := strconv.Atoi(s); perr == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
	}

	return resp.StatusCode, retryAfter, nil
}

// IsChatWebhook reports whether rawURL points at the Google Chat API host.
func IsChatWebhook(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	return u.Scheme == "https" && u.Host == chatHost
}

// Redact strips the query string, which carries the webhook key and token.
func Redact(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i] + "?..."
	}

	return rawURL
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
