package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/Daave2/nps-scraper-sub000/internal/chat"
	"github.com/Daave2/nps-scraper-sub000/internal/delivery"
	"github.com/Daave2/nps-scraper-sub000/internal/extract"
	"github.com/Daave2/nps-scraper-sub000/internal/logger"
	"github.com/Daave2/nps-scraper-sub000/internal/models"
	"github.com/Daave2/nps-scraper-sub000/internal/report"
)

// ChatAlerter sends alert text to the alert webhook, tagging each message
// with the CI run URL when one is known.
type ChatAlerter struct {
	Poster     chat.Poster
	WebhookURL string
	RunURL     string
}

func (a ChatAlerter) Alert(ctx context.Context, text string) error {
	return a.Poster.Post(ctx, a.WebhookURL, chat.AlertMessage(text, a.RunURL))
}

// CommentsPipeline extracts NPS comments and hands them to the delivery
// engine. Malformed candidate blocks are dropped with a count, never a
// failure; one bad block must not hold back the rest of the report.
func CommentsPipeline(eng *delivery.Engine, log *logger.Logger) Pipeline {
	return func(ctx context.Context, snap report.Snapshot) error {
		ex := extract.NewCommentExtractor()

		comments := ex.Extract(snap.Lines)
		if n := ex.Skipped(); n > 0 {
			log.Warn("skipped malformed comment blocks", "count", n)
		}

		log.Info("extracted comments", "count", len(comments))

		items := make([]delivery.Item, len(comments))
		for i, c := range comments {
			items[i] = delivery.Item{
				ItemKey: c.Key(),
				Row:     c.Row(),
				Section: chat.CommentSection(c),
			}
		}

		_, err := eng.Deliver(ctx, items)

		return err
	}
}

// ComplaintsPipeline extracts complaint cases and hands them to the delivery
// engine.
func ComplaintsPipeline(eng *delivery.Engine, log *logger.Logger) Pipeline {
	return func(ctx context.Context, snap report.Snapshot) error {
		complaints := extract.NewComplaintExtractor().Extract(snap.Lines)

		log.Info("extracted complaints", "count", len(complaints))

		items := make([]delivery.Item, len(complaints))
		for i, c := range complaints {
			items[i] = delivery.Item{
				ItemKey: c.Key(),
				Row:     c.Row(),
				Section: chat.ComplaintSection(c),
			}
		}

		_, err := eng.Deliver(ctx, items)

		return err
	}
}

// DailyPipeline extracts the daily metrics report, posts the summary card
// and appends the row to the history log. The page timestamp keys the run;
// a repeated timestamp means the report has not refreshed and is skipped.
func DailyPipeline(poster chat.Poster, jnl delivery.Journal, webhookURL string, log *logger.Logger) Pipeline {
	return func(ctx context.Context, snap report.Snapshot) error {
		m := extract.NewMetricsExtractor().Extract(strings.Join(snap.Lines, "\n"))

		key := m.Get("page_timestamp")
		if key == models.Absent {
			return fmt.Errorf("daily report has no page timestamp")
		}

		seen, err := jnl.Keys()
		if err != nil {
			return fmt.Errorf("load journal: %w", err)
		}

		if _, ok := seen[key]; ok {
			log.Info("daily report already delivered", "page_timestamp", key)

			return nil
		}

		if err := poster.Post(ctx, webhookURL, chat.DailySummaryCard(m)); err != nil {
			return fmt.Errorf("post daily summary: %w", err)
		}

		if err := jnl.Append([][]string{m.Row()}); err != nil {
			return fmt.Errorf("journal daily report: %w", err)
		}

		log.Info("daily report delivered", "page_timestamp", key)

		return nil
	}
}
