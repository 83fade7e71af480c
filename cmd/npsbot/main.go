// npsbot turns rendered report dumps into Google Chat messages. Each
// subcommand processes one report kind end to end: lock, classify,
// extract, deliver, journal.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/Daave2/nps-scraper-sub000/internal/chat"
	"github.com/Daave2/nps-scraper-sub000/internal/config"
	"github.com/Daave2/nps-scraper-sub000/internal/delivery"
	"github.com/Daave2/nps-scraper-sub000/internal/journal"
	"github.com/Daave2/nps-scraper-sub000/internal/logger"
	"github.com/Daave2/nps-scraper-sub000/internal/models"
	"github.com/Daave2/nps-scraper-sub000/internal/report"
	"github.com/Daave2/nps-scraper-sub000/internal/runner"
)

var (
	configPath string
	inputPath  string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "npsbot",
	Short:         "Deliver rendered report data to Google Chat",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Extract and deliver new NPS comments",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd.Context(), reportComments)
	},
}

var complaintsCmd = &cobra.Command{
	Use:   "complaints",
	Short: "Extract and deliver new customer complaints",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd.Context(), reportComplaints)
	},
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Extract and deliver the daily metrics summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd.Context(), reportDaily)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&inputPath, "input", "", "report dump file (overrides the configured path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides the configured level)")

	rootCmd.AddCommand(commentsCmd)
	rootCmd.AddCommand(complaintsCmd)
	rootCmd.AddCommand(dailyCmd)
}

type reportKind int

const (
	reportComments reportKind = iota
	reportComplaints
	reportDaily
)

func runReport(ctx context.Context, kind reportKind) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}

	log := logger.NewLogger(level)

	log.Info("webhooks configured",
		"main", chat.Redact(cfg.Webhooks.Main),
		"alert", chat.Redact(cfg.AlertWebhook()),
		"complaints", chat.Redact(cfg.ComplaintsWebhook()))

	client := chat.NewClient(
		&http.Client{Timeout: cfg.Delivery.Timeout()},
		cfg.Delivery.RatePerSecond,
		chat.Backoff{
			Base:   cfg.Delivery.BackoffBase(),
			Max:    cfg.Delivery.BackoffMax(),
			Growth: cfg.Delivery.BackoffGrowth,
		},
		log,
	)

	input, pipeline := buildPipeline(kind, cfg, client, log)
	if input == "" {
		return fmt.Errorf("no input path configured for this report")
	}

	r := &runner.Runner{
		Fetcher: fetcherFor(input),
		Reauth:  runner.ExecReauthenticator{Command: cfg.Reauth.Command, Log: log},
		Alerter: runner.ChatAlerter{
			Poster:     client,
			WebhookURL: cfg.AlertWebhook(),
			RunURL:     cfg.CIRunURL,
		},
		Lock: &runner.Lock{
			Path:       cfg.Lock.Path,
			StaleAfter: cfg.Lock.StaleAfter(),
		},
		Log:      log,
		Pipeline: pipeline,
	}

	return r.Run(ctx)
}

func buildPipeline(kind reportKind, cfg *config.Config, client *chat.Client, log *logger.Logger) (string, runner.Pipeline) {
	switch kind {
	case reportComments:
		eng := &delivery.Engine{
			Poster:     client,
			Journal:    journal.New(cfg.Journals.Comments, nil, commentKey),
			WebhookURL: cfg.Webhooks.Main,
			BatchSize:  cfg.Delivery.BatchSize,
			MaxPerRun:  cfg.Delivery.MaxPerRun,
			Log:        log,
			BuildBatch: chat.CommentBatchPayload,
			Digest:     chat.DeferralDigest,
		}

		return pick(inputPath, cfg.Reports.CommentsInput), runner.CommentsPipeline(eng, log)

	case reportComplaints:
		eng := &delivery.Engine{
			Poster:     client,
			Journal:    journal.New(cfg.Journals.Complaints, models.ComplaintHeaders, complaintKey),
			WebhookURL: cfg.ComplaintsWebhook(),
			BatchSize:  cfg.Delivery.BatchSize,
			MaxPerRun:  cfg.Delivery.MaxPerRun,
			Log:        log,
			BuildBatch: chat.ComplaintBatchPayload,
			Digest:     chat.DeferralDigest,
		}

		return pick(inputPath, cfg.Reports.ComplaintsInput), runner.ComplaintsPipeline(eng, log)

	default:
		jnl := journal.New(cfg.Journals.Daily, models.MetricHeaders, dailyKey)

		return pick(inputPath, cfg.Reports.DailyInput),
			runner.DailyPipeline(client, jnl, cfg.Webhooks.Main, log)
	}
}

func fetcherFor(path string) report.Fetcher {
	return report.FileFetcher{Path: path}
}

func commentKey(row []string) (string, bool) {
	key := models.CommentKeyFromRow(row)

	return key, key != ""
}

func complaintKey(row []string) (string, bool) {
	key := models.ComplaintKeyFromRow(row)

	return key, models.CaseNumberPattern.MatchString(key)
}

// dailyKey treats the page timestamp column as the record key, skipping the
// header row.
func dailyKey(row []string) (string, bool) {
	if len(row) == 0 || row[0] == "page_timestamp" || row[0] == models.Absent {
		return "", false
	}

	return row[0], true
}

func pick(override, configured string) string {
	if override != "" {
		return override
	}

	return configured
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
