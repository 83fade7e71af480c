// Package runner owns the per-run lifecycle: the run lock, fetching and
// classifying the report, the single re-authentication retry and operator
// alerting. The actual extraction and delivery work is an injected pipeline.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/Daave2/nps-scraper-sub000/internal/logger"
	"github.com/Daave2/nps-scraper-sub000/internal/report"
)

// Reauthenticator refreshes the renderer's session after an auth wall.
type Reauthenticator interface {
	Reauthenticate(ctx context.Context) error
}

// Alerter sends operator-facing alert text.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// Pipeline consumes a usable snapshot.
type Pipeline func(ctx context.Context, snap report.Snapshot) error

// Runner executes one complete run.
type Runner struct {
	Fetcher  report.Fetcher
	Reauth   Reauthenticator
	Alerter  Alerter
	Lock     *Lock
	Log      *logger.Logger
	Pipeline Pipeline
}

// Run acquires the lock and processes one report. A concurrently held lock is
// a quiet no-op. An auth wall triggers one re-authentication and refetch;
// hitting the wall again alerts and fails.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.Lock.Acquire(); err != nil {
		if errors.Is(err, ErrLocked) {
			r.Log.Info("lock held by another run, skipping", "lock", r.Lock.Path)

			return nil
		}

		return err
	}

	defer func() {
		if err := r.Lock.Release(); err != nil {
			r.Log.Error("failed to release lock", "error", err)
		}
	}()

	if err := r.run(ctx, true); err != nil {
		r.alert(ctx, fmt.Sprintf("🚨 Report run failed: %v", err))

		return err
	}

	return nil
}

func (r *Runner) run(ctx context.Context, allowReauth bool) error {
	snap, err := r.Fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch report: %w", err)
	}

	switch snap.State {
	case report.StateNoContent:
		r.Log.Info("report is empty, nothing to do")

		return nil

	case report.StateAuthWall:
		if !allowReauth {
			r.alert(ctx, "⚠️ Repeated login failure — human attention required.")

			return errors.New("auth wall persisted after re-authentication")
		}

		r.Log.Warn("auth wall detected, re-authenticating")

		if err := r.Reauth.Reauthenticate(ctx); err != nil {
			return fmt.Errorf("re-authenticate: %w", err)
		}

		return r.run(ctx, false)
	}

	return r.Pipeline(ctx, snap)
}

// alert is best-effort; an alert failure must not mask the run's own error.
func (r *Runner) alert(ctx context.Context, text string) {
	if r.Alerter == nil {
		return
	}

	if err := r.Alerter.Alert(ctx, text); err != nil {
		r.Log.Error("failed to send alert", "error", err)
	}
}
