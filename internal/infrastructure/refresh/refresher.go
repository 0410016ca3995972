// Package refresh re-fetches the selected day of a schedule on a cron
// schedule, so a long-running process picks up changes made elsewhere.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Default configuration values
const (
	DefaultSpec    = "@every 5m"
	DefaultTimeout = 30 * time.Second
)

// ErrInvalidSpec is returned by New when the cron expression cannot be parsed.
var ErrInvalidSpec = errors.New("invalid refresh schedule")

// Target is refreshed on every tick. schedule.Store implements it.
type Target interface {
	Refresh(ctx context.Context) error
}

// Config holds configuration for the Refresher.
type Config struct {
	Spec     string         // Standard 5-field cron expression or descriptor (default: "@every 5m")
	Location *time.Location // Zone the expression is evaluated in (nil: time.Local)
	Timeout  time.Duration  // Timeout for a single refresh (default: 30s)
}

// Refresher runs Target.Refresh on a cron schedule. A tick that arrives while
// the previous refresh is still running is skipped.
type Refresher struct {
	target  Target
	timeout time.Duration
	cron    *cron.Cron
	entry   cron.EntryID
}

// New creates a stopped Refresher. Call Start to begin ticking.
func New(target Target, cfg Config) (*Refresher, error) {
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	logger := slogLogger{}
	r := &Refresher{
		target:  target,
		timeout: cfg.Timeout,
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}

	id, err := r.cron.AddFunc(cfg.Spec, r.run)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSpec, cfg.Spec, err)
	}
	r.entry = id
	return r, nil
}

// Start begins ticking in the background. It is a no-op if already running.
func (r *Refresher) Start() {
	r.cron.Start()
}

// Next returns the time of the next scheduled refresh, or the zero time if
// the refresher is not running.
func (r *Refresher) Next() time.Time {
	return r.cron.Entry(r.entry).Next
}

// Stop stops ticking and waits for a running refresh to finish or ctx to be done.
func (r *Refresher) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	if err := r.target.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Scheduled refresh failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return
	}
	slog.DebugContext(ctx, "Scheduled refresh completed",
		slog.Duration("elapsed", time.Since(start)))
}

// slogLogger routes cron's own log lines to the default slog logger.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{slog.String("error", err.Error())}, keysAndValues...)...)
}
