// Package scheduler runs the automatic weekly roll-over.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"aquatallyon/internal/application/orchestrators"
	"aquatallyon/internal/application/projections"
)

// DefaultJobTimeout bounds one roll-over, including archive, digest and announcement.
const DefaultJobTimeout = 2 * time.Minute

// Announcer posts the fresh week's report to a chat.
type Announcer interface {
	Send(ctx context.Context, chatID int64, text string, controls *projections.Keyboard) error
}

// Config selects when the roll-over runs and where it is announced.
type Config struct {
	Spec           string // standard five-field cron expression
	AnnounceChatID int64  // 0 skips the announcement
	Timeout        time.Duration
}

// Scheduler wraps a cron runner with a single roll-over job.
type Scheduler struct {
	cron      *cron.Cron
	cfg       Config
	newWeek   orchestrators.NewWeekDeps
	announcer Announcer
}

// New registers the roll-over job without starting it.
// PRE: deps.Guard is non-nil
// POST: Returns an error when cfg.Spec does not parse
func New(cfg Config, deps orchestrators.NewWeekDeps, announcer Announcer) (*Scheduler, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultJobTimeout
	}
	logger := slogLogger{}
	s := &Scheduler{
		cron:      cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		cfg:       cfg,
		newWeek:   deps,
		announcer: announcer,
	}
	if _, err := s.cron.AddFunc(cfg.Spec, s.rollOver); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", cfg.Spec, err)
	}
	return s, nil
}

// Start begins running the job in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("auto_roll_scheduled", "spec", s.cfg.Spec, "announce_chat_id", s.cfg.AnnounceChatID)
}

// Stop prevents further runs and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("auto_roll_stop_timeout")
	}
}

func (s *Scheduler) rollOver() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	if err := s.run(ctx); err != nil {
		slog.Error("auto_roll_failed", "error", err)
	}
}

// run performs one roll-over and announces the new week.
func (s *Scheduler) run(ctx context.Context) error {
	view, err := orchestrators.ExecuteNewWeek(ctx, orchestrators.NewWeekInput{}, s.newWeek)
	if err != nil {
		return fmt.Errorf("new week: %w", err)
	}
	slog.Info("auto_roll_done")

	if s.announcer == nil || s.cfg.AnnounceChatID == 0 {
		return nil
	}
	controls := view.Controls
	if err := s.announcer.Send(ctx, s.cfg.AnnounceChatID, view.Text, &controls); err != nil {
		return fmt.Errorf("announce: %w", err)
	}
	return nil
}

// slogLogger adapts cron's logger to slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron_"+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron_"+msg, append(keysAndValues, "error", err)...)
}
