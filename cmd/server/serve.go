package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"aquatallyon/internal/adapters/chat"
	"aquatallyon/internal/adapters/email"
	web "aquatallyon/internal/adapters/http"
	"aquatallyon/internal/adapters/perf"
	"aquatallyon/internal/adapters/ratelimit"
	"aquatallyon/internal/adapters/storage"
	attendanceStore "aquatallyon/internal/adapters/storage/attendance"
	auditStore "aquatallyon/internal/adapters/storage/audit"
	"aquatallyon/internal/adapters/telegram"
	"aquatallyon/internal/application/orchestrators"
	"aquatallyon/internal/application/scheduler"
	"aquatallyon/internal/application/weekstate"
	"aquatallyon/internal/domain/week"
	"aquatallyon/internal/platform/config"
)

// shutdownTimeout bounds the HTTP drain and a running cron job on exit.
const shutdownTimeout = 10 * time.Second

// adminRequestsPerMinute is the per-IP limit on the status server.
const adminRequestsPerMinute = 120

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, the status server and the optional roll-over schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.RequireBot(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg)
		},
	}
}

// serve wires every component around one guarded week and blocks until ctx is done.
func serve(ctx context.Context, cfg config.Config) error {
	db, err := openDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)
	attendance := attendanceStore.NewSQLiteStore(timedDB)
	audits := auditStore.NewSQLiteStore(timedDB)

	guard := weekstate.New(week.New(time.Now(), week.DefaultSchedule()))
	if cfg.RestoreOnStart {
		restored, err := orchestrators.ExecuteRestoreWeek(ctx, orchestrators.RestoreWeekDeps{Guard: guard, StateStore: attendance})
		if err != nil {
			return fmt.Errorf("restore week: %w", err)
		}
		slog.Info("week_restore", "restored", restored)
	}
	snap := guard.Snapshot()
	slog.Info("week_ready", "start", snap.StartDate, "end", snap.EndDate, "sessions", len(snap.Sessions))

	var policy chat.Policy = chat.AllowAll{}
	if len(cfg.OrganizerIDs) > 0 {
		policy = chat.NewAllowlist(cfg.OrganizerIDs...)
	} else {
		slog.Warn("organizers_unrestricted", "hint", "set AQUATALLYON_ORGANIZER_IDS to limit schedule changes")
	}

	var digest orchestrators.DigestMailer
	if len(cfg.DigestTo) > 0 {
		var transport email.Transport
		if cfg.ResendKey != "" {
			transport = email.NewResendTransport(cfg.ResendKey, cfg.DigestFrom)
			slog.Info("digest_configured", "provider", "resend", "recipients", len(cfg.DigestTo))
		} else {
			transport = &email.NoopTransport{}
			slog.Warn("digest_noop", "hint", "set AQUATALLYON_RESEND_KEY for real delivery")
		}
		digest = email.NewDigest(transport, cfg.DigestTo)
	}

	bot, err := telegram.Connect(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("connect telegram: %w", err)
	}
	messenger := telegram.NewMessenger(bot)

	pressLimiter := ratelimit.New(cfg.PressRate, cfg.PressInterval)
	router := chat.NewRouter(chat.Deps{
		Guard:         guard,
		Messenger:     messenger,
		Sink:          attendance,
		StateStore:    attendance,
		Archive:       attendance,
		Digest:        digest,
		Audit:         audits,
		Policy:        policy,
		Limiter:       pressLimiter,
		Collector:     collector,
		UpdateTimeout: cfg.UpdateTimeout,
		SlowUpdateMs:  cfg.SlowUpdateMs,
	})

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		pressLimiter.Run(ctx)
	}()

	if cfg.AutoRollCron != "" {
		sched, err := scheduler.New(scheduler.Config{
			Spec:           cfg.AutoRollCron,
			AnnounceChatID: cfg.AnnounceChatID,
		}, orchestrators.NewWeekDeps{
			Guard:   guard,
			Archive: attendance,
			Digest:  digest,
			Audit:   audits,
		}, messenger)
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	if cfg.HTTPAddr != "" {
		csrfKey, err := cfg.CSRFKey()
		if err != nil {
			return err
		}
		srv := &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: web.NewMux(web.Deps{
				Guard:         guard,
				Attendance:    attendance,
				Audit:         audits,
				Digest:        digest,
				Collector:     collector,
				Limiter:       ratelimit.New(adminRequestsPerMinute, time.Minute),
				AdminHash:     []byte(cfg.AdminPasswordHash),
				CSRFKey:       csrfKey,
				SlowRequestMs: cfg.SlowUpdateMs,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("http_listening", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http_failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("http_shutdown", "error", err)
			}
		}()
	}

	slog.Info("aquatallyon_starting", "version", version, "schema", storage.LatestSchemaVersion(), "db", cfg.DBPath)
	err = telegram.NewPoller(bot, router).Run(ctx)
	slog.Info("aquatallyon_stopping")
	return err
}
