// Package app wires configuration, clock, runner, notification channels,
// history and retention into the scheduler lifecycle:
//
//	Idle -> Waiting(next instant) -> Executing(batch) -> Idle ...
//
// The loop runs until the context is canceled; cancellation exits cleanly.
package app

import (
	"context"
	"time"

	"tickerd/internal/config"
	"tickerd/internal/engine"
	"tickerd/internal/history"
	"tickerd/internal/notify"
	"tickerd/internal/report"
	"tickerd/internal/retention"
	"tickerd/internal/runner"
	"tickerd/internal/schedule"
	"tickerd/pkg/logx"
)

type App struct {
	log logx.Logger

	subjects     []string
	times        []schedule.TriggerTime
	loc          *time.Location
	skipWeekends bool

	run        *runner.Runner
	dispatcher *notify.Dispatcher
	store      history.Store
	sweeper    *retention.Service

	// now is swappable in tests.
	now func() time.Time
}

// New validates configuration and builds the full component graph.
// Configuration errors here are fatal to startup by design.
func New(cfg *config.Config, eng engine.Engine, log logx.Logger) (*App, error) {
	loc, err := schedule.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, err
	}

	times := schedule.ParseTriggerTimes(cfg.Schedule.Times, log.With(logx.String("comp", "schedule")))
	if len(times) == 0 {
		return nil, errNoTriggerTimes
	}

	writer := report.NewWriter(cfg.ResultsDir)
	run := runner.New(eng, writer, log.With(logx.String("comp", "runner")))

	email := notify.NewEmailChannel(notify.EmailConfig{
		Enabled:  cfg.Email.Enabled,
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		To:       cfg.Email.To,
		UseSSL:   cfg.Email.UseSSL,
	}, log.With(logx.String("comp", "email")))

	messaging := notify.NewMessagingChannel(notify.MessagingConfig{
		Enabled:     cfg.Messaging.Enabled,
		AccessToken: cfg.Messaging.AccessToken,
		SenderID:    cfg.Messaging.SenderID,
		To:          cfg.Messaging.To,
		BaseURL:     cfg.Messaging.BaseURL,
	}, log.With(logx.String("comp", "messaging")))

	dispatcher := notify.NewDispatcher(email, messaging, log.With(logx.String("comp", "notify")))

	store, err := history.Open(history.Config{
		Driver:      cfg.History.Driver,
		Path:        cfg.History.Path,
		BusyTimeout: cfg.HistoryBusyTimeout(),
	}, log.With(logx.String("comp", "history")))
	if err != nil {
		return nil, err
	}
	if store != nil {
		log.Info("run history enabled", logx.String("driver", cfg.History.Driver))
	}

	sweeper := retention.New(retention.Config{
		Enabled:    cfg.Retention.Enabled,
		ResultsDir: cfg.ResultsDir,
		MaxAgeDays: cfg.Retention.MaxAgeDays,
		At:         cfg.Retention.At,
		Location:   loc,
	}, log.With(logx.String("comp", "retention")))

	return &App{
		log:          log,
		subjects:     cfg.TickerList(),
		times:        times,
		loc:          loc,
		skipWeekends: cfg.Schedule.SkipWeekends,
		run:          run,
		dispatcher:   dispatcher,
		store:        store,
		sweeper:      sweeper,
		now:          time.Now,
	}, nil
}

// Start brings up background services (retention).
func (a *App) Start(ctx context.Context) error {
	return a.sweeper.Start(ctx)
}

// Run waits for each next trigger instant and executes a batch, forever,
// until ctx is canceled. Cancellation is a clean exit, not an error.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("scheduler started",
		logx.Int("subjects", len(a.subjects)),
		logx.Int("trigger_times", len(a.times)),
		logx.String("tz", a.loc.String()),
		logx.Bool("skip_weekends", a.skipWeekends))

	for {
		next, ok := schedule.NextTrigger(a.now().In(a.loc), a.times, a.loc, a.skipWeekends)
		if !ok {
			return errNoTriggerTimes
		}
		a.log.Info("next run scheduled", logx.Time("at", next))

		if err := a.waitUntil(ctx, next); err != nil {
			a.log.Info("scheduler stopped")
			return nil
		}
		a.executeBatch(ctx, next)
	}
}

// Stop tears down background services and closes the history store.
func (a *App) Stop(ctx context.Context) error {
	a.sweeper.Stop(ctx)
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// waitUntil blocks until the target instant or context cancellation.
func (a *App) waitUntil(ctx context.Context, target time.Time) error {
	d := target.Sub(a.now())
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// executeBatch runs every subject sequentially, dispatches notifications for
// the full result set regardless of the success/failure mix, and records run
// history best-effort.
func (a *App) executeBatch(ctx context.Context, runTime time.Time) {
	a.log.Info("executing batch",
		logx.Int("subjects", len(a.subjects)),
		logx.Time("run_time", runTime))

	started := a.now()
	results := a.run.RunBatch(ctx, a.subjects, runTime)
	a.dispatcher.Dispatch(ctx, runTime, results)
	a.appendHistory(ctx, results, started)
}

func (a *App) appendHistory(ctx context.Context, results []runner.RunResult, started time.Time) {
	if a.store == nil {
		return
	}
	tookMS := a.now().Sub(started).Milliseconds()
	for _, res := range results {
		rec := history.RunRecord{
			At:           res.RunTimestamp,
			Subject:      res.Subject,
			AnalysisDate: res.AnalysisDate,
			OK:           res.Success(),
			Decision:     res.Decision,
			ReportDir:    res.ReportDir,
			Error:        res.Err,
			TookMS:       tookMS,
		}
		if err := a.store.AppendRun(ctx, rec); err != nil {
			a.log.Warn("failed appending run history", logx.String("subject", res.Subject), logx.Err(err))
		}
	}
}
