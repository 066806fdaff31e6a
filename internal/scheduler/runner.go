package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/oraclemonitor/internal/domain"
	"github.com/hamed0406/oraclemonitor/internal/monitor"
	"github.com/hamed0406/oraclemonitor/internal/notify"
	"github.com/hamed0406/oraclemonitor/internal/repo"
	"github.com/hamed0406/oraclemonitor/internal/source"
)

type RunnerConfig struct {
	Policy    monitor.Policy
	Interval  time.Duration
	Validator string
	// Once makes Run execute a single tick and return.
	Once bool
}

// Runner drives the miss monitor: sample, decide, alert, sleep.
// It is the only owner of the monitor state.
type Runner struct {
	logger   *zap.Logger
	source   source.CounterSource
	notifier notify.Notifier
	status   repo.StatusWriter
	cfg      RunnerConfig

	// Now is the clock; tests replace it.
	Now func() time.Time

	state  monitor.State
	seeded bool
	snap   domain.Snapshot
}

func NewRunner(
	logger *zap.Logger,
	src source.CounterSource,
	n notify.Notifier,
	status repo.StatusWriter,
	cfg RunnerConfig,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		logger:   logger,
		source:   src,
		notifier: n,
		status:   status,
		cfg:      cfg,
		Now:      time.Now,
		snap:     domain.Snapshot{Validator: cfg.Validator},
	}
}

// State returns the current monitor state and whether it has been seeded.
func (r *Runner) State() (monitor.State, bool) {
	return r.state, r.seeded
}

// Run seeds the state if needed, then ticks every Interval until ctx is
// cancelled. Tick errors are logged and never stop the loop. In Once mode
// the error of the single tick is returned.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("monitor_started",
		zap.String("validator", r.cfg.Validator),
		zap.Int64("miss_tolerance", r.cfg.Policy.Tolerance),
		zap.Duration("miss_tolerance_period", r.cfg.Policy.TolerancePeriod),
		zap.Duration("alert_cooldown", r.cfg.Policy.Cooldown),
		zap.Duration("interval", r.cfg.Interval),
		zap.Bool("once", r.cfg.Once),
	)

	// Startup seeding. A failure here waits out a full interval like any
	// other failed tick.
	if !r.seeded {
		if err := r.Tick(ctx); err != nil {
			r.logTickError(err)
			if r.cfg.Once {
				return err
			}
			if err := r.sleep(ctx); err != nil {
				return err
			}
		}
	}

	for {
		err := r.Tick(ctx)
		if err != nil {
			r.logTickError(err)
		}
		if r.cfg.Once {
			return err
		}
		if err := r.sleep(ctx); err != nil {
			return err
		}
	}
}

func (r *Runner) sleep(ctx context.Context) error {
	t := time.NewTimer(r.cfg.Interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		r.logger.Info("monitor_stopped")
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Tick samples the counter once and acts on the decision. The first
// successful sample only seeds the state.
func (r *Runner) Tick(ctx context.Context) error {
	r.logger.Debug("running_checks")
	count, err := r.source.Fetch(ctx)
	now := r.Now()
	r.snap.Ticks++
	if err != nil {
		r.snap.FetchErrors++
		r.snap.LastError = err.Error()
		r.publish(ctx)
		return &FetchError{Err: err}
	}
	r.snap.LastCount = count
	r.snap.LastSampleAt = now
	r.snap.LastError = ""

	if !r.seeded {
		r.state = monitor.Seed(count, now)
		r.seeded = true
		r.logger.Info("monitor_seeded", zap.Int64("miss_counter", count))
		r.publish(ctx)
		return nil
	}

	prev := r.state
	next, d := r.cfg.Policy.Sample(prev, count, now)
	r.state = next

	var sendErr error
	switch {
	case d.Alert:
		r.snap.Alerts++
		sendErr = r.sendAlert(ctx, count, d.MissDifference, now)
	case d.Suppressed:
		r.snap.Suppressed++
		r.logger.Info("alert_skipped_cooldown",
			zap.Int64("miss_difference", d.MissDifference),
			zap.Time("last_alert", prev.LastAlert),
		)
	}
	if d.Refreshed {
		r.logger.Info("window_refreshed",
			zap.Int64("miss_counter", count),
			zap.Int64("missed_in_window", count-next.Baseline),
		)
	}
	if d.Reset {
		r.logger.Info("window_reset",
			zap.Int64("miss_counter", count),
			zap.Int64("missed_before_reset", count-prev.Baseline),
		)
	}
	if count < prev.LastSampled {
		r.logger.Warn("miss_counter_decreased",
			zap.Int64("previous", prev.LastSampled),
			zap.Int64("current", count),
		)
	}

	r.publish(ctx)
	return sendErr
}

func (r *Runner) sendAlert(ctx context.Context, count, diff int64, now time.Time) error {
	r.logger.Warn("missing_too_many_price_updates", zap.Int64("miss_difference", diff))

	ev := domain.AlertEvent{MissDifference: diff, Count: count, SentAt: now}
	err := r.notifier.Send(ctx, notify.AlertText(diff))
	if err != nil {
		ev.Error = err.Error()
	} else {
		ev.Delivered = true
		r.logger.Info("alert_sent", zap.Int64("miss_difference", diff))
	}
	if r.status != nil {
		if rerr := r.status.RecordAlert(ctx, ev); rerr != nil {
			r.logger.Warn("status_record_alert_error", zap.Error(rerr))
		}
	}
	if err != nil {
		return &NotifyError{MissDifference: diff, Err: err}
	}
	return nil
}

func (r *Runner) publish(ctx context.Context) {
	if r.status == nil {
		return
	}
	r.snap.Seeded = r.seeded
	r.snap.State = r.state
	if err := r.status.Publish(ctx, r.snap); err != nil {
		r.logger.Warn("status_publish_error", zap.Error(err))
	}
}

func (r *Runner) logTickError(err error) {
	var fe *FetchError
	var ne *NotifyError
	switch {
	case errors.As(err, &fe):
		r.logger.Warn("tick_fetch_error", zap.Error(fe.Err))
	case errors.As(err, &ne):
		r.logger.Error("alert_delivery_failed",
			zap.Int64("miss_difference", ne.MissDifference),
			zap.Error(ne.Err),
		)
	default:
		r.logger.Error("tick_error", zap.Error(err))
	}
}
