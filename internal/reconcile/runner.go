package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"github.com/zingerhq/zinger/internal/model"
	"github.com/zingerhq/zinger/internal/store"
)

// SummaryDispatcher sends a user their due-today task list. Best-effort: a
// dispatch failure is logged and recorded but never blocks persistence or
// notification creation.
type SummaryDispatcher interface {
	SendDailySummary(ctx context.Context, email, name string, tasks []DueTask) error
}

// NotificationCallback is invoked for each notification the run actually
// creates, after it is stored. Used to fan out push and websocket events.
type NotificationCallback func(n *model.Notification)

// Runner scans every study plan once per invocation and brings item
// statuses up to date with the passage of time.
type Runner struct {
	plans          *store.PlanStore
	users          *store.UserStore
	notifications  *store.NotificationStore
	dispatcher     SummaryDispatcher
	onNotification NotificationCallback
	logger         *slog.Logger
}

// NewRunner creates a reconciliation runner. dispatcher and onNotification
// may be nil.
func NewRunner(
	plans *store.PlanStore,
	users *store.UserStore,
	notifications *store.NotificationStore,
	dispatcher SummaryDispatcher,
	onNotification NotificationCallback,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		plans:          plans,
		users:          users,
		notifications:  notifications,
		dispatcher:     dispatcher,
		onNotification: onNotification,
		logger:         logger,
	}
}

// Failure records one plan that could not be fully processed.
type Failure struct {
	PlanID string
	Err    error
}

// Report summarizes a reconciliation run.
type Report struct {
	Date                 string    `json:"date"`
	PlansScanned         int       `json:"plans_scanned"`
	PlansUpdated         int       `json:"plans_updated"`
	PlansDeleted         int       `json:"plans_deleted"`
	NotificationsCreated int       `json:"notifications_created"`
	SummariesSent        int       `json:"summaries_sent"`
	Failures             []Failure `json:"-"`
}

// Err combines all per-plan failures into one error, or nil if none.
func (rep *Report) Err() error {
	var errs []error
	for _, f := range rep.Failures {
		errs = append(errs, fmt.Errorf("plan %s: %w", f.PlanID, f.Err))
	}
	return multierr.Combine(errs...)
}

// Run reconciles every stored plan against the injected date. Only a plan
// enumeration failure aborts the run; per-plan failures are isolated,
// logged with plan identity, and aggregated in the report. The run may be
// cancelled between plans without corrupting state.
func (r *Runner) Run(ctx context.Context, today time.Time) (*Report, error) {
	plans, err := r.plans.ListAll()
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	rep := &Report{Date: today.Format(DateLayout)}

	for i := range plans {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.PlansScanned++
		if err := r.processPlan(ctx, &plans[i], today, rep); err != nil {
			r.logger.Error("reconcile plan", "plan_id", plans[i].ID, "error", err)
			rep.Failures = append(rep.Failures, Failure{PlanID: plans[i].ID, Err: err})
		}
	}

	r.logger.Info("reconciliation run complete",
		"date", rep.Date,
		"scanned", rep.PlansScanned,
		"updated", rep.PlansUpdated,
		"deleted", rep.PlansDeleted,
		"notifications", rep.NotificationsCreated,
		"summaries", rep.SummariesSent,
		"failures", len(rep.Failures),
	)

	return rep, nil
}

func (r *Runner) processPlan(ctx context.Context, plan *model.StudyPlan, today time.Time, rep *Report) error {
	res := Plan(*plan, today)

	if res.SkippedItems > 0 {
		r.logger.Warn("skipped items with malformed dates", "plan_id", plan.ID, "count", res.SkippedItems)
	}

	// A fully-completed plan flagged for auto-delete is removed instead of
	// updated, and emits no dispatch or notifications this run.
	if res.AllCompleted && plan.AutoDeleteOnCompletion {
		if err := r.plans.Delete(plan.ID); err != nil {
			return err
		}
		if err := r.notifications.DeleteByPlan(plan.ID); err != nil {
			r.logger.Warn("clean up notifications for deleted plan", "plan_id", plan.ID, "error", err)
		}
		rep.PlansDeleted++
		return nil
	}

	if res.Changed {
		if err := r.plans.UpdateSchedule(plan.ID, res.Schedule); err != nil {
			return err
		}
		rep.PlansUpdated++
	}

	var errs error

	if len(res.DueToday) > 0 && r.dispatcher != nil {
		if err := r.dispatchSummary(ctx, plan, res.DueToday); err != nil {
			r.logger.Warn("summary dispatch", "plan_id", plan.ID, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("summary dispatch: %w", err))
		} else {
			rep.SummariesSent++
		}
	}

	dedupDate := today.Format(DateLayout)

	if res.MissedCount > 0 {
		msg := fmt.Sprintf("You missed %d task(s) in %q.", res.MissedCount, plan.Topic)
		if err := r.createNotification(plan, msg, model.NotifTypeWarning, dedupDate, rep); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("warning notification: %w", err))
		}
	}

	if len(res.DueToday) > 0 {
		msg := fmt.Sprintf("You have %d task(s) due today in %q.", len(res.DueToday), plan.Topic)
		if err := r.createNotification(plan, msg, model.NotifTypeReminder, dedupDate, rep); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reminder notification: %w", err))
		}
	}

	return errs
}

func (r *Runner) dispatchSummary(ctx context.Context, plan *model.StudyPlan, due []DueTask) error {
	user, err := r.users.GetByID(plan.UserID)
	if err != nil {
		return fmt.Errorf("look up user %d: %w", plan.UserID, err)
	}
	if user == nil {
		return fmt.Errorf("plan owner %d not found", plan.UserID)
	}
	return r.dispatcher.SendDailySummary(ctx, user.Email, user.DisplayName(), due)
}

func (r *Runner) createNotification(plan *model.StudyPlan, msg, notifType, dedupDate string, rep *Report) error {
	n, created, err := r.notifications.Create(plan.UserID, plan.ID, msg, notifType, dedupDate)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	rep.NotificationsCreated++
	if r.onNotification != nil {
		r.onNotification(n)
	}
	return nil
}
