package reconcile

import (
	"time"

	"github.com/zingerhq/zinger/internal/model"
)

// DateLayout is the calendar-date form schedule items carry.
const DateLayout = "2006-01-02"

// DueTask is the (topic, tasks) pair handed to the summary dispatcher for
// items due on the reconciliation date.
type DueTask struct {
	Topic string `json:"topic"`
	Tasks string `json:"tasks"`
}

// Result is the outcome of reconciling one plan against a reference date.
type Result struct {
	// Schedule is the item list after status transitions. Only meaningful
	// to persist when Changed is true.
	Schedule []model.ScheduleItem
	// Changed reports whether any item transitioned pending -> missed.
	Changed bool
	// DueToday holds items dated exactly on the reference date, any status.
	DueToday []DueTask
	// MissedCount counts items dated strictly before the reference date
	// whose status is missed after transitions, newly or from prior runs.
	MissedCount int
	// AllCompleted is true when the plan has items and every one is completed.
	AllCompleted bool
	// SkippedItems counts items whose date could not be parsed.
	SkippedItems int
}

// Plan computes status transitions and the due-today set for a single plan.
// Pure: the reference date is injected and nothing is mutated or persisted.
// Comparisons are calendar-day, not timestamp. Items already completed are
// never touched, and items dated today or later are never transitioned, so
// running twice on the same date is a no-op after the first run.
func Plan(plan model.StudyPlan, today time.Time) Result {
	day := startOfDay(today)

	res := Result{
		Schedule:     make([]model.ScheduleItem, len(plan.Schedule)),
		AllCompleted: len(plan.Schedule) > 0,
	}
	copy(res.Schedule, plan.Schedule)

	for i := range res.Schedule {
		item := &res.Schedule[i]

		itemDate, err := time.ParseInLocation(DateLayout, item.Date, day.Location())
		if err != nil {
			res.SkippedItems++
			res.AllCompleted = false
			continue
		}

		if itemDate.Before(day) && item.Status == model.StatusPending {
			item.Status = model.StatusMissed
			res.Changed = true
		}

		if itemDate.Equal(day) {
			res.DueToday = append(res.DueToday, DueTask{Topic: item.Topic, Tasks: item.Tasks})
		}

		if itemDate.Before(day) && item.Status == model.StatusMissed {
			res.MissedCount++
		}

		if item.Status != model.StatusCompleted {
			res.AllCompleted = false
		}
	}

	return res
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
