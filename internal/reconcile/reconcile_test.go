package reconcile

import (
	"testing"
	"time"

	"github.com/zingerhq/zinger/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPastPendingBecomesMissed(t *testing.T) {
	plan := model.StudyPlan{
		ID: "p1",
		Schedule: []model.ScheduleItem{
			{ID: "a", Date: "2024-01-10", Status: model.StatusPending},
			{ID: "b", Date: "2024-01-14", Status: model.StatusPending},
		},
	}

	res := Plan(plan, day(2024, 1, 15))
	if !res.Changed {
		t.Error("expected Changed")
	}
	for _, item := range res.Schedule {
		if item.Status != model.StatusMissed {
			t.Errorf("item %s status = %q, want %q", item.ID, item.Status, model.StatusMissed)
		}
	}
	if res.MissedCount != 2 {
		t.Errorf("MissedCount = %d, want 2", res.MissedCount)
	}
}

func TestCompletedNeverAltered(t *testing.T) {
	plan := model.StudyPlan{
		ID: "p1",
		Schedule: []model.ScheduleItem{
			{ID: "a", Date: "2024-01-01", Status: model.StatusCompleted},
			{ID: "b", Date: "2024-01-15", Status: model.StatusCompleted},
			{ID: "c", Date: "2024-02-01", Status: model.StatusCompleted},
		},
	}

	res := Plan(plan, day(2024, 1, 15))
	if res.Changed {
		t.Error("expected no change")
	}
	for _, item := range res.Schedule {
		if item.Status != model.StatusCompleted {
			t.Errorf("item %s status = %q, want completed", item.ID, item.Status)
		}
	}
	if !res.AllCompleted {
		t.Error("expected AllCompleted")
	}
	if res.MissedCount != 0 {
		t.Errorf("MissedCount = %d, want 0", res.MissedCount)
	}
}

func TestTodayAndFutureUntouched(t *testing.T) {
	plan := model.StudyPlan{
		ID: "p1",
		Schedule: []model.ScheduleItem{
			{ID: "a", Date: "2024-01-15", Status: model.StatusPending},
			{ID: "b", Date: "2024-01-16", Status: model.StatusPending},
		},
	}

	res := Plan(plan, day(2024, 1, 15))
	if res.Changed {
		t.Error("expected no change")
	}
	for _, item := range res.Schedule {
		if item.Status != model.StatusPending {
			t.Errorf("item %s status = %q, want pending", item.ID, item.Status)
		}
	}
}

func TestSpecScenario(t *testing.T) {
	// yesterday pending -> missed, today pending -> due set, tomorrow untouched.
	plan := model.StudyPlan{
		ID: "p1",
		Schedule: []model.ScheduleItem{
			{ID: "a", Date: "2024-01-14", Topic: "Algebra", Tasks: "Ch. 1", Status: model.StatusPending},
			{ID: "b", Date: "2024-01-15", Topic: "Algebra", Tasks: "Ch. 2", Status: model.StatusPending},
			{ID: "c", Date: "2024-01-16", Topic: "Algebra", Tasks: "Ch. 3", Status: model.StatusPending},
		},
	}

	res := Plan(plan, day(2024, 1, 15))
	if res.Schedule[0].Status != model.StatusMissed {
		t.Errorf("item a status = %q, want missed", res.Schedule[0].Status)
	}
	if res.Schedule[1].Status != model.StatusPending {
		t.Errorf("item b status = %q, want pending", res.Schedule[1].Status)
	}
	if res.Schedule[2].Status != model.StatusPending {
		t.Errorf("item c status = %q, want pending", res.Schedule[2].Status)
	}
	if res.MissedCount != 1 {
		t.Errorf("MissedCount = %d, want 1", res.MissedCount)
	}
	if len(res.DueToday) != 1 {
		t.Fatalf("DueToday len = %d, want 1", len(res.DueToday))
	}
	if res.DueToday[0].Tasks != "Ch. 2" {
		t.Errorf("DueToday tasks = %q, want %q", res.DueToday[0].Tasks, "Ch. 2")
	}
}

func TestIdempotent(t *testing.T) {
	plan := model.StudyPlan{
		ID: "p1",
		Schedule: []model.ScheduleItem{
			{ID: "a", Date: "2024-01-10", Status: model.StatusPending},
			{ID: "b", Date: "2024-01-15", Status: model.StatusPending},
		},
	}
	today := day(2024, 1, 15)

	first := Plan(plan, today)
	plan.Schedule = first.Schedule
	second := Plan(plan, today)

	if second.Changed {
		t.Error("second run should not change anything")
	}
	for i := range first.Schedule {
		if first.Schedule[i].Status != second.Schedule[i].Status {
			t.Errorf("item %d status differs across runs: %q vs %q",
				i, first.Schedule[i].Status, second.Schedule[i].Status)
		}
	}
	if second.MissedCount != first.MissedCount {
		t.Errorf("MissedCount differs: %d vs %d", first.MissedCount, second.MissedCount)
	}
	if len(second.DueToday) != len(first.DueToday) {
		t.Errorf("DueToday differs: %d vs %d", len(first.DueToday), len(second.DueToday))
	}
}

func TestAlreadyMissedNoChange(t *testing.T) {
	plan := model.StudyPlan{
		ID: "p1",
		Schedule: []model.ScheduleItem{
			{ID: "a", Date: "2024-01-10", Status: model.StatusMissed},
			{ID: "b", Date: "2024-01-12", Status: model.StatusMissed},
		},
	}

	res := Plan(plan, day(2024, 1, 15))
	if res.Changed {
		t.Error("expected no change for already-missed items")
	}
	// Previously-missed past items still count toward the warning total.
	if res.MissedCount != 2 {
		t.Errorf("MissedCount = %d, want 2", res.MissedCount)
	}
}

func TestDueTodayRegardlessOfStatus(t *testing.T) {
	plan := model.StudyPlan{
		ID: "p1",
		Schedule: []model.ScheduleItem{
			{ID: "a", Date: "2024-01-15", Status: model.StatusCompleted},
			{ID: "b", Date: "2024-01-15", Status: model.StatusPending},
		},
	}

	res := Plan(plan, day(2024, 1, 15))
	if len(res.DueToday) != 2 {
		t.Errorf("DueToday len = %d, want 2", len(res.DueToday))
	}
}

func TestEmptyPlan(t *testing.T) {
	res := Plan(model.StudyPlan{ID: "p1"}, day(2024, 1, 15))
	if res.Changed {
		t.Error("expected no change")
	}
	if len(res.DueToday) != 0 {
		t.Error("expected empty due-today set")
	}
	if res.MissedCount != 0 {
		t.Error("expected zero missed")
	}
	// An empty plan is never "all completed", so auto-delete must not fire.
	if res.AllCompleted {
		t.Error("empty plan should not report AllCompleted")
	}
}

func TestMalformedDateSkipped(t *testing.T) {
	plan := model.StudyPlan{
		ID: "p1",
		Schedule: []model.ScheduleItem{
			{ID: "a", Date: "not-a-date", Status: model.StatusPending},
			{ID: "b", Date: "2024-01-10", Status: model.StatusPending},
		},
	}

	res := Plan(plan, day(2024, 1, 15))
	if res.SkippedItems != 1 {
		t.Errorf("SkippedItems = %d, want 1", res.SkippedItems)
	}
	if res.Schedule[0].Status != model.StatusPending {
		t.Errorf("malformed item status = %q, want untouched pending", res.Schedule[0].Status)
	}
	if res.Schedule[1].Status != model.StatusMissed {
		t.Errorf("valid item status = %q, want missed", res.Schedule[1].Status)
	}
}

func TestAllCompletedRequiresEveryItem(t *testing.T) {
	plan := model.StudyPlan{
		ID: "p1",
		Schedule: []model.ScheduleItem{
			{ID: "a", Date: "2024-01-10", Status: model.StatusCompleted},
			{ID: "b", Date: "2024-01-12", Status: model.StatusMissed},
		},
	}

	res := Plan(plan, day(2024, 1, 15))
	if res.AllCompleted {
		t.Error("expected AllCompleted false with a missed item")
	}
}

func TestInputPlanNotMutated(t *testing.T) {
	plan := model.StudyPlan{
		ID: "p1",
		Schedule: []model.ScheduleItem{
			{ID: "a", Date: "2024-01-10", Status: model.StatusPending},
		},
	}

	Plan(plan, day(2024, 1, 15))
	if plan.Schedule[0].Status != model.StatusPending {
		t.Errorf("input plan mutated: status = %q", plan.Schedule[0].Status)
	}
}
