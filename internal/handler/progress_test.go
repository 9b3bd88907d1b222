package handler

import (
	"testing"
	"time"

	"github.com/zingerhq/zinger/internal/model"
)

func TestPlanProgressCounts(t *testing.T) {
	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	plan := &model.StudyPlan{
		ID:    "p1",
		Topic: "Go",
		Schedule: []model.ScheduleItem{
			{Date: "2024-01-13", Status: model.StatusCompleted},
			{Date: "2024-01-14", Status: model.StatusMissed},
			{Date: "2024-01-14", Status: model.StatusPending}, // past pending counts as missed
			{Date: "2024-01-15", Status: model.StatusPending},
			{Date: "2024-01-16", Status: model.StatusPending},
		},
	}

	p := planProgress(plan, now)
	if p.Completed != 1 || p.Missed != 2 || p.Pending != 2 {
		t.Errorf("counts = completed %d missed %d pending %d, want 1/2/2", p.Completed, p.Missed, p.Pending)
	}
	if p.Percent != 20 {
		t.Errorf("percent = %v, want 20", p.Percent)
	}
}

func TestPlanProgressTodayInWesternZone(t *testing.T) {
	// Morning of Jan 15 in UTC-5. An item dated today must stay pending
	// even though the same instant is already Jan 15 13:00 in UTC.
	zone := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2024, 1, 15, 8, 0, 0, 0, zone)

	plan := &model.StudyPlan{
		ID:    "p1",
		Topic: "Go",
		Schedule: []model.ScheduleItem{
			{Date: "2024-01-15", Status: model.StatusPending},
		},
	}

	p := planProgress(plan, now)
	if p.Missed != 0 || p.Pending != 1 {
		t.Errorf("counts = missed %d pending %d, want 0/1", p.Missed, p.Pending)
	}
}

func TestPlanProgressEmptyPlan(t *testing.T) {
	p := planProgress(&model.StudyPlan{ID: "p1", Topic: "Go"}, time.Now())
	if p.Total != 0 || p.Percent != 0 {
		t.Errorf("empty plan rollup = %+v, want zero totals", p)
	}
}
