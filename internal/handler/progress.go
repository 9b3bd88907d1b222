package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/zingerhq/zinger/internal/auth"
	"github.com/zingerhq/zinger/internal/model"
	"github.com/zingerhq/zinger/internal/reconcile"
	"github.com/zingerhq/zinger/internal/store"
)

type ProgressHandler struct {
	planStore *store.PlanStore
	logger    *slog.Logger
}

func NewProgressHandler(ps *store.PlanStore, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{planStore: ps, logger: logger}
}

// PlanProgress is the per-plan rollup shown on the progress page.
type PlanProgress struct {
	PlanID    string  `json:"plan_id"`
	Topic     string  `json:"topic"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Missed    int     `json:"missed"`
	Pending   int     `json:"pending"`
	Percent   float64 `json:"percent"`
}

// Get handles GET /api/progress. A past item still marked pending counts
// as missed here even if the daily job hasn't swept it yet, so the page
// never shows stale numbers.
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	plans, err := h.planStore.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list plans for progress", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load progress"})
		return
	}

	progress := make([]PlanProgress, 0, len(plans))
	for i := range plans {
		progress = append(progress, planProgress(&plans[i], time.Now()))
	}
	writeJSON(w, http.StatusOK, progress)
}

func planProgress(plan *model.StudyPlan, now time.Time) PlanProgress {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	p := PlanProgress{PlanID: plan.ID, Topic: plan.Topic, Total: len(plan.Schedule)}
	for _, item := range plan.Schedule {
		switch item.Status {
		case model.StatusCompleted:
			p.Completed++
		case model.StatusMissed:
			p.Missed++
		default:
			itemDate, err := time.ParseInLocation(reconcile.DateLayout, item.Date, now.Location())
			if err == nil && itemDate.Before(today) {
				p.Missed++
			} else {
				p.Pending++
			}
		}
	}
	if p.Total > 0 {
		p.Percent = float64(p.Completed) / float64(p.Total) * 100
	}
	return p
}
