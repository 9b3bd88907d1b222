package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zingerhq/zinger/internal/ai"
	"github.com/zingerhq/zinger/internal/auth"
	"github.com/zingerhq/zinger/internal/model"
	"github.com/zingerhq/zinger/internal/reconcile"
	"github.com/zingerhq/zinger/internal/store"
	"github.com/zingerhq/zinger/internal/websocket"
)

type PlanHandler struct {
	planStore         *store.PlanStore
	notificationStore *store.NotificationStore
	aiClient          *ai.Client
	hub               *websocket.Hub
	logger            *slog.Logger
}

func NewPlanHandler(
	ps *store.PlanStore,
	ns *store.NotificationStore,
	ac *ai.Client,
	hub *websocket.Hub,
	logger *slog.Logger,
) *PlanHandler {
	return &PlanHandler{
		planStore:         ps,
		notificationStore: ns,
		aiClient:          ac,
		hub:               hub,
		logger:            logger,
	}
}

func (h *PlanHandler) notify(userID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.SendToUser(userID, msg)
	}
}

// getOwned loads a plan by the path id and verifies the requester owns it.
// Writes the error response itself and returns nil when the caller should
// stop.
func (h *PlanHandler) getOwned(w http.ResponseWriter, r *http.Request) *model.StudyPlan {
	id := r.PathValue("id")
	plan, err := h.planStore.GetByID(id)
	if err != nil {
		h.logger.Error("get plan", "plan_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get plan"})
		return nil
	}
	if plan == nil || plan.UserID != auth.UserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
		return nil
	}
	return plan
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.planStore.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list plans", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list plans"})
		return
	}
	if plans == nil {
		plans = []model.StudyPlan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	plan := h.getOwned(w, r)
	if plan == nil {
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

type planRequest struct {
	Topic      string               `json:"topic"`
	Notes      string               `json:"notes"`
	AutoDelete bool                 `json:"auto_delete"`
	Schedule   []model.ScheduleItem `json:"schedule"`
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "topic is required"})
		return
	}
	if len(req.Schedule) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "schedule must have at least one item"})
		return
	}
	for i, item := range req.Schedule {
		if _, err := time.Parse(reconcile.DateLayout, item.Date); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "schedule item dates must be YYYY-MM-DD"})
			return
		}
		if item.Status != "" && !model.ValidStatus(item.Status) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item status"})
			return
		}
		req.Schedule[i].Topic = strings.TrimSpace(item.Topic)
	}

	plan, err := h.planStore.Create(auth.UserID(r.Context()), req.Topic, req.Notes, req.AutoDelete, req.Schedule)
	if err != nil {
		h.logger.Error("create plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create plan"})
		return
	}

	h.notify(plan.UserID, websocket.NewMessage("plan", "created", plan.ID, nil))

	writeJSON(w, http.StatusCreated, plan)
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	plan := h.getOwned(w, r)
	if plan == nil {
		return
	}

	if err := h.planStore.Delete(plan.ID); err != nil {
		h.logger.Error("delete plan", "plan_id", plan.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete plan"})
		return
	}
	if err := h.notificationStore.DeleteByPlan(plan.ID); err != nil {
		h.logger.Error("delete plan notifications", "plan_id", plan.ID, "error", err)
	}

	h.notify(plan.UserID, websocket.NewMessage("plan", "deleted", plan.ID, nil))

	w.WriteHeader(http.StatusNoContent)
}

type itemStatusRequest struct {
	Status string `json:"status"`
}

// SetItemStatus handles PUT /api/plans/{id}/items/{itemID}/status. Any
// transition is allowed here, including missed back to pending or
// completed; only the clock-driven job restricts itself to pending items.
func (h *PlanHandler) SetItemStatus(w http.ResponseWriter, r *http.Request) {
	plan := h.getOwned(w, r)
	if plan == nil {
		return
	}

	var req itemStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if !model.ValidStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be pending, completed, or missed"})
		return
	}

	updated, err := h.planStore.SetItemStatus(plan.ID, r.PathValue("itemID"), req.Status)
	if err != nil {
		h.logger.Error("set item status", "plan_id", plan.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update item"})
		return
	}
	if updated == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
		return
	}

	h.notify(plan.UserID, websocket.NewMessage("plan", "updated", plan.ID, nil))

	writeJSON(w, http.StatusOK, updated)
}

type autoDeleteRequest struct {
	AutoDelete bool `json:"auto_delete"`
}

func (h *PlanHandler) SetAutoDelete(w http.ResponseWriter, r *http.Request) {
	plan := h.getOwned(w, r)
	if plan == nil {
		return
	}

	var req autoDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	updated, err := h.planStore.SetAutoDelete(plan.ID, req.AutoDelete)
	if err != nil {
		h.logger.Error("set auto delete", "plan_id", plan.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update plan"})
		return
	}

	h.notify(plan.UserID, websocket.NewMessage("plan", "updated", plan.ID, nil))

	writeJSON(w, http.StatusOK, updated)
}

type generatePlanRequest struct {
	ai.ScheduleRequest
	AutoDelete bool `json:"auto_delete"`
}

// Generate handles POST /api/plans/generate. The AI builds the schedule
// and notes, then the plan is stored like any hand-written one.
func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.aiClient == nil || !h.aiClient.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "AI features are not configured"})
		return
	}

	var req generatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "topic is required"})
		return
	}
	if req.StartDate == "" {
		req.StartDate = time.Now().Format(reconcile.DateLayout)
	}
	if _, err := time.Parse(reconcile.DateLayout, req.StartDate); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_date must be YYYY-MM-DD"})
		return
	}

	result, err := h.aiClient.GenerateSchedule(r.Context(), req.ScheduleRequest)
	if err != nil {
		h.logger.Error("generate schedule", "topic", req.Topic, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "schedule generation failed"})
		return
	}

	plan, err := h.planStore.Create(auth.UserID(r.Context()), req.Topic, result.Notes, req.AutoDelete, result.Schedule)
	if err != nil {
		h.logger.Error("save generated plan", "topic", req.Topic, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save plan"})
		return
	}

	h.notify(plan.UserID, websocket.NewMessage("plan", "created", plan.ID, nil))

	writeJSON(w, http.StatusCreated, plan)
}
