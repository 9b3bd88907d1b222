package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zingerhq/zinger/internal/auth"
	"github.com/zingerhq/zinger/internal/model"
	"github.com/zingerhq/zinger/internal/store"
)

type NotificationHandler struct {
	notificationStore *store.NotificationStore
	logger            *slog.Logger
}

func NewNotificationHandler(ns *store.NotificationStore, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notificationStore: ns, logger: logger}
}

// List handles GET /api/notifications. Supports ?unread=true and ?limit=N.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notifications, err := h.notificationStore.ListByUser(auth.UserID(r.Context()), unreadOnly, limit)
	if err != nil {
		h.logger.Error("list notifications", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list notifications"})
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

// UnreadCount handles GET /api/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationStore.UnreadCount(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("unread count", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to count notifications"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// MarkRead handles POST /api/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	updated, err := h.notificationStore.MarkRead(auth.UserID(r.Context()), id)
	if err != nil {
		h.logger.Error("mark notification read", "notification_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to mark read"})
		return
	}
	if !updated {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// MarkAllRead handles POST /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	count, err := h.notificationStore.MarkAllRead(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("mark all notifications read", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to mark read"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": count})
}
