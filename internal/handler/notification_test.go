package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zingerhq/zinger/internal/database"
	"github.com/zingerhq/zinger/internal/model"
	"github.com/zingerhq/zinger/internal/store"
)

func setupNotificationHandlerTest(t *testing.T) (*NotificationHandler, *store.NotificationStore, int64, string) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := store.NewUserStore(db)
	alice, _ := us.Create("alice@example.com", "Alice")

	ps := store.NewPlanStore(db)
	plan, err := ps.Create(alice.ID, "Go", "", false, []model.ScheduleItem{
		{Day: "Day 1", Date: "2024-01-14", Topic: "Variables", Tasks: "Read"},
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}

	ns := store.NewNotificationStore(db)
	h := NewNotificationHandler(ns, slog.Default())
	return h, ns, alice.ID, plan.ID
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	h, ns, alice, planID := setupNotificationHandlerTest(t)

	n, _, err := ns.Create(alice, planID, "falling behind", model.NotifTypeWarning, "2024-01-15")
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}

	req := authedRequest("POST", fmt.Sprintf("/api/notifications/%d/read", n.ID), "", alice)
	req.SetPathValue("id", fmt.Sprintf("%d", n.ID))
	rec := httptest.NewRecorder()
	h.MarkRead(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	count, _ := ns.UnreadCount(alice)
	if count != 0 {
		t.Errorf("unread = %d, want 0", count)
	}
}

func TestNotificationHandlerMarkReadNotFound(t *testing.T) {
	h, ns, alice, planID := setupNotificationHandlerTest(t)

	n, _, err := ns.Create(alice, planID, "falling behind", model.NotifTypeWarning, "2024-01-15")
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}

	// A notification id that does not exist.
	req := authedRequest("POST", "/api/notifications/9999/read", "", alice)
	req.SetPathValue("id", "9999")
	rec := httptest.NewRecorder()
	h.MarkRead(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	// Another user's notification looks the same as a missing one.
	req = authedRequest("POST", fmt.Sprintf("/api/notifications/%d/read", n.ID), "", alice+1)
	req.SetPathValue("id", fmt.Sprintf("%d", n.ID))
	rec = httptest.NewRecorder()
	h.MarkRead(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("other user status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	count, _ := ns.UnreadCount(alice)
	if count != 1 {
		t.Errorf("unread = %d, want 1", count)
	}
}
