package store

import (
	"testing"

	"github.com/zingerhq/zinger/internal/database"
	"github.com/zingerhq/zinger/internal/model"
)

func setupPlanTestDB(t *testing.T) (*PlanStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPlanStore(db), NewUserStore(db)
}

func testSchedule() []model.ScheduleItem {
	return []model.ScheduleItem{
		{Day: "Day 1", Date: "2024-01-14", Topic: "Variables", Tasks: "Read chapter 1"},
		{Day: "Day 2", Date: "2024-01-15", Topic: "Functions", Tasks: "Do exercises"},
		{Day: "Day 3", Date: "2024-01-16", Topic: "Structs", Tasks: "Build a type"},
	}
}

func TestPlanCreateAssignsIDsAndStatuses(t *testing.T) {
	ps, us := setupPlanTestDB(t)
	user, _ := us.Create("alice@example.com", "Alice")

	plan, err := ps.Create(user.ID, "Go basics", "some notes", false, testSchedule())
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if plan.ID == "" {
		t.Error("plan should get an id")
	}
	if plan.Topic != "Go basics" {
		t.Errorf("topic = %q, want %q", plan.Topic, "Go basics")
	}
	if len(plan.Schedule) != 3 {
		t.Fatalf("schedule length = %d, want 3", len(plan.Schedule))
	}
	seen := map[string]bool{}
	for _, item := range plan.Schedule {
		if item.ID == "" {
			t.Error("schedule item should get an id")
		}
		if seen[item.ID] {
			t.Errorf("duplicate item id %q", item.ID)
		}
		seen[item.ID] = true
		if item.Status != model.StatusPending {
			t.Errorf("item status = %q, want pending", item.Status)
		}
	}
}

func TestPlanGetByIDNotFound(t *testing.T) {
	ps, _ := setupPlanTestDB(t)

	plan, err := ps.GetByID("no-such-plan")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if plan != nil {
		t.Error("expected nil for missing plan")
	}
}

func TestPlanListByUser(t *testing.T) {
	ps, us := setupPlanTestDB(t)
	alice, _ := us.Create("alice@example.com", "Alice")
	bob, _ := us.Create("bob@example.com", "Bob")

	ps.Create(alice.ID, "Go", "", false, testSchedule())
	ps.Create(alice.ID, "SQL", "", false, testSchedule())
	ps.Create(bob.ID, "Rust", "", false, testSchedule())

	plans, err := ps.ListByUser(alice.ID)
	if err != nil {
		t.Fatalf("list plans: %v", err)
	}
	if len(plans) != 2 {
		t.Errorf("alice has %d plans, want 2", len(plans))
	}

	all, err := ps.ListAll()
	if err != nil {
		t.Fatalf("list all plans: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("total plans = %d, want 3", len(all))
	}
}

func TestPlanUpdateSchedule(t *testing.T) {
	ps, us := setupPlanTestDB(t)
	user, _ := us.Create("alice@example.com", "Alice")
	plan, _ := ps.Create(user.ID, "Go", "", false, testSchedule())

	schedule := plan.Schedule
	schedule[0].Status = model.StatusMissed
	schedule[1].Status = model.StatusCompleted

	if err := ps.UpdateSchedule(plan.ID, schedule); err != nil {
		t.Fatalf("update schedule: %v", err)
	}

	got, err := ps.GetByID(plan.ID)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got.Schedule[0].Status != model.StatusMissed {
		t.Errorf("item 0 status = %q, want missed", got.Schedule[0].Status)
	}
	if got.Schedule[1].Status != model.StatusCompleted {
		t.Errorf("item 1 status = %q, want completed", got.Schedule[1].Status)
	}
	if got.Schedule[2].Status != model.StatusPending {
		t.Errorf("item 2 status = %q, want pending", got.Schedule[2].Status)
	}
}

func TestPlanSetItemStatus(t *testing.T) {
	ps, us := setupPlanTestDB(t)
	user, _ := us.Create("alice@example.com", "Alice")
	plan, _ := ps.Create(user.ID, "Go", "", false, testSchedule())

	itemID := plan.Schedule[1].ID
	updated, err := ps.SetItemStatus(plan.ID, itemID, model.StatusCompleted)
	if err != nil {
		t.Fatalf("set item status: %v", err)
	}
	if updated == nil {
		t.Fatal("expected updated plan")
	}
	if updated.Schedule[1].Status != model.StatusCompleted {
		t.Errorf("item status = %q, want completed", updated.Schedule[1].Status)
	}

	// A missed item can be flipped back by the user.
	if _, err := ps.SetItemStatus(plan.ID, itemID, model.StatusPending); err != nil {
		t.Fatalf("revert item status: %v", err)
	}
	got, _ := ps.GetByID(plan.ID)
	if got.Schedule[1].Status != model.StatusPending {
		t.Errorf("reverted status = %q, want pending", got.Schedule[1].Status)
	}
}

func TestPlanSetItemStatusInvalid(t *testing.T) {
	ps, us := setupPlanTestDB(t)
	user, _ := us.Create("alice@example.com", "Alice")
	plan, _ := ps.Create(user.ID, "Go", "", false, testSchedule())

	if _, err := ps.SetItemStatus(plan.ID, plan.Schedule[0].ID, "done"); err == nil {
		t.Error("expected error for invalid status")
	}

	updated, err := ps.SetItemStatus(plan.ID, "no-such-item", model.StatusCompleted)
	if err != nil {
		t.Fatalf("set status for missing item: %v", err)
	}
	if updated != nil {
		t.Error("expected nil for missing item")
	}
}

func TestPlanSetAutoDelete(t *testing.T) {
	ps, us := setupPlanTestDB(t)
	user, _ := us.Create("alice@example.com", "Alice")
	plan, _ := ps.Create(user.ID, "Go", "", false, testSchedule())

	updated, err := ps.SetAutoDelete(plan.ID, true)
	if err != nil {
		t.Fatalf("set auto delete: %v", err)
	}
	if !updated.AutoDeleteOnCompletion {
		t.Error("auto delete flag should be set")
	}
}

func TestPlanDelete(t *testing.T) {
	ps, us := setupPlanTestDB(t)
	user, _ := us.Create("alice@example.com", "Alice")
	plan, _ := ps.Create(user.ID, "Go", "", false, testSchedule())

	if err := ps.Delete(plan.ID); err != nil {
		t.Fatalf("delete plan: %v", err)
	}
	got, err := ps.GetByID(plan.ID)
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got != nil {
		t.Error("plan should be gone")
	}
}
