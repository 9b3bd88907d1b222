package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/zingerhq/zinger/internal/model"
)

type PlanStore struct {
	db *sql.DB
}

func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db}
}

func scanPlan(scanner interface{ Scan(...any) error }) (*model.StudyPlan, error) {
	var p model.StudyPlan
	var autoDelete int
	var schedule string

	err := scanner.Scan(
		&p.ID, &p.UserID, &p.Topic, &p.Notes, &autoDelete, &schedule,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.AutoDeleteOnCompletion = autoDelete != 0
	if err := json.Unmarshal([]byte(schedule), &p.Schedule); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	return &p, nil
}

const planCols = `id, user_id, topic, notes, auto_delete, schedule, created_at, updated_at`

// Create stores a new study plan. Items without an ID are assigned one, and
// items without a status start out pending.
func (s *PlanStore) Create(userID int64, topic, notes string, autoDelete bool, schedule []model.ScheduleItem) (*model.StudyPlan, error) {
	for i := range schedule {
		if schedule[i].ID == "" {
			schedule[i].ID = uuid.NewString()
		}
		if schedule[i].Status == "" {
			schedule[i].Status = model.StatusPending
		}
	}

	data, err := json.Marshal(schedule)
	if err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}

	var ad int
	if autoDelete {
		ad = 1
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO study_plans (id, user_id, topic, notes, auto_delete, schedule) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, topic, notes, ad, string(data),
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	return s.GetByID(id)
}

func (s *PlanStore) GetByID(id string) (*model.StudyPlan, error) {
	row := s.db.QueryRow(`SELECT `+planCols+` FROM study_plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

func (s *PlanStore) ListByUser(userID int64) ([]model.StudyPlan, error) {
	rows, err := s.db.Query(
		`SELECT `+planCols+` FROM study_plans WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	return collectPlans(rows)
}

// ListAll returns every stored plan. Used by the reconciliation job scan.
func (s *PlanStore) ListAll() ([]model.StudyPlan, error) {
	rows, err := s.db.Query(`SELECT ` + planCols + ` FROM study_plans ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list all plans: %w", err)
	}
	defer rows.Close()
	return collectPlans(rows)
}

func collectPlans(rows *sql.Rows) ([]model.StudyPlan, error) {
	var plans []model.StudyPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// UpdateSchedule replaces a plan's entire item list in one row write, so a
// partially-applied status update is never observable.
func (s *PlanStore) UpdateSchedule(id string, schedule []model.ScheduleItem) error {
	data, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE study_plans SET schedule = ?, updated_at = datetime('now') WHERE id = ?`,
		string(data), id,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// SetItemStatus applies a user-driven status change to a single item and
// persists the full schedule atomically. Returns the updated plan, or nil
// if the plan or item does not exist.
func (s *PlanStore) SetItemStatus(planID, itemID, status string) (*model.StudyPlan, error) {
	if !model.ValidStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	plan, err := s.GetByID(planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}

	found := false
	for i := range plan.Schedule {
		if plan.Schedule[i].ID == itemID {
			plan.Schedule[i].Status = status
			found = true
			break
		}
	}
	if !found {
		return nil, nil
	}

	if err := s.UpdateSchedule(planID, plan.Schedule); err != nil {
		return nil, err
	}
	return s.GetByID(planID)
}

func (s *PlanStore) SetAutoDelete(id string, autoDelete bool) (*model.StudyPlan, error) {
	var ad int
	if autoDelete {
		ad = 1
	}
	_, err := s.db.Exec(
		`UPDATE study_plans SET auto_delete = ?, updated_at = datetime('now') WHERE id = ?`,
		ad, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set auto delete: %w", err)
	}
	return s.GetByID(id)
}

func (s *PlanStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM study_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}
