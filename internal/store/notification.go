package store

import (
	"database/sql"
	"fmt"

	"github.com/zingerhq/zinger/internal/model"
)

type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var read int

	err := scanner.Scan(
		&n.ID, &n.UserID, &n.PlanID, &n.Message, &n.Type, &read,
		&n.DedupDate, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Read = read != 0
	return &n, nil
}

const notificationCols = `id, user_id, plan_id, message, type, read, dedup_date, created_at`

// Create inserts a notification keyed on (plan, date, type). A duplicate
// key is silently ignored so re-running the reconciliation job on the same
// calendar date never double-notifies; the returned bool reports whether a
// row was actually created.
func (s *NotificationStore) Create(userID int64, planID, message, notifType, dedupDate string) (*model.Notification, bool, error) {
	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO notifications (user_id, plan_id, message, type, dedup_date) VALUES (?, ?, ?, ?, ?)`,
		userID, planID, message, notifType, dedupDate,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert notification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, false, nil
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("last insert id: %w", err)
	}
	n, err := s.getByID(id)
	return n, true, err
}

func (s *NotificationStore) getByID(id int64) (*model.Notification, error) {
	row := s.db.QueryRow(`SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (s *NotificationStore) ListByUser(userID int64, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := `SELECT ` + notificationCols + ` FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (s *NotificationStore) UnreadCount(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return count, nil
}

// MarkRead flips the read flag for one notification owned by the user.
// The returned bool reports whether a matching row existed.
func (s *NotificationStore) MarkRead(userID, id int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *NotificationStore) MarkAllRead(userID int64) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// DeleteByPlan removes all notifications tied to a deleted plan.
func (s *NotificationStore) DeleteByPlan(planID string) error {
	_, err := s.db.Exec(`DELETE FROM notifications WHERE plan_id = ?`, planID)
	if err != nil {
		return fmt.Errorf("delete notifications by plan: %w", err)
	}
	return nil
}
