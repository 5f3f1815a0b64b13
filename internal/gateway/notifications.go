package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/tyleshq/tyles/internal/common"
	"github.com/tyleshq/tyles/internal/model"
)

// ListNotifications returns a user's notifications, newest first.
func (g *SQLiteGateway) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT id, user_id, title, message, type, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if scanErr := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message,
			&n.Type, &n.IsRead, &n.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", scanErr)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// CreateNotification inserts a new notification and returns the stored row.
func (g *SQLiteGateway) CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(n.UserID, "notification.UserID"); err != nil {
		return nil, err
	}

	id := newID()
	now := time.Now().UTC()
	_, err := g.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, n.UserID, n.Title, n.Message, n.Type, n.IsRead, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	n.ID = id
	n.CreatedAt = now
	return &n, nil
}

// MarkNotificationRead flags a notification as read.
func (g *SQLiteGateway) MarkNotificationRead(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := g.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ListTaxWithholdings returns a user's tax set-asides, newest first.
func (g *SQLiteGateway) ListTaxWithholdings(ctx context.Context, userID string) ([]model.TaxWithholding, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT id, user_id, amount, percentage, period_start, period_end, status, created_at
		FROM tax_withholdings
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax withholdings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var withholdings []model.TaxWithholding
	for rows.Next() {
		var w model.TaxWithholding
		if scanErr := rows.Scan(&w.ID, &w.UserID, &w.Amount, &w.Percentage,
			&w.PeriodStart, &w.PeriodEnd, &w.Status, &w.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan tax withholding: %w", scanErr)
		}
		withholdings = append(withholdings, w)
	}

	return withholdings, rows.Err()
}
