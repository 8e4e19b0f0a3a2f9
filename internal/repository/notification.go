package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/loanworks/loan-service/internal/models"
)

// CreateNotification creates an in-app notification
func (r *Repository) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO lms.notifications (user_id, title, message, kind, is_read, related_loan_id, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		n.UserID, n.Title, n.Message, n.Kind, n.RelatedLoanID).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListNotificationsByUser retrieves a user's notifications, newest first
func (r *Repository) ListNotificationsByUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, message, kind, is_read, related_loan_id, created_at
		FROM lms.notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var list []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Kind,
			&n.IsRead, &n.RelatedLoanID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}
	return list, nil
}

// FindNotificationByID retrieves a notification by id
func (r *Repository) FindNotificationByID(ctx context.Context, id int64) (*models.Notification, error) {
	n := &models.Notification{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, message, kind, is_read, related_loan_id, created_at
		FROM lms.notifications
		WHERE id = $1`, id).
		Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Kind, &n.IsRead, &n.RelatedLoanID, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	return n, nil
}

// MarkNotificationRead flags a notification as read
func (r *Repository) MarkNotificationRead(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE lms.notifications SET is_read = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
