// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/votelink/internal/models"
)

// CreateNotification stores a notification for a voter.
func (r *Repository) CreateNotification(ctx context.Context, n *models.Notification) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (voter_id, title, message, kind, read, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		n.VoterID, n.Title, n.Message, n.Kind, n.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = id
	return nil
}

// ListNotifications returns a voter's notifications, newest first.
func (r *Repository) ListNotifications(ctx context.Context, voterID string) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := r.db.SelectContext(ctx, &notifications,
		`SELECT * FROM notifications WHERE voter_id = ? ORDER BY created_at DESC, id DESC`, voterID)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead marks a voter's notification as read.
func (r *Repository) MarkNotificationRead(ctx context.Context, id int64, voterID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND voter_id = ?`, id, voterID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
