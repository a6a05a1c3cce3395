// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/votelink/internal/models"
)

// AppendAuditEvent appends an event to the audit log.
func (r *Repository) AppendAuditEvent(ctx context.Context, ev *models.AuditEvent) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (voter_id, election_id, action, details, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.VoterID, ev.ElectionID, ev.Action, ev.Details, ev.Location, ev.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = id
	return nil
}

// ListAuditEvents returns audit events in append order. An empty electionID
// returns events of all elections.
func (r *Repository) ListAuditEvents(ctx context.Context, electionID string, limit int) ([]models.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	events := []models.AuditEvent{}
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM audit_events
		WHERE ? = '' OR election_id = ?
		ORDER BY id
		LIMIT ?`, electionID, electionID, limit)
	if err != nil {
		return nil, wrapError(err)
	}
	return events, nil
}
