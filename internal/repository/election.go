// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/votelink/internal/models"
)

// UpsertElection creates or replaces an election.
func (r *Repository) UpsertElection(ctx context.Context, e *models.Election) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO elections (id, title, description, start_date, end_date, active, guidelines, created_at)
		VALUES (:id, :title, :description, :start_date, :end_date, :active, :guidelines, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			active = excluded.active,
			guidelines = excluded.guidelines`, e)
	return err
}

// GetElection retrieves an election by ID.
func (r *Repository) GetElection(ctx context.Context, id string) (*models.Election, error) {
	var e models.Election
	if err := r.db.GetContext(ctx, &e, `SELECT * FROM elections WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &e, nil
}

// ListActiveElections returns active elections, latest start first, flagged
// with whether voterID has already consumed its credential.
func (r *Repository) ListActiveElections(ctx context.Context, voterID string) ([]models.ElectionStatus, error) {
	elections := []models.ElectionStatus{}
	err := r.db.SelectContext(ctx, &elections, `
		SELECT e.*, COALESCE(c.consumed, 0) AS has_voted
		FROM elections e
		LEFT JOIN voting_credentials c ON c.election_id = e.id AND c.voter_id = ?
		WHERE e.active = 1
		ORDER BY e.start_date DESC`, voterID)
	if err != nil {
		return nil, err
	}
	return elections, nil
}

// UpsertCandidate creates or replaces a candidate.
func (r *Repository) UpsertCandidate(ctx context.Context, c *models.Candidate) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO candidates (id, election_id, name, description, photo_url, position)
		VALUES (:id, :election_id, :name, :description, :photo_url, :position)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			photo_url = excluded.photo_url,
			position = excluded.position`, c)
	return err
}

// ListCandidates returns the candidates of an election ordered by position.
func (r *Repository) ListCandidates(ctx context.Context, electionID string) ([]models.Candidate, error) {
	candidates := []models.Candidate{}
	err := r.db.SelectContext(ctx, &candidates,
		`SELECT * FROM candidates WHERE election_id = ? ORDER BY position, name`, electionID)
	if err != nil {
		return nil, err
	}
	return candidates, nil
}
