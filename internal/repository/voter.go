// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"

	"codeberg.org/oliverandrich/votelink/internal/models"
)

// UpsertVoterProfile creates or replaces a voter profile.
func (r *Repository) UpsertVoterProfile(ctx context.Context, p *models.VoterProfile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO voter_profiles (id, full_name, verified) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET full_name = excluded.full_name, verified = excluded.verified`,
		p.ID, p.FullName, p.Verified)
	return err
}

// GetVoterProfile retrieves a voter profile by ID.
func (r *Repository) GetVoterProfile(ctx context.Context, id string) (*models.VoterProfile, error) {
	var p models.VoterProfile
	if err := r.db.GetContext(ctx, &p, `SELECT * FROM voter_profiles WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &p, nil
}

// IsVoterVerified reports whether the voter's profile has been approved.
// Unknown voters are not verified.
func (r *Repository) IsVoterVerified(ctx context.Context, voterID string) (bool, error) {
	p, err := r.GetVoterProfile(ctx, voterID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.Verified, nil
}
