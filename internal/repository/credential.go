// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/models"
)

// UpsertCredential stores cand as the credential of its (voter, election)
// pair. When the pair already has a row, only token and expires_at are
// rewritten, and only if that row is unconsumed and expired at now. Consumed
// and still valid rows are left untouched. The row as stored afterwards is
// returned; callers compare it with cand to learn what happened.
func (r *Repository) UpsertCredential(ctx context.Context, cand *models.VotingCredential, now time.Time) (*models.VotingCredential, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO voting_credentials (id, voter_id, election_id, token, issued_at, expires_at, consumed)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT (voter_id, election_id) DO UPDATE SET
			token = excluded.token,
			expires_at = excluded.expires_at
		WHERE voting_credentials.consumed = 0 AND voting_credentials.expires_at <= ?`,
		cand.ID, cand.VoterID, cand.ElectionID, cand.Token, cand.IssuedAt, cand.ExpiresAt, now)
	if err != nil {
		return nil, wrapError(err)
	}
	return r.GetCredentialByPair(ctx, cand.VoterID, cand.ElectionID)
}

// GetCredentialByPair retrieves the credential of a voter for an election.
func (r *Repository) GetCredentialByPair(ctx context.Context, voterID, electionID string) (*models.VotingCredential, error) {
	var cred models.VotingCredential
	err := r.db.GetContext(ctx, &cred,
		`SELECT * FROM voting_credentials WHERE voter_id = ? AND election_id = ?`, voterID, electionID)
	if err != nil {
		return nil, wrapError(err)
	}
	return &cred, nil
}

// GetCredentialByToken retrieves a credential by its current token.
func (r *Repository) GetCredentialByToken(ctx context.Context, token string) (*models.VotingCredential, error) {
	var cred models.VotingCredential
	err := r.db.GetContext(ctx, &cred, `SELECT * FROM voting_credentials WHERE token = ?`, token)
	if err != nil {
		return nil, wrapError(err)
	}
	return &cred, nil
}

// GetCredentialByID retrieves a credential by ID.
func (r *Repository) GetCredentialByID(ctx context.Context, id string) (*models.VotingCredential, error) {
	var cred models.VotingCredential
	err := r.db.GetContext(ctx, &cred, `SELECT * FROM voting_credentials WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &cred, nil
}

// ListCredentialsByVoter returns a voter's credentials, newest first.
func (r *Repository) ListCredentialsByVoter(ctx context.Context, voterID string) ([]models.CredentialHistoryEntry, error) {
	entries := []models.CredentialHistoryEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT c.*, e.title AS election_title
		FROM voting_credentials c
		JOIN elections e ON e.id = c.election_id
		WHERE c.voter_id = ?
		ORDER BY c.issued_at DESC`, voterID)
	if err != nil {
		return nil, wrapError(err)
	}
	return entries, nil
}

// CountCredentials counts the credential rows of a (voter, election) pair.
func (r *Repository) CountCredentials(ctx context.Context, voterID, electionID string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM voting_credentials WHERE voter_id = ? AND election_id = ?`, voterID, electionID)
	return count, err
}
