// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/models"
	"github.com/vinovest/sqlx"
)

// CommitBallot inserts b and consumes its credential in one transaction.
// The credential is flipped only if it is unconsumed, still carries token and
// has not expired at activatedAt. ErrConflict is returned, and nothing is written, when a ballot already
// references the credential or the conditional update matched no row.
func (r *Repository) CommitBallot(ctx context.Context, b *models.Ballot, token string, activatedAt time.Time) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ballots (id, election_id, candidate_id, credential_id, integrity_hash,
				identity_proof_ref, location, user_agent, cast_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.ElectionID, b.CandidateID, b.CredentialID, b.IntegrityHash,
			b.IdentityProofRef, b.Location, b.UserAgent, b.CastAt)
		if err != nil {
			return wrapError(err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE voting_credentials SET consumed = 1, activated_at = ?
			WHERE id = ? AND token = ? AND consumed = 0 AND expires_at > ?`,
			activatedAt, b.CredentialID, token, activatedAt)
		if err != nil {
			return wrapError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: credential %s not consumable", ErrConflict, b.CredentialID)
		}
		return nil
	})
}

// GetBallotByCredential retrieves the ballot cast with a credential.
func (r *Repository) GetBallotByCredential(ctx context.Context, credentialID string) (*models.Ballot, error) {
	var b models.Ballot
	err := r.db.GetContext(ctx, &b, `SELECT * FROM ballots WHERE credential_id = ?`, credentialID)
	if err != nil {
		return nil, wrapError(err)
	}
	return &b, nil
}

// GetBallotByHash retrieves a ballot by its integrity hash.
func (r *Repository) GetBallotByHash(ctx context.Context, hash string) (*models.Ballot, error) {
	var b models.Ballot
	err := r.db.GetContext(ctx, &b, `SELECT * FROM ballots WHERE integrity_hash = ?`, hash)
	if err != nil {
		return nil, wrapError(err)
	}
	return &b, nil
}

// CountBallotsByCredential counts ballots referencing a credential.
func (r *Repository) CountBallotsByCredential(ctx context.Context, credentialID string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM ballots WHERE credential_id = ?`, credentialID)
	return count, err
}
