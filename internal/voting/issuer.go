// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package voting

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"codeberg.org/oliverandrich/votelink/internal/models"
	"codeberg.org/oliverandrich/votelink/internal/repository"
	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

// newToken returns 32 random bytes, hex encoded.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RequestCredential returns the voting link of voterID for electionID.
// A missing link is created, a valid one is returned unchanged and an
// expired one gets a new token and expiry. A consumed link is returned as
// is together with ErrAlreadyVoted.
func (s *Service) RequestCredential(ctx context.Context, voterID, electionID string) (*models.VotingCredential, error) {
	if voterID == "" || electionID == "" {
		return nil, fmt.Errorf("%w: voter and election are required", ErrValidation)
	}

	verified, err := s.dir.IsVoterVerified(ctx, voterID)
	if err != nil {
		return nil, fmt.Errorf("%w: check verification: %w", ErrUnknown, err)
	}
	if !verified {
		s.issueRejected(voterID, electionID, ErrNotVerified)
		return nil, ErrNotVerified
	}

	election, err := s.dir.GetElection(ctx, electionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown election", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load election: %w", ErrUnknown, err)
	}

	now := s.now()
	if !election.Open(now) {
		err := fmt.Errorf("%w: election is not open", ErrValidation)
		s.issueRejected(voterID, electionID, err)
		return nil, err
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("%w: generate token: %w", ErrUnknown, err)
	}
	cand := &models.VotingCredential{
		ID:         newID(),
		VoterID:    voterID,
		ElectionID: electionID,
		Token:      token,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.linkTTL),
	}

	stored, err := s.store.UpsertCredential(ctx, cand, now)
	if err != nil {
		return nil, fmt.Errorf("%w: store credential: %w", ErrUnknown, err)
	}

	var action string
	switch {
	case stored.Consumed:
		s.issueRejected(voterID, electionID, ErrAlreadyVoted)
		return stored, ErrAlreadyVoted
	case stored.ID == cand.ID:
		action = models.ActionCredentialIssued
	case stored.Token == cand.Token:
		action = models.ActionCredentialRefreshed
	default:
		action = models.ActionCredentialReused
	}

	slog.Debug("voting link",
		"action", action,
		"voter_id", voterID,
		"election_id", electionID,
		"credential_id", stored.ID,
	)
	s.record(stored, action, models.Details{"expires_at": stored.ExpiresAt}, nil)

	return stored, nil
}

func (s *Service) issueRejected(voterID, electionID string, err error) {
	s.audit.Record(models.AuditEvent{
		VoterID:    &voterID,
		ElectionID: &electionID,
		Action:     models.ActionCredentialRejected,
		Details:    models.Details{"reason": Kind(err)},
		CreatedAt:  s.now(),
	})
}
