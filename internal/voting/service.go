// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package voting implements the voting-link lifecycle: issuing a single
// time-boxed credential per voter and election, and committing exactly one
// ballot against it.
package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/identity"
	"codeberg.org/oliverandrich/votelink/internal/models"
	"codeberg.org/oliverandrich/votelink/internal/repository"
)

// Store persists credentials and ballots. *repository.Repository implements it.
type Store interface {
	UpsertCredential(ctx context.Context, cand *models.VotingCredential, now time.Time) (*models.VotingCredential, error)
	GetCredentialByToken(ctx context.Context, token string) (*models.VotingCredential, error)
	GetCredentialByID(ctx context.Context, id string) (*models.VotingCredential, error)
	ListCredentialsByVoter(ctx context.Context, voterID string) ([]models.CredentialHistoryEntry, error)
	ListActiveElections(ctx context.Context, voterID string) ([]models.ElectionStatus, error)
	CommitBallot(ctx context.Context, b *models.Ballot, token string, activatedAt time.Time) error
	GetBallotByHash(ctx context.Context, hash string) (*models.Ballot, error)
}

// Directory answers questions about voters and elections owned elsewhere.
type Directory interface {
	IsVoterVerified(ctx context.Context, voterID string) (bool, error)
	GetElection(ctx context.Context, id string) (*models.Election, error)
	ListCandidates(ctx context.Context, electionID string) ([]models.Candidate, error)
}

// ArtifactStore keeps identity proofs and returns a reference to them.
type ArtifactStore interface {
	PutArtifact(ctx context.Context, key string, a *identity.Artifact) (string, error)
	DeleteArtifact(ctx context.Context, ref string) error
}

// Notifier delivers a localized message to a voter.
type Notifier interface {
	Notify(ctx context.Context, voterID, kind, messageID string, data map[string]any) error
}

// AuditSink takes audit events without blocking the caller.
type AuditSink interface {
	Record(ev models.AuditEvent)
}

// Events pushes realtime events to the open tabs of a voter.
type Events interface {
	Publish(voterID, event string, data any)
}

// Options configures a Service. Nil collaborators are replaced by no-ops.
type Options struct {
	LinkTTL         time.Duration
	LocationTimeout time.Duration
	Clock           Clock
	Artifacts       ArtifactStore
	Notifier        Notifier
	Audit           AuditSink
	Events          Events
}

// Default protocol parameters.
const (
	DefaultLinkTTL         = 120 * time.Second
	DefaultLocationTimeout = 5 * time.Second
)

// Service is the voting protocol as exposed to the HTTP layer.
type Service struct {
	store     Store
	dir       Directory
	clock     Clock
	artifacts ArtifactStore
	notifier  Notifier
	audit     AuditSink
	events    Events
	linkTTL   time.Duration
	locTTL    time.Duration
}

// NewService creates a Service.
func NewService(store Store, dir Directory, opts Options) *Service {
	s := &Service{
		store:     store,
		dir:       dir,
		clock:     opts.Clock,
		artifacts: opts.Artifacts,
		notifier:  opts.Notifier,
		audit:     opts.Audit,
		events:    opts.Events,
		linkTTL:   opts.LinkTTL,
		locTTL:    opts.LocationTimeout,
	}
	if s.clock == nil {
		s.clock = SystemClock
	}
	if s.audit == nil {
		s.audit = discardAudit{}
	}
	if s.notifier == nil {
		s.notifier = discardNotifier{}
	}
	if s.events == nil {
		s.events = discardEvents{}
	}
	if s.linkTTL <= 0 {
		s.linkTTL = DefaultLinkTTL
	}
	if s.locTTL <= 0 {
		s.locTTL = DefaultLocationTimeout
	}
	return s
}

// now is the authoritative protocol time. Storage keeps milliseconds.
func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

// Remaining returns how long cred is still valid on the server clock.
func (s *Service) Remaining(cred *models.VotingCredential) time.Duration {
	return Remaining(cred.ExpiresAt, s.clock.Now())
}

// BallotContext is what a voter sees when opening a voting link.
type BallotContext struct {
	Credential *models.VotingCredential
	Election   *models.Election
	Candidates []models.Candidate
	Remaining  time.Duration
}

// GetBallotContext resolves a voting link of voterID and returns the ballot
// it opens. Consumed links fail with ErrAlreadyVoted, expired ones with
// ErrExpired.
func (s *Service) GetBallotContext(ctx context.Context, voterID, token string) (*BallotContext, error) {
	cred, err := s.credentialFor(ctx, voterID, token)
	if err != nil {
		return nil, err
	}

	election, candidates, err := s.ballotOptions(ctx, cred.ElectionID)
	if err != nil {
		return nil, err
	}

	a := NewAttempt(s.clock)
	if err := a.Begin(cred, election, candidates); err != nil {
		return nil, err
	}

	s.record(cred, models.ActionBallotOpened, nil, nil)

	return &BallotContext{
		Credential: cred,
		Election:   election,
		Candidates: candidates,
		Remaining:  s.Remaining(cred),
	}, nil
}

// SubmitRequest carries one ballot submission.
type SubmitRequest struct {
	VoterID     string
	Token       string
	CandidateID string
	Proof       *identity.Artifact // optional
	Locator     identity.Locator   // optional
	UserAgent   string
}

// Receipt is returned for a committed ballot.
type Receipt struct {
	BallotID      string    `json:"ballot_id"`
	ElectionID    string    `json:"election_id"`
	IntegrityHash string    `json:"integrity_hash"`
	CastAt        time.Time `json:"cast_at"`
	ProofStored   bool      `json:"proof_stored"`
}

func receiptFor(b *models.Ballot) *Receipt {
	return &Receipt{
		BallotID:      b.ID,
		ElectionID:    b.ElectionID,
		IntegrityHash: b.IntegrityHash,
		CastAt:        b.CastAt,
		ProofStored:   b.IdentityProofRef != nil,
	}
}

// SubmitVote casts a ballot with the voting link req.Token. It succeeds at
// most once per link; concurrent or repeated submissions fail with
// ErrAlreadyVoted. Identity evidence is best effort and never fails a vote.
func (s *Service) SubmitVote(ctx context.Context, req SubmitRequest) (*Receipt, error) {
	cred, err := s.credentialFor(ctx, req.VoterID, req.Token)
	if err != nil {
		return nil, err
	}

	election, candidates, err := s.ballotOptions(ctx, cred.ElectionID)
	if err != nil {
		return nil, err
	}

	a := NewAttempt(s.clock)
	if err := a.Begin(cred, election, candidates); err != nil {
		s.rejected(cred, err, nil)
		return nil, err
	}

	loc := identity.Acquire(ctx, req.Locator, s.locTTL)

	if err := a.AttachProof(req.Proof); err != nil {
		s.rejected(cred, err, loc)
		return nil, err
	}
	if err := a.Select(req.CandidateID); err != nil {
		s.rejected(cred, err, loc)
		return nil, err
	}

	var ballot *models.Ballot
	err = a.Commit(ctx, func(ctx context.Context) error {
		b, err := s.commit(ctx, a, loc, req.UserAgent)
		ballot = b
		return err
	})
	if err != nil {
		s.rejected(cred, err, loc)
		return nil, err
	}

	s.committed(ctx, cred, election, ballot)
	return receiptFor(ballot), nil
}

// commit stores the proof, then writes the ballot and consumes the
// credential in one transaction. The cast time is taken after the upload, and
// the storage guard rejects the write if the link expired in between.
func (s *Service) commit(ctx context.Context, a *Attempt, loc *models.Location, userAgent string) (*models.Ballot, error) {
	cred := a.Credential()

	var proofRef *string
	if ref, err := s.storeProof(ctx, cred, a.Proof(), s.now()); err != nil {
		slog.Warn("identity proof not stored",
			"voter_id", cred.VoterID,
			"credential_id", cred.ID,
			"error", err,
		)
		s.record(cred, models.ActionProofDegraded, models.Details{"error": err.Error()}, loc)
	} else if ref != "" {
		proofRef = &ref
	}

	castAt := s.now()
	b := &models.Ballot{
		ID:               newID(),
		ElectionID:       cred.ElectionID,
		CandidateID:      a.Candidate().ID,
		CredentialID:     cred.ID,
		IntegrityHash:    IntegrityHash(cred.VoterID, cred.ElectionID, a.Candidate().ID, castAt),
		IdentityProofRef: proofRef,
		Location:         loc,
		CastAt:           castAt,
	}
	if userAgent != "" {
		b.UserAgent = &userAgent
	}

	err := s.store.CommitBallot(ctx, b, cred.Token, castAt)
	if err != nil {
		s.discardProof(ctx, cred, proofRef)
	}
	if errors.Is(err, repository.ErrConflict) {
		return nil, s.classifyConflict(ctx, cred, castAt)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: commit ballot: %w", ErrUnknown, err)
	}
	return b, nil
}

// classifyConflict explains a commit that lost its compare-and-swap.
func (s *Service) classifyConflict(ctx context.Context, cred *models.VotingCredential, castAt time.Time) error {
	current, err := s.store.GetCredentialByID(ctx, cred.ID)
	if err != nil {
		return fmt.Errorf("%w: reread credential: %w", ErrPersistenceConflict, err)
	}
	switch {
	case current.Consumed:
		return fmt.Errorf("%w: %w", ErrAlreadyVoted, ErrPersistenceConflict)
	case current.Token == cred.Token && Expired(current.ExpiresAt, castAt):
		return fmt.Errorf("%w: voting link ran out during commit", ErrExpired)
	default:
		// Unconsumed but no longer ours: the link was refreshed after expiry.
		return fmt.Errorf("%w: voting link was reissued", ErrExpired)
	}
}

// discardProof removes a proof whose ballot was never written.
func (s *Service) discardProof(ctx context.Context, cred *models.VotingCredential, ref *string) {
	if ref == nil {
		return
	}
	if err := s.artifacts.DeleteArtifact(context.WithoutCancel(ctx), *ref); err != nil {
		slog.Warn("orphaned identity proof",
			"voter_id", cred.VoterID,
			"credential_id", cred.ID,
			"ref", *ref,
			"error", err,
		)
	}
}

// storeProof uploads the proof. An empty reference means there was nothing
// to store.
func (s *Service) storeProof(ctx context.Context, cred *models.VotingCredential, proof *identity.Artifact, castAt time.Time) (string, error) {
	if proof == nil {
		return "", nil
	}
	if s.artifacts == nil {
		return "", fmt.Errorf("%w: no artifact store configured", ErrStorageDegraded)
	}
	key := fmt.Sprintf("proofs/%s/vote-%d.%s", cred.VoterID, castAt.UnixMilli(), proof.Ext())
	ref, err := s.artifacts.PutArtifact(ctx, key, proof)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorageDegraded, err)
	}
	return ref, nil
}

// committed runs the side effects of a successful commit. They outlive the
// request and only log their failures.
func (s *Service) committed(ctx context.Context, cred *models.VotingCredential, election *models.Election, b *models.Ballot) {
	ctx = context.WithoutCancel(ctx)

	slog.Info("vote cast",
		"voter_id", cred.VoterID,
		"election_id", cred.ElectionID,
		"ballot_id", b.ID,
	)

	s.record(cred, models.ActionVoteCast, models.Details{
		"vote_hash":    b.IntegrityHash,
		"ballot_id":    b.ID,
		"proof_stored": b.IdentityProofRef != nil,
	}, b.Location)

	if err := s.notifier.Notify(ctx, cred.VoterID, models.NotificationSuccess,
		"vote_submitted", map[string]any{"Election": election.Title}); err != nil {
		slog.Error("failed to notify voter",
			"voter_id", cred.VoterID,
			"error", err,
		)
	}

	s.events.Publish(cred.VoterID, "vote_cast", map[string]any{
		"election_id":    cred.ElectionID,
		"integrity_hash": b.IntegrityHash,
	})
}

func (s *Service) rejected(cred *models.VotingCredential, err error, loc *models.Location) {
	slog.Info("vote rejected",
		"voter_id", cred.VoterID,
		"credential_id", cred.ID,
		"reason", Kind(err),
	)
	s.record(cred, models.ActionVoteRejected, models.Details{"reason": Kind(err)}, loc)
}

// credentialFor resolves token to a credential of voterID. Links of other
// voters are reported as not found.
func (s *Service) credentialFor(ctx context.Context, voterID, token string) (*models.VotingCredential, error) {
	if voterID == "" || token == "" {
		return nil, fmt.Errorf("%w: voter and token are required", ErrValidation)
	}
	cred, err := s.store.GetCredentialByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load credential: %w", ErrUnknown, err)
	}
	if cred.VoterID != voterID {
		return nil, ErrNotFound
	}
	return cred, nil
}

func (s *Service) ballotOptions(ctx context.Context, electionID string) (*models.Election, []models.Candidate, error) {
	election, err := s.dir.GetElection(ctx, electionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: unknown election", ErrValidation)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: load election: %w", ErrUnknown, err)
	}
	candidates, err := s.dir.ListCandidates(ctx, electionID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: load candidates: %w", ErrUnknown, err)
	}
	return election, candidates, nil
}

// History returns the voting links of a voter, newest first.
func (s *Service) History(ctx context.Context, voterID string) ([]models.CredentialHistoryEntry, error) {
	return s.store.ListCredentialsByVoter(ctx, voterID)
}

// ListElections returns the active elections as seen by voterID.
func (s *Service) ListElections(ctx context.Context, voterID string) ([]models.ElectionStatus, error) {
	return s.store.ListActiveElections(ctx, voterID)
}

// VerifyReceipt looks a ballot up by its integrity hash.
func (s *Service) VerifyReceipt(ctx context.Context, hash string) (*Receipt, error) {
	b, err := s.store.GetBallotByHash(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: no ballot with this receipt", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return receiptFor(b), nil
}

func (s *Service) record(cred *models.VotingCredential, action string, details models.Details, loc *models.Location) {
	s.audit.Record(models.AuditEvent{
		VoterID:    &cred.VoterID,
		ElectionID: &cred.ElectionID,
		Action:     action,
		Details:    details,
		Location:   loc,
		CreatedAt:  s.now(),
	})
}

type discardAudit struct{}

func (discardAudit) Record(models.AuditEvent) {}

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, string, string, string, map[string]any) error {
	return nil
}

type discardEvents struct{}

func (discardEvents) Publish(string, string, any) {}
