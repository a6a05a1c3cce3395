// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package voting

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/oliverandrich/votelink/internal/identity"
	"codeberg.org/oliverandrich/votelink/internal/models"
	"github.com/samber/lo"
)

// Phase is the position of an Attempt in the submission protocol.
type Phase int

// Phases in protocol order. Committed and Rejected are terminal.
const (
	PhaseInit Phase = iota
	PhaseVerifying
	PhaseSelecting
	PhaseConfirming
	PhaseCommitted
	PhaseRejected
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseVerifying:
		return "verifying"
	case PhaseSelecting:
		return "selecting"
	case PhaseConfirming:
		return "confirming"
	case PhaseCommitted:
		return "committed"
	case PhaseRejected:
		return "rejected"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the tagged state of an Attempt. Reason is set only when Phase is
// PhaseRejected and is one of ErrExpired, ErrAlreadyVoted or ErrValidation.
type State struct {
	Phase  Phase
	Reason error
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s.Phase == PhaseCommitted || s.Phase == PhaseRejected
}

// Attempt drives one ballot submission against one credential. Every
// transition first re-checks expiry against the clock, so an attempt is
// rejected as expired the moment the link runs out, whatever phase it is in.
// An Attempt is not safe for concurrent use; concurrent attempts on the same
// credential are arbitrated by storage at commit time.
type Attempt struct {
	clock      Clock
	state      State
	credential *models.VotingCredential
	candidates []models.Candidate
	proof      *identity.Artifact
	candidate  *models.Candidate
}

// NewAttempt creates an attempt in PhaseInit.
func NewAttempt(clock Clock) *Attempt {
	return &Attempt{clock: clock}
}

// State returns the current state.
func (a *Attempt) State() State { return a.state }

// Credential returns the credential the attempt was begun with.
func (a *Attempt) Credential() *models.VotingCredential { return a.credential }

// Proof returns the attached identity proof, if any.
func (a *Attempt) Proof() *identity.Artifact { return a.proof }

// Candidate returns the selected candidate once the attempt is confirming.
func (a *Attempt) Candidate() *models.Candidate { return a.candidate }

// Begin binds the attempt to a credential of an election with the given
// ballot options. Init → Verifying.
func (a *Attempt) Begin(cred *models.VotingCredential, election *models.Election, candidates []models.Candidate) error {
	if a.state.Phase != PhaseInit {
		return a.invalid("begin")
	}
	a.credential = cred

	switch {
	case cred.Consumed:
		return a.reject(ErrAlreadyVoted)
	case Expired(cred.ExpiresAt, a.clock.Now()):
		return a.reject(ErrExpired)
	case election == nil || election.ID != cred.ElectionID || !election.Open(a.clock.Now()):
		return a.reject(fmt.Errorf("%w: election is not open", ErrValidation))
	}

	a.candidates = candidates
	a.state = State{Phase: PhaseVerifying}
	return nil
}

// AttachProof records the identity proof, which may be nil.
// Verifying → Selecting.
func (a *Attempt) AttachProof(proof *identity.Artifact) error {
	if err := a.guard(PhaseVerifying, "attach proof"); err != nil {
		return err
	}
	a.proof = proof
	a.state = State{Phase: PhaseSelecting}
	return nil
}

// Select picks the candidate. Selecting → Confirming. An empty or foreign
// candidate leaves the attempt in Selecting so the voter can pick again.
func (a *Attempt) Select(candidateID string) error {
	if err := a.guard(PhaseSelecting, "select"); err != nil {
		return err
	}
	if candidateID == "" {
		return fmt.Errorf("%w: no candidate selected", ErrValidation)
	}
	c, ok := lo.Find(a.candidates, func(c models.Candidate) bool { return c.ID == candidateID })
	if !ok {
		return fmt.Errorf("%w: candidate %s is not on this ballot", ErrValidation, candidateID)
	}
	a.candidate = &c
	a.state = State{Phase: PhaseConfirming}
	return nil
}

// Commit runs persist and moves Confirming → Committed on success. An
// ErrAlreadyVoted or ErrExpired outcome rejects the attempt; any other
// failure keeps it confirming so Commit may be called again.
func (a *Attempt) Commit(ctx context.Context, persist func(ctx context.Context) error) error {
	if err := a.guard(PhaseConfirming, "commit"); err != nil {
		return err
	}

	err := persist(ctx)
	switch {
	case err == nil:
		a.state = State{Phase: PhaseCommitted}
		return nil
	case errors.Is(err, ErrAlreadyVoted):
		a.state = State{Phase: PhaseRejected, Reason: ErrAlreadyVoted}
	case errors.Is(err, ErrExpired):
		a.state = State{Phase: PhaseRejected, Reason: ErrExpired}
	}
	return err
}

// guard checks that the attempt is in want and the link has not expired.
func (a *Attempt) guard(want Phase, op string) error {
	if a.state.Terminal() {
		if a.state.Reason != nil {
			return a.state.Reason
		}
		return a.invalid(op)
	}
	if a.credential == nil {
		return a.invalid(op)
	}
	if Expired(a.credential.ExpiresAt, a.clock.Now()) {
		return a.reject(ErrExpired)
	}
	if a.state.Phase != want {
		return a.invalid(op)
	}
	return nil
}

func (a *Attempt) reject(reason error) error {
	sentinel := reason
	if errors.Is(reason, ErrValidation) {
		sentinel = ErrValidation
	}
	a.state = State{Phase: PhaseRejected, Reason: sentinel}
	return reason
}

func (a *Attempt) invalid(op string) error {
	return fmt.Errorf("%w: %s in phase %s", ErrInvalidTransition, op, a.state.Phase)
}
