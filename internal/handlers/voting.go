// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"math"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/appcontext"
	"codeberg.org/oliverandrich/votelink/internal/identity"
	"codeberg.org/oliverandrich/votelink/internal/models"
	"codeberg.org/oliverandrich/votelink/internal/voting"
	"github.com/labstack/echo/v4"
)

// CredentialResponse is a voting link with its advisory countdown.
type CredentialResponse struct {
	ID               string    `json:"id"`
	ElectionID       string    `json:"election_id"`
	Token            string    `json:"token"`
	IssuedAt         time.Time `json:"issued_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int       `json:"remaining_seconds"`
	Countdown        string    `json:"countdown"`
}

// BallotResponse is the ballot opened by a voting link.
type BallotResponse struct {
	Election         *models.Election   `json:"election"`
	Candidates       []models.Candidate `json:"candidates"`
	ExpiresAt        time.Time          `json:"expires_at"`
	RemainingSeconds int                `json:"remaining_seconds"`
	Countdown        string             `json:"countdown"`
}

// VoteRequest is the body of a ballot submission.
type VoteRequest struct {
	CandidateID   string           `json:"candidate_id"`
	IdentityProof string           `json:"identity_proof,omitempty"` // base64 image data URL
	Location      *models.Location `json:"location,omitempty"`
}

func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// ListElections returns the active elections of the voter.
func (h *Handlers) ListElections(c echo.Context) error {
	voterID := appcontext.VoterID(c)
	if voterID == "" {
		return unauthorized(c)
	}

	elections, err := h.voting.ListElections(c.Request().Context(), voterID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, elections)
}

// RequestCredential issues or reuses the voting link for an election.
func (h *Handlers) RequestCredential(c echo.Context) error {
	voterID := appcontext.VoterID(c)
	if voterID == "" {
		return unauthorized(c)
	}

	cred, err := h.voting.RequestCredential(c.Request().Context(), voterID, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	remaining := h.voting.Remaining(cred)
	return c.JSON(http.StatusOK, CredentialResponse{
		ID:               cred.ID,
		ElectionID:       cred.ElectionID,
		Token:            cred.Token,
		IssuedAt:         cred.IssuedAt,
		ExpiresAt:        cred.ExpiresAt,
		RemainingSeconds: seconds(remaining),
		Countdown:        voting.Countdown(remaining),
	})
}

// History lists the voter's voting links, newest first.
func (h *Handlers) History(c echo.Context) error {
	voterID := appcontext.VoterID(c)
	if voterID == "" {
		return unauthorized(c)
	}

	entries, err := h.voting.History(c.Request().Context(), voterID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// GetBallot opens the ballot of a voting link.
func (h *Handlers) GetBallot(c echo.Context) error {
	voterID := appcontext.VoterID(c)
	if voterID == "" {
		return unauthorized(c)
	}

	bc, err := h.voting.GetBallotContext(c.Request().Context(), voterID, c.Param("token"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, BallotResponse{
		Election:         bc.Election,
		Candidates:       bc.Candidates,
		ExpiresAt:        bc.Credential.ExpiresAt,
		RemainingSeconds: seconds(bc.Remaining),
		Countdown:        voting.Countdown(bc.Remaining),
	})
}

// SubmitVote casts the ballot of a voting link.
func (h *Handlers) SubmitVote(c echo.Context) error {
	voterID := appcontext.VoterID(c)
	if voterID == "" {
		return unauthorized(c)
	}

	var req VoteRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, voting.ErrValidation)
	}

	var proof *identity.Artifact
	if req.IdentityProof != "" {
		a, err := identity.DecodeDataURL(req.IdentityProof)
		if err != nil {
			slog.Warn("ignoring identity proof", "voter_id", voterID, "error", err)
		} else {
			proof = a
		}
	}

	receipt, err := h.voting.SubmitVote(c.Request().Context(), voting.SubmitRequest{
		VoterID:     voterID,
		Token:       c.Param("token"),
		CandidateID: req.CandidateID,
		Proof:       proof,
		Locator:     identity.Reported(req.Location),
		UserAgent:   c.Request().UserAgent(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, receipt)
}

// VerifyReceipt confirms that a ballot with the given integrity hash exists.
func (h *Handlers) VerifyReceipt(c echo.Context) error {
	receipt, err := h.voting.VerifyReceipt(c.Request().Context(), c.Param("hash"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, receipt)
}
