// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Audit actions recorded by the voting protocol.
const (
	ActionCredentialIssued    = "credential_issued"
	ActionCredentialReused    = "credential_reused"
	ActionCredentialRefreshed = "credential_refreshed"
	ActionCredentialRejected  = "credential_rejected"
	ActionBallotOpened        = "ballot_opened"
	ActionProofDegraded       = "identity_proof_degraded"
	ActionVoteCast            = "vote_cast"
	ActionVoteRejected        = "vote_rejected"
)

// AuditEvent is an append-only protocol log entry.
type AuditEvent struct { //nolint:govet // fieldalignment not critical for models
	ID         int64     `db:"id" json:"id"`
	VoterID    *string   `db:"voter_id" json:"voter_id,omitempty"`
	ElectionID *string   `db:"election_id" json:"election_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Details    Details   `db:"details" json:"details,omitempty"`
	Location   *Location `db:"location" json:"location,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
