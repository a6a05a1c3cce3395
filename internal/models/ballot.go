// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Ballot is a committed vote. Exactly one ballot references a credential.
type Ballot struct { //nolint:govet // fieldalignment: readability over optimization
	ID               string    `db:"id" json:"id"`
	ElectionID       string    `db:"election_id" json:"election_id"`
	CandidateID      string    `db:"candidate_id" json:"candidate_id"`
	CredentialID     string    `db:"credential_id" json:"credential_id"`
	IntegrityHash    string    `db:"integrity_hash" json:"integrity_hash"`
	IdentityProofRef *string   `db:"identity_proof_ref" json:"identity_proof_ref,omitempty"`
	Location         *Location `db:"location" json:"location,omitempty"`
	UserAgent        *string   `db:"user_agent" json:"-"`
	CastAt           time.Time `db:"cast_at" json:"cast_at"`
}
