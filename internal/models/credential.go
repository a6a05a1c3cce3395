// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// VotingCredential is the single-use, time-boxed voting link of one voter
// for one election. There is at most one row per (VoterID, ElectionID) and a
// consumed row never changes again.
type VotingCredential struct { //nolint:govet // fieldalignment: readability over optimization
	ID          string     `db:"id" json:"id"`
	VoterID     string     `db:"voter_id" json:"voter_id"`
	ElectionID  string     `db:"election_id" json:"election_id"`
	Token       string     `db:"token" json:"token"`
	IssuedAt    time.Time  `db:"issued_at" json:"issued_at"`
	ExpiresAt   time.Time  `db:"expires_at" json:"expires_at"`
	ActivatedAt *time.Time `db:"activated_at" json:"activated_at,omitempty"`
	Consumed    bool       `db:"consumed" json:"consumed"`
}

// CredentialHistoryEntry is a credential joined with its election title.
type CredentialHistoryEntry struct {
	VotingCredential
	ElectionTitle string `db:"election_title" json:"election_title"`
}
