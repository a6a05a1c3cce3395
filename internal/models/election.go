// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Election is owned by the election administration; the voting core only reads it.
type Election struct { //nolint:govet // fieldalignment not critical for models
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	Active      bool      `db:"active" json:"active"`
	Guidelines  *string   `db:"guidelines" json:"guidelines,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Open reports whether the election accepts ballots at t.
func (e *Election) Open(t time.Time) bool {
	return e.Active && !t.Before(e.StartDate) && t.Before(e.EndDate)
}

// Candidate is a ballot option. Candidates are presented ordered by Position.
type Candidate struct { //nolint:govet // fieldalignment not critical for models
	ID          string  `db:"id" json:"id"`
	ElectionID  string  `db:"election_id" json:"election_id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
	PhotoURL    *string `db:"photo_url" json:"photo_url,omitempty"`
	Position    int     `db:"position" json:"position"`
}

// VoterProfile is the part of the voter registry the voting core needs.
type VoterProfile struct { //nolint:govet // fieldalignment not critical for models
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Verified  bool      `db:"verified" json:"verified"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ElectionStatus is an election as seen by one voter.
type ElectionStatus struct {
	Election
	HasVoted bool `db:"has_voted" json:"has_voted"`
}
