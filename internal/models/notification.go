// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Notification kinds.
const (
	NotificationSuccess = "success"
	NotificationInfo    = "info"
	NotificationWarning = "warning"
)

// Notification is a message shown to a voter on the dashboard.
type Notification struct { //nolint:govet // fieldalignment not critical for models
	ID        int64     `db:"id" json:"id"`
	VoterID   string    `db:"voter_id" json:"voter_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Kind      string    `db:"kind" json:"kind"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
