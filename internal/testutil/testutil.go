// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/database"
	"codeberg.org/oliverandrich/votelink/internal/models"
	"codeberg.org/oliverandrich/votelink/internal/repository"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	return openTestDB(t, ":memory:")
}

// NewFileTestDB creates a file-backed database in t.TempDir(). Unlike the
// in-memory variant it serves several pooled connections, so concurrent
// writers really race.
func NewFileTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	return openTestDB(t, filepath.Join(t.TempDir(), "test.db"))
}

func openTestDB(t *testing.T, dsn string) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, repository.New(db)
}

// NewTestVoter creates a voter profile.
func NewTestVoter(t *testing.T, repo *repository.Repository, id string, verified bool) *models.VoterProfile {
	t.Helper()
	p := &models.VoterProfile{ID: id, FullName: "Voter " + id, Verified: verified}
	require.NoError(t, repo.UpsertVoterProfile(context.Background(), p))
	return p
}

// NewTestElection creates an active election open from a day before now
// until a week after now.
func NewTestElection(t *testing.T, repo *repository.Repository, title string, now time.Time) *models.Election {
	t.Helper()
	e := &models.Election{
		ID:          uuid.NewString(),
		Title:       title,
		Description: "Test election " + title,
		StartDate:   now.Add(-24 * time.Hour),
		EndDate:     now.Add(7 * 24 * time.Hour),
		Active:      true,
		CreatedAt:   now,
	}
	require.NoError(t, repo.UpsertElection(context.Background(), e))
	return e
}

// NewTestCandidate creates a candidate of an election.
func NewTestCandidate(t *testing.T, repo *repository.Repository, electionID, name string, position int) *models.Candidate {
	t.Helper()
	c := &models.Candidate{
		ID:         uuid.NewString(),
		ElectionID: electionID,
		Name:       name,
		Position:   position,
	}
	require.NoError(t, repo.UpsertCandidate(context.Background(), c))
	return c
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
