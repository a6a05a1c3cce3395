// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package voting_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/identity"
	"codeberg.org/oliverandrich/votelink/internal/models"
	"codeberg.org/oliverandrich/votelink/internal/repository"
	"codeberg.org/oliverandrich/votelink/internal/testutil"
	"codeberg.org/oliverandrich/votelink/internal/voting"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

var t0 = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

type recordingAudit struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (a *recordingAudit) Record(ev models.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.events))
	for i, ev := range a.events {
		out[i] = ev.Action
	}
	return out
}

func (a *recordingAudit) last(action string) *models.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := len(a.events) - 1; i >= 0; i-- {
		if a.events[i].Action == action {
			ev := a.events[i]
			return &ev
		}
	}
	return nil
}

type notification struct {
	voterID, kind, messageID string
	data                     map[string]any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, voterID, kind, messageID string, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{voterID, kind, messageID, data})
	return n.err
}

type published struct {
	voterID, event string
}

type recordingEvents struct {
	mu  sync.Mutex
	got []published
}

func (e *recordingEvents) Publish(voterID, event string, _ any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, published{voterID, event})
}

type fakeArtifacts struct {
	mu      sync.Mutex
	keys    []string
	deleted []string
	err     error
	onPut   func() // runs inside PutArtifact, e.g. to let time pass
}

func (f *fakeArtifacts) PutArtifact(_ context.Context, key string, _ *identity.Artifact) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onPut != nil {
		f.onPut()
	}
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "file://" + key, nil
}

func (f *fakeArtifacts) DeleteArtifact(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return nil
}

type env struct {
	db         *sqlx.DB
	repo       *repository.Repository
	clock      *testutil.FakeClock
	audit      *recordingAudit
	notifier   *recordingNotifier
	events     *recordingEvents
	artifacts  *fakeArtifacts
	svc        *voting.Service
	voterID    string
	election   *models.Election
	candidates []*models.Candidate
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, repo := testutil.NewTestDB(t)
	return buildEnv(t, db, repo)
}

func newFileEnv(t *testing.T) *env {
	t.Helper()
	db, repo := testutil.NewFileTestDB(t)
	return buildEnv(t, db, repo)
}

func buildEnv(t *testing.T, db *sqlx.DB, repo *repository.Repository) *env {
	t.Helper()
	e := &env{
		db:        db,
		repo:      repo,
		clock:     testutil.NewFakeClock(t0),
		audit:     &recordingAudit{},
		notifier:  &recordingNotifier{},
		events:    &recordingEvents{},
		artifacts: &fakeArtifacts{},
		voterID:   "voter-1",
	}
	testutil.NewTestVoter(t, repo, e.voterID, true)
	e.election = testutil.NewTestElection(t, repo, "Board", t0)
	e.candidates = []*models.Candidate{
		testutil.NewTestCandidate(t, repo, e.election.ID, "Bob", 2),
		testutil.NewTestCandidate(t, repo, e.election.ID, "Alice", 1),
	}
	e.svc = e.service(repo)
	return e
}

func (e *env) service(store voting.Store) *voting.Service {
	return voting.NewService(store, e.repo, voting.Options{
		LinkTTL:         120 * time.Second,
		LocationTimeout: time.Second,
		Clock:           e.clock,
		Artifacts:       e.artifacts,
		Notifier:        e.notifier,
		Audit:           e.audit,
		Events:          e.events,
	})
}

func (e *env) issue(t *testing.T) *models.VotingCredential {
	t.Helper()
	cred, err := e.svc.RequestCredential(context.Background(), e.voterID, e.election.ID)
	require.NoError(t, err)
	return cred
}

func (e *env) submit(cred *models.VotingCredential, candidateID string) (*voting.Receipt, error) {
	return e.svc.SubmitVote(context.Background(), voting.SubmitRequest{
		VoterID:     cred.VoterID,
		Token:       cred.Token,
		CandidateID: candidateID,
	})
}

var errUploadFailed = errors.New("bucket unavailable")
