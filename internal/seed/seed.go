// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package seed loads voters, elections and candidates from a TOML file.
// It stands in for the onboarding and admin services that normally own
// this data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/models"
	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

// ErrInvalid is returned for seed files that fail validation.
var ErrInvalid = errors.New("invalid seed file")

// Store is what the seed loader writes to.
type Store interface {
	UpsertVoterProfile(ctx context.Context, p *models.VoterProfile) error
	UpsertElection(ctx context.Context, e *models.Election) error
	UpsertCandidate(ctx context.Context, c *models.Candidate) error
}

// File is the layout of a seed file:
//
//	[[voters]]
//	id = "voter-1"
//	name = "Ada Lovelace"
//	verified = true
//
//	[[elections]]
//	id = "board-2026"
//	title = "Board election"
//	start = 2026-10-01T00:00:00Z
//	end = 2026-11-01T00:00:00Z
//
//	  [[elections.candidates]]
//	  name = "Alice"
type File struct {
	Voters    []Voter    `toml:"voters"`
	Elections []Election `toml:"elections"`
}

type Voter struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	Verified bool   `toml:"verified"`
}

type Election struct { //nolint:govet // fieldalignment not critical
	ID          string      `toml:"id"`
	Title       string      `toml:"title"`
	Description string      `toml:"description"`
	Guidelines  string      `toml:"guidelines"`
	Start       time.Time   `toml:"start"`
	End         time.Time   `toml:"end"`
	Inactive    bool        `toml:"inactive"`
	Candidates  []Candidate `toml:"candidates"`
}

type Candidate struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	PhotoURL    string `toml:"photo_url"`
}

// Result counts the records written by Load.
type Result struct {
	Voters     int
	Elections  int
	Candidates int
}

// Parse decodes and validates a seed file.
func Parse(r io.Reader) (*File, error) {
	var f File
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %s", ErrInvalid, undecoded[0])
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// ParseFile reads and validates the seed file at path.
func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()
	return Parse(fh)
}

func (f *File) validate() error {
	for i, v := range f.Voters {
		if v.ID == "" {
			return fmt.Errorf("%w: voter %d has no id", ErrInvalid, i+1)
		}
	}
	for i, e := range f.Elections {
		if e.Title == "" {
			return fmt.Errorf("%w: election %d has no title", ErrInvalid, i+1)
		}
		if !e.End.After(e.Start) {
			return fmt.Errorf("%w: election %q ends before it starts", ErrInvalid, e.Title)
		}
		for j, c := range e.Candidates {
			if c.Name == "" {
				return fmt.Errorf("%w: candidate %d of %q has no name", ErrInvalid, j+1, e.Title)
			}
		}
	}
	return nil
}

// Load writes f to store. Records without an id get a fresh UUID, so only
// seed files with explicit ids can be loaded repeatedly.
func Load(ctx context.Context, store Store, f *File, now time.Time) (*Result, error) {
	var res Result

	for _, v := range f.Voters {
		p := &models.VoterProfile{
			ID:        v.ID,
			FullName:  v.Name,
			Verified:  v.Verified,
			CreatedAt: now,
		}
		if err := store.UpsertVoterProfile(ctx, p); err != nil {
			return nil, fmt.Errorf("voter %s: %w", v.ID, err)
		}
		res.Voters++
	}

	for _, e := range f.Elections {
		election := &models.Election{
			ID:          idOrNew(e.ID),
			Title:       e.Title,
			Description: e.Description,
			Guidelines:  optional(e.Guidelines),
			StartDate:   e.Start.UTC(),
			EndDate:     e.End.UTC(),
			Active:      !e.Inactive,
			CreatedAt:   now,
		}
		if err := store.UpsertElection(ctx, election); err != nil {
			return nil, fmt.Errorf("election %s: %w", e.Title, err)
		}
		res.Elections++

		for pos, c := range e.Candidates {
			candidate := &models.Candidate{
				ID:          idOrNew(c.ID),
				ElectionID:  election.ID,
				Name:        c.Name,
				Description: optional(c.Description),
				PhotoURL:    optional(c.PhotoURL),
				Position:    pos + 1,
			}
			if err := store.UpsertCandidate(ctx, candidate); err != nil {
				return nil, fmt.Errorf("candidate %s: %w", c.Name, err)
			}
			res.Candidates++
		}
	}

	return &res, nil
}

func idOrNew(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
