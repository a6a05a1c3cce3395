// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package storage keeps uploaded identity proofs on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/identity"
	"github.com/sethvargo/go-retry"
)

// ErrInvalidKey is returned for keys that would escape the storage root.
var ErrInvalidKey = errors.New("invalid artifact key")

const retryBase = 100 * time.Millisecond

// FS is an artifact store rooted at a directory. Each upload attempt is
// bounded by a timeout and failed attempts are retried with exponential
// backoff.
type FS struct {
	root    string
	timeout time.Duration
	retries uint64
	write   func(path string, data []byte) error
}

// NewFS creates a store below root. retries is the number of attempts after
// the first one.
func NewFS(root string, timeout time.Duration, retries int) *FS {
	if retries < 0 {
		retries = 0
	}
	return &FS{
		root:    root,
		timeout: timeout,
		retries: uint64(retries),
		write:   writeAtomic,
	}
}

// PutArtifact stores a under key and returns key as its reference.
func (s *FS) PutArtifact(ctx context.Context, key string, a *identity.Artifact) (string, error) {
	path, err := s.path(key)
	if err != nil {
		return "", err
	}

	backoff := retry.WithMaxRetries(s.retries, retry.NewExponential(retryBase))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := s.writeWithTimeout(ctx, path, a.Data); err != nil {
			slog.Debug("artifact upload attempt failed", "key", key, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store %s after %d attempts: %w", key, attempt, err)
	}
	return key, nil
}

// DeleteArtifact removes the artifact referenced by ref. A missing artifact
// is not an error.
func (s *FS) DeleteArtifact(_ context.Context, ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Open returns the content stored under key.
func (s *FS) Open(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path) //nolint:gosec // path is confined to the storage root
}

func (s *FS) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *FS) writeWithTimeout(ctx context.Context, path string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.write(path, data)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writeAtomic writes data next to path and renames it into place, so a
// reader never sees a partial artifact.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
