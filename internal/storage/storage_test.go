// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var proof = &identity.Artifact{Data: []byte("jpeg"), ContentType: "image/jpeg"}

func TestPutArtifact(t *testing.T) {
	root := t.TempDir()
	s := NewFS(root, time.Second, 2)

	ref, err := s.PutArtifact(context.Background(), "proofs/v1/vote-1.jpg", proof)

	require.NoError(t, err)
	assert.Equal(t, "proofs/v1/vote-1.jpg", ref)

	data, err := os.ReadFile(filepath.Join(root, "proofs", "v1", "vote-1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	opened, err := s.Open(ref)
	require.NoError(t, err)
	assert.Equal(t, data, opened)

	leftovers, err := filepath.Glob(filepath.Join(root, "proofs", "v1", ".upload-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestPutArtifact_InvalidKey(t *testing.T) {
	s := NewFS(t.TempDir(), time.Second, 0)

	for _, key := range []string{"", "../escape.jpg", "/etc/passwd", "proofs/../../x"} {
		t.Run(key, func(t *testing.T) {
			_, err := s.PutArtifact(context.Background(), key, proof)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestPutArtifact_RetriesThenSucceeds(t *testing.T) {
	s := NewFS(t.TempDir(), time.Second, 2)
	var calls atomic.Int32
	s.write = func(path string, data []byte) error {
		if calls.Add(1) < 3 {
			return errors.New("temporarily unavailable")
		}
		return writeAtomic(path, data)
	}

	_, err := s.PutArtifact(context.Background(), "proofs/v1/vote-1.jpg", proof)

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPutArtifact_GivesUp(t *testing.T) {
	s := NewFS(t.TempDir(), time.Second, 1)
	var calls atomic.Int32
	s.write = func(string, []byte) error {
		calls.Add(1)
		return errors.New("disk full")
	}

	_, err := s.PutArtifact(context.Background(), "proofs/v1/vote-1.jpg", proof)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, int32(2), calls.Load())
}

func TestPutArtifact_AttemptTimeout(t *testing.T) {
	s := NewFS(t.TempDir(), 20*time.Millisecond, 0)
	release := make(chan struct{})
	defer close(release)
	s.write = func(string, []byte) error {
		<-release
		return nil
	}

	start := time.Now()
	_, err := s.PutArtifact(context.Background(), "proofs/v1/vote-1.jpg", proof)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDeleteArtifact(t *testing.T) {
	root := t.TempDir()
	s := NewFS(root, time.Second, 0)
	ctx := context.Background()

	ref, err := s.PutArtifact(ctx, "proofs/v1/vote-1.jpg", proof)
	require.NoError(t, err)

	require.NoError(t, s.DeleteArtifact(ctx, ref))
	_, err = os.Stat(filepath.Join(root, "proofs", "v1", "vote-1.jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.NoError(t, s.DeleteArtifact(ctx, ref), "deleting twice is fine")
	assert.ErrorIs(t, s.DeleteArtifact(ctx, "../outside.jpg"), ErrInvalidKey)
}
