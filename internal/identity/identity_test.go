// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package identity_test

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/identity"
	"codeberg.org/oliverandrich/votelink/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURL(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff, 0xe0}
	url := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload)

	a, err := identity.DecodeDataURL(url)

	require.NoError(t, err)
	assert.Equal(t, payload, a.Data)
	assert.Equal(t, "image/jpeg", a.ContentType)
	assert.Equal(t, "jpg", a.Ext())
}

func TestDecodeDataURL_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no prefix", "image/png;base64,AAAA"},
		{"no payload", "data:image/png;base64"},
		{"not base64", "data:image/png,AAAA"},
		{"unsupported type", "data:text/html;base64,PGgxPg=="},
		{"broken base64", "data:image/png;base64,!!!"},
		{"empty payload", "data:image/png;base64,"},
		{"too large", "data:image/png;base64," + strings.Repeat("A", identity.MaxArtifactSize*2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := identity.DecodeDataURL(tt.input)
			assert.ErrorIs(t, err, identity.ErrInvalidArtifact)
		})
	}
}

func TestArtifact_ExtUnknown(t *testing.T) {
	a := &identity.Artifact{ContentType: "application/octet-stream"}
	assert.Equal(t, "bin", a.Ext())
}

func TestAcquire_Reported(t *testing.T) {
	loc := &models.Location{Latitude: 52.52, Longitude: 13.405, Accuracy: 10, Timestamp: 1}

	got := identity.Acquire(context.Background(), identity.Reported(loc), time.Second)

	require.NotNil(t, got)
	assert.Equal(t, *loc, *got)
}

func TestAcquire_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		locator identity.Locator
	}{
		{"nil locator", nil},
		{"nil location", identity.Reported(nil)},
		{"latitude out of range", identity.Reported(&models.Location{Latitude: 91})},
		{"longitude out of range", identity.Reported(&models.Location{Longitude: -181})},
		{"negative accuracy", identity.Reported(&models.Location{Accuracy: -1})},
		{"failing locator", identity.LocatorFunc(func(context.Context) (*models.Location, error) {
			return nil, errors.New("denied")
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, identity.Acquire(context.Background(), tt.locator, time.Second))
		})
	}
}

func TestAcquire_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	slow := identity.LocatorFunc(func(context.Context) (*models.Location, error) {
		<-release
		return &models.Location{}, nil
	})

	start := time.Now()
	got := identity.Acquire(context.Background(), slow, 20*time.Millisecond)

	assert.Nil(t, got)
	assert.Less(t, time.Since(start), time.Second)
}
