// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package voting_test

import (
	"testing"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/voting"
	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	expires := t0.Add(120 * time.Second)

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{"fresh", t0, 120 * time.Second},
		{"halfway", t0.Add(60 * time.Second), 60 * time.Second},
		{"at expiry", expires, 0},
		{"past expiry", t0.Add(130 * time.Second), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, voting.Remaining(expires, tt.now))
			assert.Equal(t, tt.want == 0, voting.Expired(expires, tt.now))
		})
	}
}

func TestCountdown(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{120 * time.Second, "2:00"},
		{119 * time.Second, "1:59"},
		{61*time.Second + 200*time.Millisecond, "1:02"},
		{9 * time.Second, "0:09"},
		{time.Millisecond, "0:01"},
		{0, "0:00"},
		{-time.Second, "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, voting.Countdown(tt.in))
		})
	}
}

func TestSystemClock_UTC(t *testing.T) {
	assert.Equal(t, time.UTC, voting.SystemClock.Now().Location())
}
