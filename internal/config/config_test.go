// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v3"
)

func allFlags() []cli.Flag {
	return slices.Concat(Flags(), ServeFlags(), SessionFlags())
}

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"", true},
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"app.localhost", true},
		{"example.com", false},
		{"192.168.1.1", false},
		{"localhost.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLocalhost(tt.host))
		})
	}
}

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		expected string
	}{
		{
			name: "HTTP default port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 80},
				TLS:    TLSConfig{Mode: "off"},
			},
			expected: "http://localhost",
		},
		{
			name: "HTTP custom port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 8080},
				TLS:    TLSConfig{Mode: "off"},
			},
			expected: "http://localhost:8080",
		},
		{
			name: "manual TLS custom port",
			cfg: &Config{
				Server: ServerConfig{Host: "vote.example.com", Port: 8443},
				TLS:    TLSConfig{Mode: "manual"},
			},
			expected: "https://vote.example.com:8443",
		},
		{
			name: "manual TLS default port",
			cfg: &Config{
				Server: ServerConfig{Host: "vote.example.com", Port: 443},
				TLS:    TLSConfig{Mode: "manual"},
			},
			expected: "https://vote.example.com",
		},
		{
			name: "ACME mode forces port 443",
			cfg: &Config{
				Server: ServerConfig{Host: "vote.example.com", Port: 8080},
				TLS:    TLSConfig{Mode: "acme"},
			},
			expected: "https://vote.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildBaseURL(tt.cfg))
		})
	}
}

func TestApplyVotingDefaults(t *testing.T) {
	t.Run("fills zero values", func(t *testing.T) {
		v := VotingConfig{UploadRetries: -1}

		applyVotingDefaults(&v)

		assert.Equal(t, DefaultLinkTTL, v.LinkTTL)
		assert.Equal(t, DefaultLocationTimeout, v.LocationTimeout)
		assert.Equal(t, DefaultUploadTimeout, v.UploadTimeout)
		assert.Equal(t, 0, v.UploadRetries)
		assert.Equal(t, DefaultAuditBuffer, v.AuditBuffer)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		v := VotingConfig{
			LinkTTL:         time.Minute,
			LocationTimeout: time.Second,
			UploadTimeout:   2 * time.Second,
			UploadRetries:   5,
			AuditBuffer:     10,
		}

		applyVotingDefaults(&v)

		assert.Equal(t, time.Minute, v.LinkTTL)
		assert.Equal(t, time.Second, v.LocationTimeout)
		assert.Equal(t, 2*time.Second, v.UploadTimeout)
		assert.Equal(t, 5, v.UploadRetries)
		assert.Equal(t, 10, v.AuditBuffer)
	})
}

func TestFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range allFlags() {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	assert.True(t, flagNames["host"], "should have host flag")
	assert.True(t, flagNames["port"], "should have port flag")
	assert.True(t, flagNames["log-level"], "should have log-level flag")
	assert.True(t, flagNames["database-dsn"], "should have database-dsn flag")
	assert.True(t, flagNames["tls-mode"], "should have tls-mode flag")
	assert.True(t, flagNames["link-ttl"], "should have link-ttl flag")
	assert.True(t, flagNames["storage-dir"], "should have storage-dir flag")
	assert.True(t, flagNames["session-cookie-name"], "should have session-cookie-name flag")
}

func TestNewFromCLI(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: allFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "localhost", cfg.Server.Host)
			assert.Equal(t, 8080, cfg.Server.Port)
			assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
			assert.Equal(t, "info", cfg.Log.Level)
			assert.Equal(t, "_session", cfg.Session.CookieName)
			assert.Equal(t, 120*time.Second, cfg.Voting.LinkTTL)
			assert.Equal(t, 5*time.Second, cfg.Voting.LocationTimeout)
			assert.Equal(t, 2, cfg.Voting.UploadRetries)
			assert.Equal(t, "./data/artifacts", cfg.Storage.Dir)

			return nil
		},
	}

	err := app.Run(context.Background(), []string{"test"})
	assert.NoError(t, err)
}

func TestNewFromCLI_WithCustomValues(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: allFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "0.0.0.0", cfg.Server.Host)
			assert.Equal(t, 9000, cfg.Server.Port)
			assert.Equal(t, "https://vote.example.com", cfg.Server.BaseURL)
			assert.Equal(t, "./data/test.db", cfg.Database.DSN)
			assert.Equal(t, 90*time.Second, cfg.Voting.LinkTTL)
			assert.Equal(t, 0, cfg.Voting.UploadRetries)

			return nil
		},
	}

	args := []string{
		"test",
		"--host", "0.0.0.0",
		"--port", "9000",
		"--base-url", "https://vote.example.com",
		"--database-dsn", "./data/test.db",
		"--link-ttl", "90s",
		"--upload-retries", "0",
	}
	err := app.Run(context.Background(), args)
	assert.NoError(t, err)
}
