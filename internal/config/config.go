// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	TLS      TLSConfig
	Session  SessionConfig
	Voting   VotingConfig
	Storage  StorageConfig
}

type TLSConfig struct {
	Mode     string // off, acme, manual
	CertDir  string // ACME certificate cache
	Email    string // ACME email for Let's Encrypt
	CertFile string // Path to certificate file (manual mode)
	KeyFile  string // Path to private key file (manual mode)
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

// SessionConfig describes the voter session cookie. The cookie is issued by
// the account service; both sides share the hash and block keys.
type SessionConfig struct { //nolint:govet // fieldalignment not critical
	CookieName string // Session cookie name
	MaxAge     int    // Session max age in seconds
	HashKey    string // 32-byte hex string for HMAC signing
	BlockKey   string // 32-byte hex string for AES encryption (optional)
}

// VotingConfig holds the voting-link protocol parameters.
type VotingConfig struct {
	LinkTTL         time.Duration // lifetime of a voting link
	LocationTimeout time.Duration // bound for location acquisition
	UploadTimeout   time.Duration // bound for a single proof upload attempt
	UploadRetries   int           // extra upload attempts after the first
	AuditBuffer     int           // queued audit events before dropping
}

type StorageConfig struct {
	Dir string // root directory for uploaded artifacts
}

// Default voting parameters.
const (
	DefaultLinkTTL         = 120 * time.Second
	DefaultLocationTimeout = 5 * time.Second
	DefaultUploadTimeout   = 5 * time.Second
	DefaultUploadRetries   = 2
	DefaultAuditBuffer     = 256
)

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		TLS: TLSConfig{
			Mode:     cmd.String("tls-mode"),
			CertDir:  cmd.String("tls-cert-dir"),
			Email:    cmd.String("tls-email"),
			CertFile: cmd.String("tls-cert-file"),
			KeyFile:  cmd.String("tls-key-file"),
		},
		Session: SessionConfig{
			CookieName: cmd.String("session-cookie-name"),
			MaxAge:     int(cmd.Int("session-max-age")),
			HashKey:    cmd.String("session-hash-key"),
			BlockKey:   cmd.String("session-block-key"),
		},
		Voting: VotingConfig{
			LinkTTL:         cmd.Duration("link-ttl"),
			LocationTimeout: cmd.Duration("location-timeout"),
			UploadTimeout:   cmd.Duration("upload-timeout"),
			UploadRetries:   int(cmd.Int("upload-retries")),
			AuditBuffer:     int(cmd.Int("audit-buffer")),
		},
		Storage: StorageConfig{
			Dir: cmd.String("storage-dir"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	applyVotingDefaults(&cfg.Voting)

	return cfg
}

// applyVotingDefaults replaces zero or negative values with defaults.
func applyVotingDefaults(v *VotingConfig) {
	if v.LinkTTL <= 0 {
		v.LinkTTL = DefaultLinkTTL
	}
	if v.LocationTimeout <= 0 {
		v.LocationTimeout = DefaultLocationTimeout
	}
	if v.UploadTimeout <= 0 {
		v.UploadTimeout = DefaultUploadTimeout
	}
	if v.UploadRetries < 0 {
		v.UploadRetries = 0
	}
	if v.AuditBuffer <= 0 {
		v.AuditBuffer = DefaultAuditBuffer
	}
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port
	mode := strings.ToLower(cfg.TLS.Mode)

	scheme := "http"
	if mode == "acme" || mode == "manual" {
		scheme = "https"
	}

	// ACME mode always uses port 443
	if mode == "acme" {
		return fmt.Sprintf("https://%s", host)
	}

	// Hide default ports in URL
	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	// Check for *.localhost subdomains (e.g., app.localhost)
	return strings.HasSuffix(host, ".localhost")
}

func source(env, key string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.EnvVar(env), toml.TOML(key, configFile))
}

// Flags returns the flags shared by all commands.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: source("LOG_LEVEL", "log.level"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: source("LOG_FORMAT", "log.format"),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/votelink.db",
			Usage:   "Database DSN",
			Sources: source("DATABASE_DSN", "database.dsn"),
		},
	}
}

// ServeFlags returns the flags of the serve command.
func ServeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: source("HOST", "server.host"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: source("PORT", "server.port"),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for the application",
			Sources: source("BASE_URL", "server.base_url"),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   8,
			Usage:   "Maximum request body size in MB",
			Sources: source("MAX_BODY_SIZE", "server.max_body_size"),
		},
		&cli.StringFlag{
			Name:    "tls-mode",
			Value:   "off",
			Usage:   "TLS mode (off, acme, manual)",
			Sources: source("TLS_MODE", "tls.mode"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-dir",
			Value:   "./data/certs",
			Usage:   "Directory for ACME certificates",
			Sources: source("TLS_CERT_DIR", "tls.cert_dir"),
		},
		&cli.StringFlag{
			Name:    "tls-email",
			Usage:   "Email for ACME/Let's Encrypt registration",
			Sources: source("TLS_EMAIL", "tls.email"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file (manual mode)",
			Sources: source("TLS_CERT_FILE", "tls.cert_file"),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file (manual mode)",
			Sources: source("TLS_KEY_FILE", "tls.key_file"),
		},
		&cli.DurationFlag{
			Name:    "link-ttl",
			Value:   DefaultLinkTTL,
			Usage:   "Lifetime of a voting link",
			Sources: source("LINK_TTL", "voting.link_ttl"),
		},
		&cli.DurationFlag{
			Name:    "location-timeout",
			Value:   DefaultLocationTimeout,
			Usage:   "Upper bound for location acquisition",
			Sources: source("LOCATION_TIMEOUT", "voting.location_timeout"),
		},
		&cli.DurationFlag{
			Name:    "upload-timeout",
			Value:   DefaultUploadTimeout,
			Usage:   "Upper bound for one identity proof upload attempt",
			Sources: source("UPLOAD_TIMEOUT", "voting.upload_timeout"),
		},
		&cli.IntFlag{
			Name:    "upload-retries",
			Value:   DefaultUploadRetries,
			Usage:   "Retries for a failed identity proof upload",
			Sources: source("UPLOAD_RETRIES", "voting.upload_retries"),
		},
		&cli.IntFlag{
			Name:    "audit-buffer",
			Value:   DefaultAuditBuffer,
			Usage:   "Number of queued audit events before new ones are dropped",
			Sources: source("AUDIT_BUFFER", "voting.audit_buffer"),
		},
		&cli.StringFlag{
			Name:    "storage-dir",
			Value:   "./data/artifacts",
			Usage:   "Directory for uploaded identity proofs",
			Sources: source("STORAGE_DIR", "storage.dir"),
		},
	}
}

// SessionFlags returns the session cookie flags (used by serve and session).
func SessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "session-cookie-name",
			Value:   "_session",
			Usage:   "Session cookie name",
			Sources: source("SESSION_COOKIE_NAME", "session.cookie_name"),
		},
		&cli.IntFlag{
			Name:    "session-max-age",
			Value:   604800, // 7 days in seconds
			Usage:   "Session max age in seconds",
			Sources: source("SESSION_MAX_AGE", "session.max_age"),
		},
		&cli.StringFlag{
			Name:    "session-hash-key",
			Usage:   "Session hash key (32-byte hex, auto-generated if empty in dev)",
			Sources: source("SESSION_HASH_KEY", "session.hash_key"),
		},
		&cli.StringFlag{
			Name:    "session-block-key",
			Usage:   "Session block key for encryption (32-byte hex, optional)",
			Sources: source("SESSION_BLOCK_KEY", "session.block_key"),
		},
	}
}
