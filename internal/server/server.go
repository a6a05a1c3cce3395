// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/audit"
	"codeberg.org/oliverandrich/votelink/internal/config"
	"codeberg.org/oliverandrich/votelink/internal/database"
	"codeberg.org/oliverandrich/votelink/internal/handlers"
	"codeberg.org/oliverandrich/votelink/internal/i18n"
	"codeberg.org/oliverandrich/votelink/internal/repository"
	"codeberg.org/oliverandrich/votelink/internal/services/notify"
	"codeberg.org/oliverandrich/votelink/internal/services/session"
	"codeberg.org/oliverandrich/votelink/internal/sse"
	"codeberg.org/oliverandrich/votelink/internal/storage"
	"codeberg.org/oliverandrich/votelink/internal/voting"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

// App holds the wired application.
type App struct {
	Echo  *echo.Echo
	Audit *audit.Recorder
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	SetupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"link_ttl", cfg.Voting.LinkTTL,
	)

	// Database (applies pending migrations)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	app, err := New(cfg, repository.New(db), voting.SystemClock)
	if err != nil {
		return err
	}

	return startWithGracefulShutdown(ctx, app, cfg)
}

// New wires repository, services, middleware and routes into an App.
func New(cfg *config.Config, repo *repository.Repository, clock voting.Clock) (*App, error) {
	secure := strings.HasPrefix(cfg.Server.BaseURL, "https://")
	sessions, err := session.NewManager(&cfg.Session, secure)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	recorder := audit.NewRecorder(repo, cfg.Voting.AuditBuffer)
	hub := sse.NewHub()
	notifications := notify.New(repo, hub)
	artifacts := storage.NewFS(cfg.Storage.Dir, cfg.Voting.UploadTimeout, cfg.Voting.UploadRetries)

	svc := voting.NewService(repo, repo, voting.Options{
		LinkTTL:         cfg.Voting.LinkTTL,
		LocationTimeout: cfg.Voting.LocationTimeout,
		Clock:           clock,
		Artifacts:       artifacts,
		Notifier:        notifications,
		Audit:           recorder,
		Events:          hub,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg, sessions)
	setupRoutes(e, handlers.New(repo, svc, notifications, hub))

	return &App{Echo: e, Audit: recorder}, nil
}

func setupRoutes(e *echo.Echo, h *handlers.Handlers) {
	e.GET("/health", h.Health)

	api := e.Group("/api")
	api.GET("/elections", h.ListElections)
	api.POST("/elections/:id/credential", h.RequestCredential)
	api.GET("/credentials", h.History)
	api.GET("/ballot/:token", h.GetBallot)
	api.POST("/ballot/:token", h.SubmitVote)
	api.GET("/receipts/:hash", h.VerifyReceipt)
	api.GET("/notifications", h.ListNotifications)
	api.POST("/notifications/:id/read", h.MarkNotificationRead)
	api.GET("/events", h.Events)
}

func startWithGracefulShutdown(ctx context.Context, app *App, cfg *config.Config) error {
	e := app.Echo

	tlsResult, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	errChan := make(chan error, 2)

	// HTTP redirect server for ACME mode
	var httpServer *http.Server

	switch tlsResult.Mode {
	case TLSModeOff:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeACME:
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, ":443", tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		httpServer = &http.Server{
			Addr:              ":80",
			Handler:           tlsResult.HTTPHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("HTTP redirect active", "addr", ":80")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeManual:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, addr, tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown main server", "error", err)
	}

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown HTTP redirect server", "error", err)
		}
	}

	// Flush queued audit events before the database closes.
	if err := app.Audit.Close(shutdownCtx); err != nil {
		slog.Error("failed to flush audit events", "error", err, "dropped", app.Audit.Dropped())
	}

	slog.Info("server stopped")
	return nil
}

// startTLSServer starts the Echo server with a custom TLS configuration.
func startTLSServer(e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	e.TLSServer.TLSConfig = tlsConfig
	return e.Server.Serve(e.TLSListener)
}
