// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/votelink/internal/services/notify"
	"codeberg.org/oliverandrich/votelink/internal/sse"
	"codeberg.org/oliverandrich/votelink/internal/voting"
	"github.com/labstack/echo/v4"
)

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	db     Pinger
	voting *voting.Service
	notify *notify.Service
	hub    *sse.Hub
}

// New creates a new Handlers instance.
func New(db Pinger, svc *voting.Service, notifications *notify.Service, hub *sse.Hub) *Handlers {
	return &Handlers{
		db:     db,
		voting: svc,
		notify: notifications,
		hub:    hub,
	}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	if h.db != nil {
		if err := h.db.Ping(c.Request().Context()); err != nil {
			slog.Error("health check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
		}
	}
	res := map[string]any{"status": "ok"}
	if h.hub != nil {
		res["streams"] = h.hub.Stats()
	}
	return c.JSON(http.StatusOK, res)
}
