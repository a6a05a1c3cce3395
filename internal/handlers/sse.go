// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/appcontext"
	"codeberg.org/oliverandrich/votelink/internal/sse"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const heartbeatInterval = 30 * time.Second

// Events streams the voter's realtime events. Every open tab holds one
// stream, so a vote cast in one tab is announced in all others.
func (h *Handlers) Events(c echo.Context) error {
	voterID := appcontext.VoterID(c)
	if voterID == "" {
		return unauthorized(c)
	}

	w := c.Response()
	flusher, ok := w.Writer.(http.Flusher)
	if !ok {
		return c.String(http.StatusInternalServerError, "SSE not supported")
	}

	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	group := c.Response().Header().Get(echo.HeaderXRequestID)
	if group == "" {
		group = uuid.NewString()
	}
	ch := h.hub.Register(group, voterID)
	defer h.hub.Unregister(group, voterID, ch)

	h.hub.SendToGroup(group, sse.FormatEvent("connected", "ok"))

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Write([]byte(sse.Heartbeat)); err != nil {
				return nil // Client disconnected
			}
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if _, err := w.Write([]byte(msg)); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
