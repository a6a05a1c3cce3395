// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"codeberg.org/oliverandrich/votelink/internal/appcontext"
	"codeberg.org/oliverandrich/votelink/internal/repository"
	"codeberg.org/oliverandrich/votelink/internal/voting"
	"github.com/labstack/echo/v4"
)

// ListNotifications returns the voter's notifications.
func (h *Handlers) ListNotifications(c echo.Context) error {
	voterID := appcontext.VoterID(c)
	if voterID == "" {
		return unauthorized(c)
	}

	list, err := h.notify.List(c.Request().Context(), voterID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// MarkNotificationRead marks a notification as read.
func (h *Handlers) MarkNotificationRead(c echo.Context) error {
	voterID := appcontext.VoterID(c)
	if voterID == "" {
		return unauthorized(c)
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondError(c, voting.ErrValidation)
	}

	err = h.notify.MarkRead(c.Request().Context(), id, voterID)
	if errors.Is(err, repository.ErrNotFound) {
		return respondError(c, voting.ErrNotFound)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
