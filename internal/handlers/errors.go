// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/votelink/internal/i18n"
	"codeberg.org/oliverandrich/votelink/internal/voting"
	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var statusByKind = map[string]int{
	voting.KindValidation:   http.StatusBadRequest,
	voting.KindNotVerified:  http.StatusForbidden,
	voting.KindNotFound:     http.StatusNotFound,
	voting.KindExpired:      http.StatusGone,
	voting.KindAlreadyVoted: http.StatusConflict,
	voting.KindConflict:     http.StatusConflict,
}

// StatusFor returns the HTTP status of a protocol error.
func StatusFor(err error) int {
	if status, ok := statusByKind[voting.Kind(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes err as a localized ErrorResponse.
func respondError(c echo.Context, err error) error {
	kind := voting.Kind(err)
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
		kind = voting.KindUnknown
	}
	return c.JSON(status, ErrorResponse{
		Error:   kind,
		Message: i18n.Error(c.Request().Context(), kind),
	})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: i18n.T(c.Request().Context(), "error_unauthorized"),
	})
}
