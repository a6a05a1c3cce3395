// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/votelink/internal/appcontext"
	"codeberg.org/oliverandrich/votelink/internal/config"
	"codeberg.org/oliverandrich/votelink/internal/i18n"
	"codeberg.org/oliverandrich/votelink/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func setupMiddleware(e *echo.Echo, cfg *config.Config, sessions *session.Manager) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxBodySize)))
	e.Use(csrfMiddleware(cfg))
	e.Use(i18nMiddleware())
	e.Use(voterSession(sessions))
}

// csrfMiddleware configures double-submit CSRF protection. The token cookie
// is readable by scripts, which echo it in the X-CSRF-Token header.
func csrfMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	secure := strings.HasPrefix(cfg.Server.BaseURL, "https://")

	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSecure:   secure,
		CookieHTTPOnly: false,
		CookieSameSite: http.SameSiteStrictMode,
	})
}

// requestLogger returns middleware that logs requests using slog.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", redactToken(c, v.URI)),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if voterID, ok := c.Get(voterIDKey).(string); ok {
				attrs = append(attrs, slog.String("voter_id", voterID))
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				slog.LogAttrs(c.Request().Context(), slog.LevelError, "request", attrs...)
			} else {
				slog.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			}

			return nil
		},
	})
}

// redactToken keeps voting link tokens out of the request log.
func redactToken(c echo.Context, uri string) string {
	token := c.Param("token")
	if token == "" {
		return uri
	}
	return strings.ReplaceAll(uri, token, "[redacted]")
}

// i18nMiddleware sets the locale based on Accept-Language header.
func i18nMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			acceptLang := c.Request().Header.Get("Accept-Language")
			lang := i18n.MatchLanguage(acceptLang)
			ctx := i18n.WithLocale(c.Request().Context(), lang)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

const voterIDKey = "voter_id"

// voterSession wraps every request in an appcontext.Context carrying the
// voter of a valid session cookie. Requests without one pass through
// anonymously; handlers decide whether a voter is required.
func voterSession(sessions *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &appcontext.Context{Context: c}

			data, err := sessions.Parse(c.Request())
			if err != nil {
				slog.Debug("ignoring session cookie", "error", err)
			} else if data != nil {
				cc.VoterID = data.VoterID
				c.Set(voterIDKey, data.VoterID)
			}

			return next(cc)
		}
	}
}
