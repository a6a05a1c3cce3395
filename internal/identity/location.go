// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package identity

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"codeberg.org/oliverandrich/votelink/internal/models"
)

// ErrLocationUnavailable is returned by locators that have nothing to report.
var ErrLocationUnavailable = errors.New("location unavailable")

// Locator produces a location snapshot. Implementations should honour ctx.
type Locator interface {
	Locate(ctx context.Context) (*models.Location, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (*models.Location, error)

// Locate implements Locator.
func (f LocatorFunc) Locate(ctx context.Context) (*models.Location, error) { return f(ctx) }

// Reported returns a Locator for a client-reported position. Missing or
// out-of-range coordinates make it report ErrLocationUnavailable.
func Reported(loc *models.Location) Locator {
	return LocatorFunc(func(context.Context) (*models.Location, error) {
		if loc == nil || !validCoordinates(loc) {
			return nil, ErrLocationUnavailable
		}
		snapshot := *loc
		return &snapshot, nil
	})
}

func validCoordinates(loc *models.Location) bool {
	if math.IsNaN(loc.Latitude) || math.IsNaN(loc.Longitude) {
		return false
	}
	return loc.Latitude >= -90 && loc.Latitude <= 90 &&
		loc.Longitude >= -180 && loc.Longitude <= 180 &&
		loc.Accuracy >= 0
}

// Acquire asks l for a snapshot and waits at most timeout. It returns nil
// when l is nil, fails, or does not answer in time.
func Acquire(ctx context.Context, l Locator, timeout time.Duration) *models.Location {
	if l == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		loc *models.Location
		err error
	}
	done := make(chan result, 1)
	go func() {
		loc, err := l.Locate(ctx)
		done <- result{loc, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			slog.Debug("location unavailable", "error", r.err)
			return nil
		}
		return r.loc
	case <-ctx.Done():
		slog.Warn("location acquisition timed out", "timeout", timeout)
		return nil
	}
}
