// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package voting

import (
	"fmt"
	"time"
)

// Clock is the authoritative time source of the server.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// Remaining returns how long a link expiring at expiresAt is still valid at
// now. It never goes below zero.
func Remaining(expiresAt, now time.Time) time.Duration {
	d := expiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Expired reports whether nothing of the validity window is left at now.
func Expired(expiresAt, now time.Time) bool {
	return Remaining(expiresAt, now) == 0
}

// Countdown renders d as m:ss for client timers. Partial seconds round up,
// so the label only reads 0:00 once the link is expired.
func Countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
