// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package appcontext provides the custom Echo context.
package appcontext

import "github.com/labstack/echo/v4"

// Context is a custom Echo context carrying the authenticated voter.
type Context struct {
	echo.Context
	VoterID string // empty if not authenticated
}

// IsAuthenticated returns true if a voter session was presented.
func (c *Context) IsAuthenticated() bool {
	return c.VoterID != ""
}

// VoterID returns the authenticated voter of c, or "" when c is not a
// *Context or carries no voter.
func VoterID(c echo.Context) string {
	if cc, ok := c.(*Context); ok {
		return cc.VoterID
	}
	return ""
}
