// Package session carries the verified Clerk session of a request through fiber locals.
package session

import (
	"github.com/gofiber/fiber/v2"

	"github.com/imaginify/usersync/internal/clerk"
)

const (
	// CookieName is the cookie Clerk stores the session token in.
	CookieName = "__session"

	claimsKey = "SessionClaims"
)

// Set stores the verified claims on c.
func Set(c *fiber.Ctx, claims *clerk.Claims) {
	c.Locals(claimsKey, claims)
}

// Get returns the verified claims of c, false on public routes or without a session.
func Get(c *fiber.Ctx) (*clerk.Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*clerk.Claims)
	if !ok || claims == nil {
		return nil, false
	}

	return claims, true
}

// UserID returns the Clerk user id of the session, "" without one.
func UserID(c *fiber.Ctx) string {
	claims, ok := Get(c)
	if !ok {
		return ""
	}

	return claims.UserID
}
