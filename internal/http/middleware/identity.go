// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the acting identity for each request. Authentication
// itself happens upstream (gateway/demo header); this middleware loads the
// referenced account and stashes the id and role in the Gin context so
// handlers and other middleware agree on who is acting.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-homework-backend/internal/repo"
)

// HeaderUserID is the request header carrying the authenticated user id.
const HeaderUserID = "X-User-ID"

// Context keys set by Identity and read by handlers.
const (
	ctxKeyUserID   = "userID"
	ctxKeyUserRole = "userRole"
)

// Identity resolves the X-User-ID header against the user table and stashes
// the id and role in the Gin context.
//
// Behavior:
//   - No header: the middleware is a no-op; handlers apply their fallbacks.
//   - Header set, user found: both id and role are stashed.
//   - Header set, user unknown: only the id is stashed. Endpoints that need
//     a real account (feeds, workflow actions) will fail in the service
//     layer with a not-found; registration stays reachable.
//
// Lookup failures never block the request; they degrade to the no-role case.
func Identity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if uid == "" {
			c.Next()
			return
		}
		c.Set(ctxKeyUserID, uid)

		if u, err := repo.GetUser(c.Request.Context(), db, uid); err == nil {
			c.Set(ctxKeyUserRole, u.Role)
		}
		c.Next()
	}
}
