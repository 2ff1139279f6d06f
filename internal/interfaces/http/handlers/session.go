// internal/interfaces/http/handlers/session.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionCookie = "session_id"

// getOrCreateSessionID returns a stable session identifier for action
// logging, minting a cookie for first-time visitors.
func getOrCreateSessionID(c *gin.Context) string {
	if sid := c.GetHeader("X-Session-ID"); sid != "" {
		return sid
	}
	if sid, err := c.Cookie(sessionCookie); err == nil && sid != "" {
		return sid
	}

	sid := uuid.New().String()
	c.SetCookie(sessionCookie, sid, 86400*30, "/", "", false, true)
	return sid
}
