package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"user-api/internal/auth"
	"user-api/internal/avatar"
	"user-api/internal/user"
)

// Deps are the collaborators the handlers need. Avatars may be nil when no
// image host is configured.
type Deps struct {
	Users       *user.Store
	Hasher      *user.Hasher
	Tokens      *auth.Codec
	Avatars     *avatar.Uploader
	CORSOrigins []string
	Log         zerolog.Logger
}

// GET /
func rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "User Management API is running"})
}

// GET /health
func healthHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := d.Users.Ping(ctx); err != nil {
			d.Log.Warn().Err(err).Msg("health check: database unreachable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
