package auth

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"user-api/internal/apperr"
)

// IsOwner reports whether pathID names the same user as identityID.
// Anything that is not a plain unsigned integer is a non-match.
func IsOwner(identityID uint, pathID string) bool {
	n, err := strconv.ParseUint(pathID, 10, 64)
	if err != nil {
		return false
	}
	return uint64(identityID) == n
}

// RequireOwner lets the request through only when the authenticated user is
// the one named by the :param path segment. It must run after Middleware.
func RequireOwner(param, message string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			apperr.Write(c, log, apperr.Unauthenticated("Invalid token"))
			return
		}
		if !IsOwner(id.ID, c.Param(param)) {
			apperr.Write(c, log, apperr.Forbidden(message))
			return
		}
		c.Next()
	}
}
