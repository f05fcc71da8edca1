package auth

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"user-api/internal/apperr"
)

const identityKey = "identity"

// Middleware authenticates the request from its Authorization header.
// A missing token is answered with 403, an invalid one with 401. On success
// the verified Identity is stored in the context; the database is not
// consulted.
func Middleware(codec *Codec, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			apperr.Write(c, log, apperr.MissingToken())
			return
		}
		claims, err := safeVerify(codec, tokenStr)
		if err != nil {
			log.Warn().Err(err).
				Str("request_id", c.GetString("request_id")).
				Str("path", c.Request.URL.Path).
				Msg("rejected token")
			apperr.Write(c, log, apperr.Unauthenticated("Invalid token"))
			return
		}
		c.Set(identityKey, claims.Identity())
		c.Next()
	}
}

// IdentityFrom returns the identity set by Middleware.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// bearerToken returns the second whitespace-separated segment of the header.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

// safeVerify turns a panic during verification into a rejection.
func safeVerify(codec *Codec, tokenStr string) (claims *Claims, err error) {
	defer func() {
		if r := recover(); r != nil {
			claims = nil
			err = fmt.Errorf("verify panicked: %v", r)
		}
	}()
	if codec == nil {
		return nil, fmt.Errorf("no token codec configured")
	}
	return codec.Verify(tokenStr)
}
