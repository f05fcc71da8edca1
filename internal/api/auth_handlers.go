package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-api/internal/apperr"
	"user-api/internal/auth"
	"user-api/internal/user"
)

// POST /api/auth/register
func RegisterHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := bindJSON(c, &req, registerMessage); err != nil {
			apperr.Write(c, d.Log, err)
			return
		}
		if err := checkPasswordBytes(req.Password); err != nil {
			apperr.Write(c, d.Log, err)
			return
		}
		ctx := c.Request.Context()

		taken, err := d.Users.EmailTaken(ctx, req.Email)
		if err != nil {
			apperr.Write(c, d.Log, apperr.Upstream("Error registering user", err))
			return
		}
		if taken {
			apperr.Write(c, d.Log, apperr.Conflict("Email already registered"))
			return
		}
		taken, err = d.Users.UsernameTaken(ctx, req.Username)
		if err != nil {
			apperr.Write(c, d.Log, apperr.Upstream("Error registering user", err))
			return
		}
		if taken {
			apperr.Write(c, d.Log, apperr.Conflict("Username already taken"))
			return
		}

		hash, err := d.Hasher.Hash(req.Password)
		if err != nil {
			apperr.Write(c, d.Log, apperr.Upstream("Error registering user", err))
			return
		}
		u := &user.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			Role:         user.RoleUser,
		}
		if err := d.Users.Create(ctx, u); err != nil {
			// lost a race with a concurrent registration
			if errors.Is(err, user.ErrDuplicate) {
				apperr.Write(c, d.Log, apperr.Conflict("Username or email already exists"))
				return
			}
			apperr.Write(c, d.Log, apperr.Upstream("Error registering user", err))
			return
		}
		d.Log.Info().Uint("user_id", u.ID).Msg("user registered")
		c.JSON(http.StatusCreated, gin.H{"message": "User registered", "user": u.Public()})
	}
}

// POST /api/auth/login
func LoginHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := bindJSON(c, &req, loginMessage); err != nil {
			apperr.Write(c, d.Log, err)
			return
		}
		u, err := d.Users.ByEmail(c.Request.Context(), req.Email)
		if errors.Is(err, user.ErrNotFound) {
			apperr.Write(c, d.Log, apperr.NotFound("User not found"))
			return
		}
		if err != nil {
			apperr.Write(c, d.Log, apperr.Upstream("Login failed", err))
			return
		}
		if !d.Hasher.Verify(req.Password, u.PasswordHash) {
			apperr.Write(c, d.Log, apperr.Unauthenticated("Invalid credentials"))
			return
		}
		token, err := d.Tokens.Issue(auth.Identity{ID: u.ID, Email: u.Email, Role: string(u.Role)})
		if err != nil {
			apperr.Write(c, d.Log, apperr.Upstream("Login failed", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token})
	}
}
