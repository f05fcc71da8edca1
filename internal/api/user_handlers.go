package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"user-api/internal/apperr"
	"user-api/internal/user"
)

// GET /api/users
func ListUsersHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := d.Users.List(c.Request.Context())
		if err != nil {
			apperr.Write(c, d.Log, apperr.Upstream("Failed to fetch users", err))
			return
		}
		result := make([]user.Public, 0, len(users))
		for i := range users {
			result = append(result, users[i].Public())
		}
		c.JSON(http.StatusOK, result)
	}
}

// GET /api/users/:id
func GetUserHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			apperr.Write(c, d.Log, apperr.NotFound("User not found"))
			return
		}
		u, err := d.Users.ByID(c.Request.Context(), id)
		if errors.Is(err, user.ErrNotFound) {
			apperr.Write(c, d.Log, apperr.NotFound("User not found"))
			return
		}
		if err != nil {
			apperr.Write(c, d.Log, apperr.Upstream("Failed to fetch user", err))
			return
		}
		c.JSON(http.StatusOK, u.Public())
	}
}

// PUT /api/users/:id  [owner only]
func UpdateUserHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			apperr.Write(c, d.Log, apperr.NotFound("User not found"))
			return
		}
		var req UpdateUserRequest
		if err := bindJSON(c, &req, fieldMessage); err != nil {
			apperr.Write(c, d.Log, err)
			return
		}
		if err := checkPasswordBytes(req.Password); err != nil {
			apperr.Write(c, d.Log, err)
			return
		}

		var upd user.Update
		if req.Username != "" {
			upd.Username = &req.Username
		}
		if req.Email != "" {
			upd.Email = &req.Email
		}
		if req.Password != "" {
			hash, err := d.Hasher.Hash(req.Password)
			if err != nil {
				apperr.Write(c, d.Log, apperr.Upstream("Update failed", err))
				return
			}
			upd.PasswordHash = &hash
		}
		if upd.Empty() {
			apperr.Write(c, d.Log, apperr.Validation("No fields to update"))
			return
		}

		u, err := d.Users.Update(c.Request.Context(), id, upd)
		switch {
		case errors.Is(err, user.ErrDuplicate):
			apperr.Write(c, d.Log, apperr.Conflict("Username or email already exists"))
			return
		case errors.Is(err, user.ErrNotFound):
			apperr.Write(c, d.Log, apperr.NotFound("User not found"))
			return
		case err != nil:
			apperr.Write(c, d.Log, apperr.Upstream("Update failed", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": u.Public()})
	}
}

// DELETE /api/users/:id  [owner only]
func DeleteUserHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			apperr.Write(c, d.Log, apperr.NotFound("User not found"))
			return
		}
		if err := d.Users.Delete(c.Request.Context(), id); err != nil {
			apperr.Write(c, d.Log, apperr.Upstream("Delete failed", err))
			return
		}
		d.Log.Info().Uint("user_id", id).Msg("user deleted")
		c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
	}
}

func pathID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}
