package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"user-api/internal/apperr"
	"user-api/internal/auth"
	"user-api/internal/avatar"
	"user-api/internal/user"
)

// multipart framing allowance on top of the file size limit
const multipartOverhead = 64 << 10

// POST /api/users/avatar
func UploadAvatarHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.IdentityFrom(c)
		if !ok {
			apperr.Write(c, d.Log, apperr.Unauthenticated("Invalid token"))
			return
		}
		if d.Avatars == nil {
			apperr.Write(c, d.Log, apperr.Upstream("Upload failed", errors.New("avatar host is not configured")))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, d.Avatars.MaxBytes()+multipartOverhead)
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				apperr.Write(c, d.Log, apperr.TooLarge("File too large"))
				return
			}
			apperr.Write(c, d.Log, apperr.Validation("No file uploaded"))
			return
		}
		defer file.Close()
		if header.Size > d.Avatars.MaxBytes() {
			apperr.Write(c, d.Log, apperr.TooLarge("File too large"))
			return
		}

		url, err := d.Avatars.Upload(c.Request.Context(), file)
		switch {
		case errors.Is(err, avatar.ErrEmpty):
			apperr.Write(c, d.Log, apperr.Validation("No file uploaded"))
			return
		case errors.Is(err, avatar.ErrNotImage):
			apperr.Write(c, d.Log, apperr.Validation("File must be an image"))
			return
		case errors.Is(err, avatar.ErrTooLarge):
			apperr.Write(c, d.Log, apperr.TooLarge("File too large"))
			return
		case err != nil:
			apperr.Write(c, d.Log, apperr.Upstream("Upload failed", err))
			return
		}

		if err := d.Users.SetAvatar(c.Request.Context(), id.ID, url); err != nil {
			if errors.Is(err, user.ErrNotFound) {
				apperr.Write(c, d.Log, apperr.NotFound("User not found"))
				return
			}
			apperr.Write(c, d.Log, apperr.Upstream("Upload failed", err))
			return
		}
		d.Log.Info().Uint("user_id", id.ID).Str("url", url).Msg("avatar uploaded")
		c.JSON(http.StatusOK, gin.H{"message": "Avatar uploaded", "url": url})
	}
}
