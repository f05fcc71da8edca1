package api

import (
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"user-api/internal/apperr"
	"user-api/internal/user"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest fields are optional; an empty string means "not supplied".
type UpdateUserRequest struct {
	Username string `json:"username,omitempty" binding:"omitempty,max=64"`
	Email    string `json:"email,omitempty" binding:"omitempty,email,max=255"`
	Password string `json:"password,omitempty" binding:"omitempty,min=6,max=72"`
}

// bindJSON decodes the body into req. Validation failures become a single
// client-facing message chosen by describe. An empty body is validated as
// an empty object.
func bindJSON(c *gin.Context, req any, describe func(validator.ValidationErrors) string) error {
	err := c.ShouldBindJSON(req)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(req)
	}
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperr.Validation(describe(verrs))
	}
	return apperr.Validation("Invalid request body")
}

func registerMessage(verrs validator.ValidationErrors) string {
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return "username, email and password are required"
		}
	}
	return fieldMessage(verrs)
}

func loginMessage(validator.ValidationErrors) string {
	return "email and password required"
}

// fieldMessage reports the first failing field, email before password.
func fieldMessage(verrs validator.ValidationErrors) string {
	byField := make(map[string]validator.FieldError, len(verrs))
	for _, fe := range verrs {
		if _, seen := byField[fe.StructField()]; !seen {
			byField[fe.StructField()] = fe
		}
	}
	if fe, ok := byField["Email"]; ok {
		if fe.Tag() == "email" {
			return "Invalid email format"
		}
		return "Email must be at most " + fe.Param() + " characters"
	}
	if fe, ok := byField["Password"]; ok {
		if fe.Tag() == "min" {
			return "Password must be at least " + fe.Param() + " characters"
		}
		return "Password must be at most " + fe.Param() + " characters"
	}
	if fe, ok := byField["Username"]; ok {
		return "Username must be at most " + fe.Param() + " characters"
	}
	return "Invalid request body"
}

// checkPasswordBytes enforces bcrypt's byte limit, which the rune-counting
// max tag cannot express for multibyte input.
func checkPasswordBytes(password string) error {
	if len(password) > user.MaxPasswordBytes {
		return apperr.Validation(fmt.Sprintf("Password must be at most %d bytes", user.MaxPasswordBytes))
	}
	return nil
}
