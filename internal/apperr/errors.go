// Package apperr defines the error kinds surfaced by the HTTP API and the
// single place where they are turned into responses.
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindTooLarge        Kind = "too_large"
	KindUpstream        Kind = "upstream"
)

// Error carries a public message for the client and an optional cause that
// is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	status  int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	if e.status != 0 {
		return e.status
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Unauthenticated(msg string) *Error { return &Error{Kind: KindUnauthenticated, Message: msg} }

// MissingToken is unauthenticated but answered with 403, matching the
// behaviour clients already rely on.
func MissingToken() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "Token missing", status: http.StatusForbidden}
}

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func TooLarge(msg string) *Error { return &Error{Kind: KindTooLarge, Message: msg} }

func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// From returns err as an *Error, treating anything unknown as an upstream
// failure with a generic message.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Upstream("Internal server error", err)
}

// Body is the JSON error envelope.
type Body struct {
	Error struct {
		Kind    Kind   `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

// Write aborts the request with the error envelope. Upstream failures are
// logged with their cause; the cause is never sent to the client.
func Write(c *gin.Context, log zerolog.Logger, err error) {
	e := From(err)
	if e.Kind == KindUpstream {
		log.Error().Err(e.Err).
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg(e.Message)
	}
	var body Body
	body.Error.Kind = e.Kind
	body.Error.Message = e.Message
	c.AbortWithStatusJSON(e.Status(), body)
}
