// Package apperr maps domain failures to HTTP responses
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindStore        Kind = "store"
	KindTooLarge     Kind = "too_large"
	KindRateLimited  Kind = "rate_limited"
)

// Error is a failure that knows which response it should produce.
// Message is safe to show to clients, Err never is.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s, %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error kind
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Store wraps an unexpected persistence or infrastructure failure. The
// client only ever sees "Internal server error".
func Store(err error) *Error {
	return &Error{Kind: KindStore, Message: "Internal server error", Err: err}
}

// TooLarge is returned once a handler reads past the body size limit
func TooLarge() *Error {
	return &Error{Kind: KindTooLarge, Message: "Request body size exceeds limit"}
}

// Bind classifies a failure to bind the request body
func Bind(err error, msg string) *Error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return TooLarge()
	}

	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

// From converts any error into an *Error. Errors that aren't already
// classified are treated as store failures.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return Store(err)
}

// Body builds the JSON body every error response uses
func Body(c *gin.Context, e *Error) gin.H {
	return gin.H{
		"error":     e.Message,
		"code":      e.Kind,
		"requestID": c.GetString("requestID"),
	}
}

// Log records the cause of store failures server side
func Log(c *gin.Context, e *Error) {
	if e.Kind != KindStore {
		return
	}

	zap.L().Error("Request failed", zap.Error(e.Err), zap.String("requestID", c.GetString("requestID")))
}

// Abort writes err as a JSON response and stops the handler chain
func Abort(c *gin.Context, err error) {
	e := From(err)

	Log(c, e)
	c.AbortWithStatusJSON(e.Status(), Body(c, e))
}
