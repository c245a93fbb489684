package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/ndcstatic/internal/engine"
)

// Transport-level error codes. Query failures use engine.ErrorCode values.
const (
	CodeNotImplemented = "NOT_IMPLEMENTED"
	CodeNotFound       = "NOT_FOUND"
	CodeCancelled      = "CANCELLED"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// StatusFor maps a query error code to an HTTP status.
func StatusFor(code engine.ErrorCode) int {
	switch code {
	case engine.ErrCodeInvalidRequest,
		engine.ErrCodeUnknownCollection,
		engine.ErrCodeUnknownRelationship:
		return http.StatusBadRequest
	case engine.ErrCodeTypeMismatch, engine.ErrCodeInvalidPattern:
		return http.StatusUnprocessableEntity
	case engine.ErrCodeUnsupportedExpression,
		engine.ErrCodeUnsupportedColumnReference,
		engine.ErrCodeUnsupportedValueKind,
		engine.ErrCodeUnsupportedOperator:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts the request with a structured error for err.
func writeError(c *gin.Context, err error) {
	var qe *engine.QueryError
	switch {
	case errors.As(err, &qe):
		abortWith(c, StatusFor(qe.Code), ErrorBody{
			Code:    string(qe.Code),
			Message: qe.Message,
			Details: qe.Details,
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		abortWith(c, http.StatusServiceUnavailable, ErrorBody{
			Code:    CodeCancelled,
			Message: err.Error(),
		})
	default:
		abortWith(c, http.StatusInternalServerError, ErrorBody{
			Code:    CodeInternal,
			Message: err.Error(),
		})
	}
}

func invalidRequest(c *gin.Context, message string, details map[string]string) {
	abortWith(c, http.StatusBadRequest, ErrorBody{
		Code:    string(engine.ErrCodeInvalidRequest),
		Message: message,
		Details: details,
	})
}

func abortWith(c *gin.Context, status int, body ErrorBody) {
	_ = c.Error(errors.New(body.Message))
	c.AbortWithStatusJSON(status, body)
}
