package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/items-api/internal/item"
	"github.com/serroba/items-api/internal/middleware"
	"go.uber.org/zap"
)

const (
	msgInternal = "Internal server error"
	msgConflict = "A record with this value already exists"
	msgInvalid  = "Invalid request data"
)

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Status  string   `doc:"Always error"                  example:"error"          json:"status"`
	Message string   `doc:"Human readable error message"  example:"Item not found" json:"message"`
	Errors  []string `doc:"Validation details, if any"                             json:"errors,omitempty"`

	status int
}

func (e *ErrorBody) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *ErrorBody) GetStatus() int {
	return e.status
}

var installErrorsOnce sync.Once

// InstallErrorEnvelope makes huma report every error as an ErrorBody.
// Request validation failures are reported as 400 instead of 422, with the
// individual problems listed in Errors.
func InstallErrorEnvelope() {
	installErrorsOnce.Do(func() {
		huma.NewError = newErrorBody
	})
}

func newErrorBody(status int, msg string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
		msg = msgInvalid
	}

	var details []string

	for _, err := range errs {
		if err != nil {
			details = append(details, err.Error())
		}
	}

	return &ErrorBody{
		Status:  "error",
		Message: msg,
		Errors:  details,
		status:  status,
	}
}

// toHTTPError maps service errors to HTTP errors. Unexpected errors are logged
// and reported without their text.
func (h *ItemHandler) toHTTPError(ctx context.Context, op string, err error, notFound string) error {
	switch {
	case errors.Is(err, item.ErrNotFound):
		return huma.Error404NotFound(notFound)
	case errors.Is(err, item.ErrConflict):
		return huma.Error409Conflict(msgConflict)
	case errors.Is(err, item.ErrInvalid):
		return huma.Error400BadRequest(err.Error())
	}

	h.logger.Error("item operation failed",
		zap.String("operation", op),
		zap.String("request_id", middleware.RequestMetaFromContext(ctx).RequestID),
		zap.Error(err),
	)

	return huma.Error500InternalServerError(msgInternal)
}
