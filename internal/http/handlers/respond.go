package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/meetups/internal/domain/event"
	"github.com/geocoder89/meetups/internal/domain/registration"
	"github.com/geocoder89/meetups/internal/service"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

const requestIDKey = "request_id"

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(requestIDKey)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RespondRejected answers a business rule violation; these are client errors, not conflicts.
func RespondRejected(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusBadRequest, code, message, nil)
}

// RespondServiceError translates the domain sentinels into the wire envelope.
// Anything unrecognised is logged and answered 500 with the fallback message.
func RespondServiceError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, event.ErrNotFound):
		RespondNotFound(ctx, "Event not found")
	case errors.Is(err, registration.ErrNotFound):
		RespondNotFound(ctx, "Registration not found")
	case errors.Is(err, event.ErrDuplicate):
		RespondRejected(ctx, "event_already_created", "Event already created")
	case errors.Is(err, registration.ErrDuplicate):
		RespondRejected(ctx, "registration_already_created", "Registration already created")
	case errors.Is(err, event.ErrHasActiveRegistrations):
		RespondRejected(ctx, "event_has_registrations", "The event cannot be deleted as it has active registrations")
	case errors.Is(err, registration.ErrInvalidEventReference):
		RespondRejected(ctx, "invalid_event_reference", "Event does not exist")
	case errors.Is(err, service.ErrInvalidArgument):
		slog.Default().ErrorContext(ctx.Request.Context(), "invalid service argument",
			"err", err)
		RespondInternal(ctx, fallback)
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"err", err)
		RespondInternal(ctx, fallback)
	}
}
