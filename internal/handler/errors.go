package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vssut/academia-backend/internal/response"
	"github.com/vssut/academia-backend/internal/service"
)

// failFromError maps a service error onto the response envelope. Anything
// unclassified is logged and surfaced as a generic 500.
func failFromError(c *gin.Context, log zerolog.Logger, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, ve.Fields)
	case errors.Is(err, service.ErrValidation):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	case errors.Is(err, service.ErrConflict):
		response.Fail(c, http.StatusBadRequest, response.ErrConflict)
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
	case errors.Is(err, service.ErrAttemptLocked):
		response.Fail(c, http.StatusConflict, response.ErrAttemptLocked)
	default:
		log.Error().Err(err).
			Str("request_id", response.RequestID(c)).
			Str("path", c.FullPath()).
			Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// parseExamID parses a UUID taken from a path param or body, writing a 400
// INVALID_ID response when it is malformed.
func parseExamID(c *gin.Context, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
