package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/invdash/internal/domain"
	"github.com/andresuchdata/invdash/internal/service"
	"github.com/andresuchdata/invdash/internal/session"
	"github.com/andresuchdata/invdash/internal/table"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, table.ErrUnknownColumn),
		errors.Is(err, table.ErrUnknownKind),
		domain.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotLoaded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body.Error = "invalid dataset"
		body.Details = ve.Violations
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, message string, err error) {
	body := errorBody{Error: message}
	if err != nil {
		body.Details = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}
