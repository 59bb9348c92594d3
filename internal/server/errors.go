// internal/server/errors.go
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"meal-ai/internal/config"
	"meal-ai/internal/lookup"
	"meal-ai/internal/models"
	"meal-ai/internal/router"
	"meal-ai/internal/shortcuts"
)

var (
	errInvalidParams = errors.New("invalid parameters")
	errImageTooLarge = errors.New("image too large")
	errUnknownTool   = errors.New("unknown tool")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidParams),
		errors.Is(err, lookup.ErrInvalidQuery),
		errors.Is(err, router.ErrUnknownVendor),
		errors.Is(err, router.ErrUnknownInput),
		errors.Is(err, config.ErrInvalidSettings),
		errors.Is(err, shortcuts.ErrNoShortcutName):
		return http.StatusBadRequest
	case errors.Is(err, errImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, router.ErrRouteDisabled):
		return http.StatusForbidden
	case errors.Is(err, lookup.ErrNotFound), errors.Is(err, errUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, shortcuts.ErrNothingToSend):
		return http.StatusUnprocessableEntity
	}

	switch models.KindOf(err) {
	case models.KindCredentialMissing:
		return http.StatusBadRequest
	case models.KindHTTPFailure, models.KindNetwork, models.KindEmptyResponse:
		return http.StatusBadGateway
	case models.KindInvalidJSON, models.KindSchemaMismatch, models.KindEmptyContent:
		return http.StatusUnprocessableEntity
	case models.KindTimedOut:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeError answers with the status for err. A cancellation is not a
// failure and answers 200.
func (s *MealServer) writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	if models.IsCancelled(err) {
		c.JSON(http.StatusOK, cancelledBody())
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	body := gin.H{"error": err.Error()}
	if kind := models.KindOf(err); kind != "" {
		body["kind"] = kind
	}
	c.JSON(status, body)
}

func cancelledBody() gin.H {
	return gin.H{"cancelled": true, "message": "Cancelled."}
}
