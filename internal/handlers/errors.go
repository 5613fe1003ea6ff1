package handlers

import (
	"errors"
	"net/http"

	"console_rental/internal/service"

	"github.com/gin-gonic/gin"
)

const errInternal = "internal error"

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondServiceError maps service errors to status codes. Unexpected errors
// are logged under logKey and hidden behind a generic message.
func (h *Handler) respondServiceError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	var funds *service.InsufficientFundsError
	switch {
	case errors.As(err, &funds):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":     err.Error(),
			"balance":   funds.Balance,
			"required":  funds.Required,
			"shortfall": funds.Shortfall(),
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDeviceBusy):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrActuatorFailure):
		if h.log != nil {
			h.log.Warnw(logKey, append([]interface{}{"err", err}, kv...)...)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errInternal, logKey, err, kv...)
	}
}
