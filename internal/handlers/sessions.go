package handlers

import (
	"errors"
	"io"
	"net/http"

	"console_rental/internal/service"

	"github.com/gin-gonic/gin"
)

// StartRequest is the payload of a session start. Omit duration_seconds for
// an unlimited pay-at-end session; members must always send one.
type StartRequest struct {
	DurationSeconds *int64  `json:"duration_seconds,omitempty" example:"3600"`
	MemberID        *string `json:"member_id,omitempty" example:"m-1"`
	PIN             *string `json:"pin,omitempty" example:"1234"`
	PaymentMethod   string  `json:"payment_method,omitempty" example:"cash"`
	ShiftID         *string `json:"shift_id,omitempty"`
}

// AddTimeRequest extends a timed session.
type AddTimeRequest struct {
	AdditionalMinutes int64   `json:"additional_minutes" binding:"required" example:"30"`
	UseDeposit        bool    `json:"use_deposit,omitempty"`
	PaymentMethod     string  `json:"payment_method,omitempty" example:"cash"`
	ShiftID           *string `json:"shift_id,omitempty"`
}

// EndRequest closes a session. Every field is optional.
type EndRequest struct {
	ProductsAmount int64   `json:"products_amount,omitempty" example:"0"`
	PaymentMethod  string  `json:"payment_method,omitempty" example:"cash"`
	ShiftID        *string `json:"shift_id,omitempty"`
}

// bindOptionalJSON binds the body when one is present. An empty body leaves dst untouched.
func (h *Handler) bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// operatorID returns the authenticated operator set by userIdMiddleware.
func operatorID(c *gin.Context) *int {
	v, ok := c.Get("userId")
	if !ok {
		return nil
	}
	id, ok := v.(int)
	if !ok {
		return nil
	}
	return &id
}

// @Summary      Start a session
// @Description  Starts the device timer. Members pay upfront from their deposit after PIN check; walk-ins pay upfront or at the end.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path  string        true   "Device ID"
// @Param        body  body  StartRequest  false  "Start parameters"
// @Success      200   {object}  service.StartResult
// @Failure      400   {object}  map[string]string
// @Failure      402   {object}  map[string]interface{}
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/devices/{id}/start [post]
// @Security     BearerAuth
func (h *Handler) startSession(c *gin.Context) {
	var req StartRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	deviceID := c.Param("id")

	res, err := h.services.Sessions.Start(c.Request.Context(), service.StartParams{
		DeviceID:        deviceID,
		DurationSeconds: req.DurationSeconds,
		MemberID:        req.MemberID,
		PIN:             req.PIN,
		PaymentMethod:   req.PaymentMethod,
		UserID:          operatorID(c),
		ShiftID:         req.ShiftID,
	})
	if err != nil {
		h.respondServiceError(c, "session_start_failed", err, "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Pause a session
// @Description  Freezes the timer. Pausing an already paused device is a no-op.
// @Tags         sessions
// @Produce      json
// @Param        id  path  string  true  "Device ID"
// @Success      200  {object}  models.Device
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/devices/{id}/stop [post]
// @Security     BearerAuth
func (h *Handler) stopSession(c *gin.Context) {
	deviceID := c.Param("id")
	dev, err := h.services.Sessions.Stop(c.Request.Context(), deviceID)
	if err != nil {
		h.respondServiceError(c, "session_stop_failed", err, "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"device": dev})
}

// @Summary      Resume a session
// @Tags         sessions
// @Produce      json
// @Param        id  path  string  true  "Device ID"
// @Success      200  {object}  models.Device
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/devices/{id}/resume [post]
// @Security     BearerAuth
func (h *Handler) resumeSession(c *gin.Context) {
	deviceID := c.Param("id")
	dev, err := h.services.Sessions.Resume(c.Request.Context(), deviceID)
	if err != nil {
		h.respondServiceError(c, "session_resume_failed", err, "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"device": dev})
}

// @Summary      Add time
// @Description  Extends a timed session, charging the member deposit when use_deposit is set.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path  string          true  "Device ID"
// @Param        body  body  AddTimeRequest  true  "Extension"
// @Success      200   {object}  service.AddTimeResult
// @Failure      400   {object}  map[string]string
// @Failure      402   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/devices/{id}/add-time [post]
// @Security     BearerAuth
func (h *Handler) addTime(c *gin.Context) {
	var req AddTimeRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	deviceID := c.Param("id")

	res, err := h.services.Sessions.AddTime(c.Request.Context(), service.AddTimeParams{
		DeviceID:          deviceID,
		AdditionalMinutes: req.AdditionalMinutes,
		UseDeposit:        req.UseDeposit,
		PaymentMethod:     req.PaymentMethod,
		UserID:            operatorID(c),
		ShiftID:           req.ShiftID,
	})
	if err != nil {
		h.respondServiceError(c, "session_add_time_failed", err, "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      End a session
// @Description  Settles the session from the activity ledger and refunds unused member time.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path  string      true   "Device ID"
// @Param        body  body  EndRequest  false  "Settlement"
// @Success      200   {object}  service.EndResult
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/devices/{id}/end [post]
// @Security     BearerAuth
func (h *Handler) endSession(c *gin.Context) {
	var req EndRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	deviceID := c.Param("id")

	res, err := h.services.Sessions.End(c.Request.Context(), service.EndParams{
		DeviceID:       deviceID,
		ProductsAmount: req.ProductsAmount,
		PaymentMethod:  req.PaymentMethod,
		UserID:         operatorID(c),
		ShiftID:        req.ShiftID,
	})
	if err != nil {
		h.respondServiceError(c, "session_end_failed", err, "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, res)
}
