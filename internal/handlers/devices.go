package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      List devices
// @Description  Current timer state of every device with derived elapsed and remaining seconds.
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, devices"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) listDevices(c *gin.Context) {
	list, err := h.services.Monitoring.ListDeviceStatus(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load devices", "devices_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(list),
		"devices": list,
	})
}

// @Summary      Get device
// @Tags         devices
// @Produce      json
// @Param        id  path  string  true  "Device ID"
// @Success      200  {object}  console_rental.DeviceStatus
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/devices/{id} [get]
// @Security     BearerAuth
func (h *Handler) getDevice(c *gin.Context) {
	deviceID := c.Param("id")
	st, err := h.services.Monitoring.DeviceStatus(c.Request.Context(), deviceID)
	if err != nil {
		h.respondServiceError(c, "device_status_failed", err, "device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, st)
}
