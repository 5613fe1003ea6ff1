package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func metricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// @Summary      Run expiry sweep
// @Description  Runs one reconciliation pass that ends sessions past their budget and grace period.
// @Tags         system
// @Produce      json
// @Success      200  {object}  service.SweepReport
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sweeper/run [post]
// @Security     BearerAuth
func (h *Handler) runSweep(c *gin.Context) {
	rep, err := h.services.Sweeper.SweepOnce(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "sweep failed", "sweep_failed", err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
