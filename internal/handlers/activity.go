package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"console_rental/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List activity
// @Description  Filter the activity ledger by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'), type and device. A date-only 'to' is end-of-day inclusive.
// @Tags         activity
// @Produce      json
// @Param        from       query   string  false  "Start of range"  example(2026-03-01)
// @Param        to         query   string  false  "End of range. Date-only treated as end of day."  example(2026-03-31)
// @Param        type       query   string  false  "Activity type"  Enums(start,resume,stop,add_time,end)
// @Param        device_id  query   string  false  "Device ID"
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/activity [get]
// @Security     BearerAuth
func (h *Handler) listActivity(c *gin.Context) {
	var (
		from time.Time
		to   time.Time
		err  error
	)
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}

	filter := service.ActivityFilter{
		From:     from,
		To:       to,
		Type:     strings.TrimSpace(c.Query("type")),
		DeviceID: strings.TrimSpace(c.Query("device_id")),
	}
	events, err := h.services.Ledger.List(c.Request.Context(), filter)
	if err != nil {
		h.respondServiceError(c, "activity_list_failed", err, "from", from, "to", to, "type", filter.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// @Summary      Session activity
// @Description  Activity ledger of one session in timestamp order.
// @Tags         activity
// @Produce      json
// @Param        id  path  string  true  "Session ID"
// @Success      200  {object}  map[string]interface{}  "count, events"
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/sessions/{id}/activity [get]
// @Security     BearerAuth
func (h *Handler) sessionActivity(c *gin.Context) {
	sessionID := c.Param("id")
	events, err := h.services.Ledger.History(c.Request.Context(), sessionID)
	if err != nil {
		h.respondServiceError(c, "session_activity_failed", err, "session_id", sessionID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// @Summary      Session usage
// @Description  Usage seconds folded from the activity ledger and the cost they would bill.
// @Tags         activity
// @Produce      json
// @Param        id  path  string  true  "Session ID"
// @Success      200  {object}  console_rental.UsageReport
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/sessions/{id}/usage [get]
// @Security     BearerAuth
func (h *Handler) sessionUsage(c *gin.Context) {
	sessionID := c.Param("id")
	rep, err := h.services.Ledger.Usage(c.Request.Context(), sessionID)
	if err != nil {
		h.respondServiceError(c, "session_usage_failed", err, "session_id", sessionID)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2026-03-14T18:00:00Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
