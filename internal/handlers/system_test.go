package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"console_rental"
	"console_rental/internal/models"
	"console_rental/internal/service"
)

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(&service.Service{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health: status=%d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: status=%d", w.Code)
	}
	// The health request above went through the metrics middleware.
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("metrics output misses request counter")
	}
}

func TestRunSweep(t *testing.T) {
	sw := &mockSweeper{report: service.SweepReport{Checked: 3, Expired: 1, EndedIDs: []string{"ps-1"}}}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Sweeper: sw})

	w := doJSON(t, r, http.MethodPost, "/api/v1/sweeper/run", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var rep service.SweepReport
	_ = json.Unmarshal(w.Body.Bytes(), &rep)
	if sw.calls != 1 || rep.Expired != 1 || len(rep.EndedIDs) != 1 || rep.EndedIDs[0] != "ps-1" {
		t.Fatalf("unexpected report: %+v (calls=%d)", rep, sw.calls)
	}

	sw.err = errors.New("list running: db closed")
	w = doJSON(t, r, http.MethodPost, "/api/v1/sweeper/run", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestDeviceRoutes(t *testing.T) {
	mon := &mockMonitoring{
		status: console_rental.DeviceStatus{Device: models.Device{ID: "ps-1", TimerStatus: models.TimerIdle}},
		list: []console_rental.DeviceStatus{
			{Device: models.Device{ID: "ps-1"}},
			{Device: models.Device{ID: "ps-2"}},
		},
	}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Monitoring: mon})

	w := doJSON(t, r, http.MethodGet, "/api/v1/devices", "")
	var out struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if w.Code != http.StatusOK || out.Count != 2 {
		t.Fatalf("list: status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/devices/ps-1", "")
	var st console_rental.DeviceStatus
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if w.Code != http.StatusOK || st.Device.ID != "ps-1" {
		t.Fatalf("get: status=%d body=%s", w.Code, w.Body.String())
	}

	mon.err = service.ErrNotFound
	w = doJSON(t, r, http.MethodGet, "/api/v1/devices/ps-9", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing device: status=%d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	mon := &mockMonitoring{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Monitoring: mon}, WithRateLimit(0.001, 2))

	for i := 0; i < 2; i++ {
		if w := doJSON(t, r, http.MethodGet, "/api/v1/devices", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: status=%d", i, w.Code)
		}
	}
	w := doJSON(t, r, http.MethodGet, "/api/v1/devices", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", w.Code)
	}

	// Public routes are not throttled.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health throttled: %d", w.Code)
	}
}
