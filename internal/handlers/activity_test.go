package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"console_rental"
	"console_rental/internal/models"
	"console_rental/internal/service"
)

func newLedgerRouter(l *mockLedger) http.Handler {
	return newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Ledger: l})
}

func TestListActivity_ParsesFilter(t *testing.T) {
	l := &mockLedger{events: []models.ActivityEvent{{ID: "e1", Type: models.ActivityStart}}}
	r := newLedgerRouter(l)

	w := doJSON(t, r, http.MethodGet, "/api/v1/activity?from=2026-03-01&to=2026-03-14&type=%20stop%20&device_id=ps-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	wantFrom := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 3, 14, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	f := l.lastFilter
	if !f.From.Equal(wantFrom) || !f.To.Equal(wantTo) {
		t.Fatalf("range: got %v..%v, want %v..%v", f.From, f.To, wantFrom, wantTo)
	}
	if f.Type != "stop" || f.DeviceID != "ps-1" {
		t.Fatalf("unexpected filter: %+v", f)
	}

	var out struct {
		Count  int                    `json:"count"`
		Events []models.ActivityEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 1 || out.Events[0].ID != "e1" {
		t.Fatalf("unexpected body: %+v", out)
	}
}

func TestListActivity_BadTimes(t *testing.T) {
	r := newLedgerRouter(&mockLedger{})

	cases := []struct {
		query string
		want  string
	}{
		{"from=yesterday", errFromInvalid},
		{"to=14/03/2026", errToInvalid},
	}
	for _, tc := range cases {
		w := doJSON(t, r, http.MethodGet, "/api/v1/activity?"+tc.query, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d", tc.query, w.Code)
		}
		var out map[string]string
		_ = json.Unmarshal(w.Body.Bytes(), &out)
		if out["error"] != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.query, out["error"], tc.want)
		}
	}
}

func TestListActivity_ServiceRejectsFilter(t *testing.T) {
	l := &mockLedger{err: fmt.Errorf("%w: unknown activity type %q", service.ErrInvalidInput, "boot")}
	r := newLedgerRouter(l)

	w := doJSON(t, r, http.MethodGet, "/api/v1/activity?type=boot", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSessionActivityAndUsage(t *testing.T) {
	l := &mockLedger{
		events: []models.ActivityEvent{{ID: "e1", SessionID: "s-1"}, {ID: "e2", SessionID: "s-1"}},
		usage:  console_rental.UsageReport{SessionID: "s-1", UsageSeconds: 1800, Cost: 5000},
	}
	r := newLedgerRouter(l)

	w := doJSON(t, r, http.MethodGet, "/api/v1/sessions/s-1/activity", "")
	if w.Code != http.StatusOK || l.lastSession != "s-1" {
		t.Fatalf("activity status=%d session=%q", w.Code, l.lastSession)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/sessions/s-1/usage", "")
	if w.Code != http.StatusOK {
		t.Fatalf("usage status=%d body=%s", w.Code, w.Body.String())
	}
	var rep console_rental.UsageReport
	_ = json.Unmarshal(w.Body.Bytes(), &rep)
	if rep.UsageSeconds != 1800 || rep.Cost != 5000 {
		t.Fatalf("unexpected usage: %+v", rep)
	}

	l.err = fmt.Errorf("session s-2: %w", service.ErrNotFound)
	w = doJSON(t, r, http.MethodGet, "/api/v1/sessions/s-2/usage", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing session status=%d", w.Code)
	}
}

func TestParseQueryTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2026-03-14T18:00:00+03:00", time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC), true},
		{"2026-03-14 18:30:00", time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC), true},
		{"2026-03-14", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), true},
		{"March 14", time.Time{}, false},
	}
	for _, tc := range cases {
		got, err := parseQueryTime(tc.in)
		if (err == nil) != tc.ok {
			t.Fatalf("%q: err=%v, want ok=%v", tc.in, err, tc.ok)
		}
		if tc.ok && !got.Equal(tc.want) {
			t.Fatalf("%q: got %v, want %v", tc.in, got, tc.want)
		}
	}
}
