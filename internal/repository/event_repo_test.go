package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"console_rental/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var eventColumns = []string{
	"id", "session_id", "device_id", "activity_type", "occurred_at",
	"duration_added", "cost_added", "payment_method", "wallet_before", "wallet_after", "meta",
}

func int64p(v int64) *int64 { return &v }

func TestAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewEventSQLite(db)

	isUTCRecent := sqlmockArgumentFunc(func(v driver.Value) bool {
		tm, ok := v.(time.Time)
		if !ok || tm.Location() != time.UTC {
			return false
		}
		now := time.Now().UTC()
		return !tm.Before(now.Add(-5*time.Second)) && !tm.After(now.Add(5*time.Second))
	})

	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs(sqlmock.AnyArg(), "s-1", "d-1",
			"add_time", // normalized
			isUTCRecent,
			int64(600), int64(1500), "cash", nil, nil,
			`{"a":1}`,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	method := "cash"
	err := repo.Append(ctx(t), models.ActivityEvent{
		SessionID:     "s-1",
		DeviceID:      "d-1",
		Type:          " ADD_TIME ",
		DurationAdded: int64p(600),
		CostAdded:     int64p(1500),
		PaymentMethod: &method,
		Metadata:      map[string]any{"a": 1},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAppend_RequiresSession(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewEventSQLite(db)

	if err := repo.Append(ctx(t), models.ActivityEvent{Type: models.ActivityStart}); err == nil {
		t.Fatalf("expected error for empty session id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statement should run: %v", err)
	}
}

func TestAppend_DBError(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewEventSQLite(db)

	mock.ExpectExec("INSERT INTO activity_events").
		WillReturnError(errors.New("down"))

	err := repo.Append(ctx(t), models.ActivityEvent{SessionID: "s-1", Type: models.ActivityStop})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestListBySession_OrderAndMetadataParsing(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewEventSQLite(db)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	js, _ := json.Marshal(map[string]any{"refund": 5000})

	rows := sqlmock.NewRows(eventColumns).
		AddRow("1", "s-1", "d-1", "start", now, 3600, 10000, "cash", nil, nil, nil).
		AddRow("2", "s-1", "d-1", "end", now.Add(30*time.Minute), nil, nil, nil, 0, 5000, string(js))

	mock.ExpectQuery(regexp.QuoteMeta(selectEventColumns + ` WHERE session_id = ? ORDER BY occurred_at ASC, rowid ASC`)).
		WithArgs("s-1").
		WillReturnRows(rows)

	got, err := repo.ListBySession(ctx(t), "s-1")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("unexpected events: %+v", got)
	}
	if got[0].Type != models.ActivityStart || got[0].DurationAdded == nil || *got[0].DurationAdded != 3600 {
		t.Fatalf("start event not mapped: %+v", got[0])
	}
	if got[0].Metadata != nil {
		t.Fatalf("expected nil meta, got %#v", got[0].Metadata)
	}
	b, _ := json.Marshal(got[1].Metadata)
	if string(b) != string(js) {
		t.Fatalf("metadata mismatch: %s vs %s", b, js)
	}
	if got[1].WalletAfter == nil || *got[1].WalletAfter != 5000 {
		t.Fatalf("wallet snapshot not mapped: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_WithFilters_OrderAndArgs(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewEventSQLite(db)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	query := selectEventColumns + ` WHERE occurred_at >= ? AND occurred_at <= ? AND activity_type = ? AND device_id = ? ORDER BY occurred_at ASC, rowid ASC`

	rows := sqlmock.NewRows(eventColumns).
		AddRow("2", "s-1", "d-9", "stop", from, nil, nil, nil, nil, nil, nil).
		AddRow("3", "s-2", "d-9", "stop", to, nil, nil, nil, nil, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(from, to, "stop", "d-9").
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), EventFilter{From: from, To: to, Type: " STOP ", DeviceID: "d-9"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "3" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestList_ScanError(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	repo := NewEventSQLite(db)

	rows := sqlmock.NewRows(eventColumns).
		// occurred_at wrong type to force scan error
		AddRow("x", "s", "d", "start", 123, nil, nil, nil, nil, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta(selectEventColumns + ` ORDER BY occurred_at ASC, rowid ASC`)).
		WillReturnRows(rows)

	if _, err := repo.List(ctx(t), EventFilter{}); err == nil {
		t.Fatalf("expected scan error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool {
	return f(v)
}
