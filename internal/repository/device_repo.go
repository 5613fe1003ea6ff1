package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"console_rental/internal/models"

	"github.com/jmoiron/sqlx"
)

type DeviceSQLite struct {
	db sqlx.ExtContext
}

func NewDeviceSQLite(db sqlx.ExtContext) *DeviceSQLite {
	return &DeviceSQLite{db: db}
}

var _ DeviceRepo = (*DeviceSQLite)(nil)

const (
	upsertDeviceSQL = `
		INSERT INTO devices (id, name, category_id, timer_status, timer_start, timer_duration, timer_elapsed, last_paused_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			category_id=excluded.category_id,
			timer_status=excluded.timer_status,
			timer_start=excluded.timer_start,
			timer_duration=excluded.timer_duration,
			timer_elapsed=excluded.timer_elapsed,
			last_paused_at=excluded.last_paused_at,
			updated_at=excluded.updated_at
	`

	selectDeviceColumns = `
		SELECT id, name, category_id, timer_status, timer_start, timer_duration, timer_elapsed, last_paused_at, updated_at
		FROM devices
	`
)

// Save inserts or updates the device row. Times are persisted as UTC and a zero
// UpdatedAt is replaced with the current time.
func (r *DeviceSQLite) Save(ctx context.Context, d models.Device) error {
	updated := d.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	} else {
		updated = updated.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertDeviceSQL,
		d.ID,
		d.Name,
		d.CategoryID,
		string(d.TimerStatus),
		utcPtr(d.TimerStart),
		d.TimerDuration,
		d.TimerElapsed,
		utcPtr(d.LastPausedAt),
		updated,
	)
	if err != nil {
		return fmt.Errorf("save device %q: %w", d.ID, err)
	}
	return nil
}

func (r *DeviceSQLite) Get(ctx context.Context, id string) (models.Device, error) {
	var d models.Device
	if err := sqlx.GetContext(ctx, r.db, &d, selectDeviceColumns+` WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Device{}, fmt.Errorf("device %q: %w", id, ErrNotFound)
		}
		return models.Device{}, fmt.Errorf("select device %q: %w", id, err)
	}
	return normalizeDevice(d), nil
}

func (r *DeviceSQLite) List(ctx context.Context) ([]models.Device, error) {
	return r.selectDevices(ctx, selectDeviceColumns+` ORDER BY id ASC`)
}

func (r *DeviceSQLite) ListByStatus(ctx context.Context, status models.TimerStatus) ([]models.Device, error) {
	return r.selectDevices(ctx, selectDeviceColumns+` WHERE timer_status = ? ORDER BY id ASC`, string(status))
}

func (r *DeviceSQLite) selectDevices(ctx context.Context, q string, args ...any) ([]models.Device, error) {
	var out []models.Device
	if err := sqlx.SelectContext(ctx, r.db, &out, q, args...); err != nil {
		return nil, fmt.Errorf("select devices: %w", err)
	}
	for i := range out {
		out[i] = normalizeDevice(out[i])
	}
	return out, nil
}

func normalizeDevice(d models.Device) models.Device {
	d.TimerStart = utcPtr(d.TimerStart)
	d.LastPausedAt = utcPtr(d.LastPausedAt)
	d.UpdatedAt = utc(d.UpdatedAt)
	return d
}
