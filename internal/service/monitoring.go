package service

import (
	"context"
	"errors"

	"console_rental"
	"console_rental/internal/models"
	"console_rental/internal/repository"
)

// MonitoringService serves read-only device status. It never takes the device
// lock; values are derived from the persisted anchor at read time.
type MonitoringService struct {
	devices  repository.DeviceRepo
	sessions repository.SessionRepo
	clock    Clock
}

func NewMonitoringService(devices repository.DeviceRepo, sessions repository.SessionRepo, clock Clock) *MonitoringService {
	return &MonitoringService{devices: devices, sessions: sessions, clock: clock}
}

func (s *MonitoringService) DeviceStatus(ctx context.Context, deviceID string) (console_rental.DeviceStatus, error) {
	dev, err := s.devices.Get(ctx, deviceID)
	if err != nil {
		return console_rental.DeviceStatus{}, fromRepo(err)
	}
	return s.status(ctx, dev)
}

func (s *MonitoringService) ListDeviceStatus(ctx context.Context) ([]console_rental.DeviceStatus, error) {
	devs, err := s.devices.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]console_rental.DeviceStatus, 0, len(devs))
	for _, d := range devs {
		st, err := s.status(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *MonitoringService) status(ctx context.Context, dev models.Device) (console_rental.DeviceStatus, error) {
	now := s.clock.Now()
	st := console_rental.DeviceStatus{Device: dev, ObservedAt: now}

	switch dev.TimerStatus {
	case models.TimerRunning:
		if dev.TimerStart != nil {
			st.ElapsedSeconds = secondsBetween(*dev.TimerStart, now)
		}
	case models.TimerPaused:
		st.ElapsedSeconds = dev.TimerElapsed
	default:
		return st, nil
	}
	if remaining, ok := timerRemaining(dev, now); ok {
		st.RemainingSeconds = &remaining
	}

	sess, err := s.sessions.ActiveForDevice(ctx, dev.ID)
	switch {
	case err == nil:
		st.ActiveSession = &sess
	case !errors.Is(err, repository.ErrNotFound):
		return console_rental.DeviceStatus{}, err
	}
	return st, nil
}
