package service

import (
	"context"
	"time"

	"console_rental/internal/devicelock"
	"console_rental/internal/logger"
	"console_rental/internal/metrics"
	"console_rental/internal/models"
	"console_rental/internal/repository"
)

// SweeperService force-ends running sessions whose budget plus grace has elapsed
// without anyone ending them. It drives the same end path as an interactive end.
type SweeperService struct {
	devices  repository.DeviceRepo
	sessions *SessionService
	locks    devicelock.Locker
	clock    Clock
	grace    time.Duration
	log      *logger.Logger
}

func NewSweeperService(devices repository.DeviceRepo, sessions *SessionService, deps Deps) *SweeperService {
	return &SweeperService{
		devices:  devices,
		sessions: sessions,
		locks:    deps.Locker,
		clock:    deps.Clock,
		grace:    deps.GracePeriod,
		log:      logger.OrNop(deps.Logger),
	}
}

// Run sweeps once immediately and then at every interval until ctx is canceled.
func (s *SweeperService) Run(ctx context.Context, interval time.Duration) {
	s.sweepAndLog(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *SweeperService) sweepAndLog(ctx context.Context) {
	report, err := s.SweepOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Errorw("sweep_failed", "error", err)
		}
		return
	}
	if report.Expired > 0 || report.Failed > 0 || report.SkippedBusy > 0 {
		s.log.Infow("sweep_completed",
			"checked", report.Checked,
			"expired", report.Expired,
			"skipped_busy", report.SkippedBusy,
			"failed", report.Failed,
		)
	}
}

// SweepOnce runs a single reconciliation pass over running devices. Devices
// locked by an interactive command are skipped until the next pass.
func (s *SweeperService) SweepOnce(ctx context.Context) (SweepReport, error) {
	devs, err := s.devices.ListByStatus(ctx, models.TimerRunning)
	if err != nil {
		return SweepReport{}, err
	}

	var report SweepReport
	for _, d := range devs {
		if ctx.Err() != nil {
			break
		}
		report.Checked++
		if !s.expired(d, s.clock.Now()) {
			continue
		}

		unlock, ok, err := s.locks.TryLock(ctx, d.ID)
		if err != nil {
			report.Failed++
			s.log.Warnw("sweep_lock_failed", "device_id", d.ID, "error", err)
			continue
		}
		if !ok {
			report.SkippedBusy++
			continue
		}

		ended, err := s.endExpired(ctx, d.ID)
		unlock()
		switch {
		case err != nil:
			report.Failed++
			s.log.Errorw("sweep_end_failed", "device_id", d.ID, "error", err)
		case ended:
			report.Expired++
			report.EndedIDs = append(report.EndedIDs, d.ID)
		}
	}

	metrics.RecordSweep(report.Checked, report.Expired, report.SkippedBusy, report.Failed)
	return report, nil
}

// endExpired re-reads the device under its lock, since a command may have
// changed it after the listing, and ends it when it is still overdue.
func (s *SweeperService) endExpired(ctx context.Context, deviceID string) (bool, error) {
	ctx = context.WithoutCancel(ctx)

	dev, err := s.devices.Get(ctx, deviceID)
	if err != nil {
		return false, fromRepo(err)
	}
	if dev.TimerStatus != models.TimerRunning || !s.expired(dev, s.clock.Now()) {
		return false, nil
	}
	if _, err := s.sessions.endLocked(ctx, dev, endOptions{expired: true}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SweeperService) expired(d models.Device, now time.Time) bool {
	if d.Unlimited() || d.TimerStart == nil {
		return false
	}
	// Compare in whole seconds so a large stored budget cannot overflow time.Duration.
	over := now.Sub(*d.TimerStart) - s.grace
	return over >= 0 && int64(over/time.Second) >= *d.TimerDuration
}
