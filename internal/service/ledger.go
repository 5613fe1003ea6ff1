package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"console_rental"
	"console_rental/internal/models"
	"console_rental/internal/repository"
)

// ComputeUsageSeconds folds a session's activity events into consumed play time.
//
// Events are ordered by timestamp. start and resume open an interval when none is
// open, stop closes it, end closes it at sessionEnd (or at the event time when
// sessionEnd is unknown). An interval still open after the last event is closed
// at sessionEnd when known. Intervals never count time before sessionStart and
// never contribute a negative amount. Callers must supply at least one start event.
func ComputeUsageSeconds(events []models.ActivityEvent, sessionStart time.Time, sessionEnd *time.Time) int64 {
	sorted := make([]models.ActivityEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var (
		total       time.Duration
		activeSince *time.Time
	)
	closeAt := func(t time.Time) {
		if d := t.Sub(*activeSince); d > 0 {
			total += d
		}
		activeSince = nil
	}

	for _, e := range sorted {
		switch e.Type {
		case models.ActivityStart, models.ActivityResume:
			if activeSince == nil {
				at := e.Timestamp
				if at.Before(sessionStart) {
					at = sessionStart
				}
				activeSince = &at
			}
		case models.ActivityStop:
			if activeSince != nil {
				closeAt(e.Timestamp)
			}
		case models.ActivityEnd:
			if activeSince != nil {
				if sessionEnd != nil {
					closeAt(*sessionEnd)
				} else {
					closeAt(e.Timestamp)
				}
			}
		}
	}
	if activeSince != nil && sessionEnd != nil {
		closeAt(*sessionEnd)
	}

	return int64((total + time.Second/2) / time.Second)
}

// withSyntheticStart guarantees the fold has a start event to anchor on.
// Sessions whose start append was lost are anchored at the session start.
func withSyntheticStart(events []models.ActivityEvent, s models.Session) []models.ActivityEvent {
	for _, e := range events {
		if e.Type == models.ActivityStart {
			return events
		}
	}
	out := make([]models.ActivityEvent, 0, len(events)+1)
	out = append(out, models.ActivityEvent{
		SessionID: s.ID,
		DeviceID:  s.DeviceID,
		Type:      models.ActivityStart,
		Timestamp: s.Start,
	})
	return append(out, events...)
}

type LedgerService struct {
	events     repository.EventRepo
	sessions   repository.SessionRepo
	devices    repository.DeviceRepo
	categories repository.CategoryRepo
	clock      Clock
}

func NewLedgerService(events repository.EventRepo, sessions repository.SessionRepo, devices repository.DeviceRepo, categories repository.CategoryRepo, clock Clock) *LedgerService {
	return &LedgerService{events: events, sessions: sessions, devices: devices, categories: categories, clock: clock}
}

var errInvalidTimeRange = invalidInput("time range: from must be <= to")

var activityTypes = map[models.ActivityType]struct{}{
	models.ActivityStart:   {},
	models.ActivityResume:  {},
	models.ActivityStop:    {},
	models.ActivityAddTime: {},
	models.ActivityEnd:     {},
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeAndValidateFilter prepares query parameters and validates the time range and type.
func normalizeAndValidateFilter(f ActivityFilter) (repository.EventFilter, error) {
	out := repository.EventFilter{
		From:     normalizeToUTC(f.From),
		To:       normalizeToUTC(f.To),
		Type:     strings.ToLower(strings.TrimSpace(f.Type)),
		DeviceID: strings.TrimSpace(f.DeviceID),
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return repository.EventFilter{}, errInvalidTimeRange
	}
	if out.Type != "" {
		if _, ok := activityTypes[models.ActivityType(out.Type)]; !ok {
			return repository.EventFilter{}, invalidInput("unknown activity type %q", f.Type)
		}
	}
	return out, nil
}

func (s *LedgerService) List(ctx context.Context, f ActivityFilter) ([]models.ActivityEvent, error) {
	filter, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.events.List(ctx, filter)
}

// History returns every ledger entry of a session in order.
func (s *LedgerService) History(ctx context.Context, sessionID string) ([]models.ActivityEvent, error) {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, fromRepo(err)
	}
	return s.events.ListBySession(ctx, sessionID)
}

// Usage reconstructs consumed time from the ledger. Active sessions are folded
// up to now; ended sessions up to their end.
func (s *LedgerService) Usage(ctx context.Context, sessionID string) (console_rental.UsageReport, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return console_rental.UsageReport{}, fromRepo(err)
	}
	events, err := s.events.ListBySession(ctx, sessionID)
	if err != nil {
		return console_rental.UsageReport{}, err
	}

	now := s.clock.Now()
	end := &now
	complete := sess.Status != models.SessionActive
	if complete && sess.End != nil {
		end = sess.End
	}
	usage := ComputeUsageSeconds(withSyntheticStart(events, sess), sess.Start, end)

	report := console_rental.UsageReport{
		SessionID:    sess.ID,
		UsageSeconds: usage,
		Complete:     complete,
		ComputedAt:   now,
	}

	dev, err := s.devices.Get(ctx, sess.DeviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return report, nil
		}
		return console_rental.UsageReport{}, err
	}
	cat, err := s.categories.Get(ctx, dev.CategoryID)
	if err != nil {
		return console_rental.UsageReport{}, fromRepo(err)
	}
	if report.Cost, err = CalculateCost(usage, cat); err != nil {
		return console_rental.UsageReport{}, err
	}
	return report, nil
}
