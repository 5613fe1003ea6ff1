package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"console_rental/internal/actuator"
	"console_rental/internal/devicelock"
	"console_rental/internal/logger"
	"console_rental/internal/metrics"
	"console_rental/internal/models"
	"console_rental/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	endReasonManual    = "manual"
	endReasonExpired   = "expired"
	endReasonCancelled = "cancelled"

	actuatorPowerOn  = "power_on"
	actuatorPowerOff = "power_off"
)

// SessionService is the device timer state machine.
//
// Every command runs under the device lock. Reads happen first, then the
// device, session and wallet writes commit in one transaction. The ledger
// append, counter payments and actuator calls follow the commit; their
// failures are logged and counted but never undo the transition.
type SessionService struct {
	repos      *repository.Repository
	categories repository.CategoryRepo
	billing    *Billing
	locks      devicelock.Locker
	actuator   actuator.Actuator
	clock      Clock
	log        *logger.Logger

	requireStartAck bool
}

func NewSessionService(repos *repository.Repository, categories repository.CategoryRepo, billing *Billing, deps Deps) *SessionService {
	return &SessionService{
		repos:           repos,
		categories:      categories,
		billing:         billing,
		locks:           deps.Locker,
		actuator:        deps.Actuator,
		clock:           deps.Clock,
		log:             logger.OrNop(deps.Logger),
		requireStartAck: deps.RequireStartAck,
	}
}

func (s *SessionService) lock(ctx context.Context, deviceID string) (devicelock.Unlock, error) {
	unlock, err := s.locks.Lock(ctx, deviceID)
	if err != nil {
		if errors.Is(err, devicelock.ErrLockTimeout) {
			return nil, fmt.Errorf("device %s: %w", deviceID, ErrDeviceBusy)
		}
		return nil, fmt.Errorf("lock device %s: %w", deviceID, err)
	}
	return unlock, nil
}

func (s *SessionService) activeSession(ctx context.Context, deviceID string) (models.Session, error) {
	sess, err := s.repos.Sessions.ActiveForDevice(ctx, deviceID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Session{}, conflict("device %s has no active session", deviceID)
	}
	return sess, err
}

// Start opens a session on an idle device and starts its timer.
func (s *SessionService) Start(ctx context.Context, p StartParams) (StartResult, error) {
	p.DeviceID = strings.TrimSpace(p.DeviceID)
	if p.DeviceID == "" {
		return StartResult{}, invalidInput("device id is required")
	}
	if p.DurationSeconds != nil && *p.DurationSeconds <= 0 {
		return StartResult{}, invalidInput("duration must be positive, got %d", *p.DurationSeconds)
	}
	if p.DurationSeconds != nil && *p.DurationSeconds > MaxSessionSeconds {
		return StartResult{}, invalidInput("duration must not exceed %d seconds, got %d", MaxSessionSeconds, *p.DurationSeconds)
	}
	if p.MemberID != nil && strings.TrimSpace(*p.MemberID) == "" {
		p.MemberID = nil
	}
	isMember := p.MemberID != nil
	if isMember && p.DurationSeconds == nil {
		return StartResult{}, invalidInput("member sessions need a duration")
	}

	unlock, err := s.lock(ctx, p.DeviceID)
	if err != nil {
		return StartResult{}, err
	}
	defer unlock()

	dev, err := s.repos.Devices.Get(ctx, p.DeviceID)
	if err != nil {
		return StartResult{}, fromRepo(err)
	}
	if _, err := s.repos.Sessions.ActiveForDevice(ctx, dev.ID); err == nil {
		return StartResult{}, conflict("device %s already has an active session", dev.ID)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return StartResult{}, err
	}
	if isMember && (dev.TimerStatus == models.TimerRunning || dev.TimerStatus == models.TimerPaused) {
		return StartResult{}, conflict("device %s timer is %s", dev.ID, dev.TimerStatus)
	}

	cat, err := s.categories.Get(ctx, dev.CategoryID)
	if err != nil {
		return StartResult{}, fromRepo(err)
	}

	var member models.Member
	if isMember {
		if member, err = s.repos.Wallets.GetMember(ctx, *p.MemberID); err != nil {
			return StartResult{}, fromRepo(err)
		}
		if p.PIN != nil {
			if member.PinHash == "" || bcrypt.CompareHashAndPassword([]byte(member.PinHash), []byte(*p.PIN)) != nil {
				return StartResult{}, fmt.Errorf("%w: pin does not match member %s", ErrUnauthorized, member.ID)
			}
		}
	}

	paymentType := models.PaymentAtEnd
	var cost *int64
	if p.DurationSeconds != nil {
		c, err := CalculateCost(*p.DurationSeconds, cat)
		if err != nil {
			return StartResult{}, err
		}
		cost = &c
		paymentType = models.PaymentUpfront
	}
	if isMember && *cost > member.Deposit {
		return StartResult{}, &InsufficientFundsError{MemberID: member.ID, Balance: member.Deposit, Required: *cost}
	}

	now := s.clock.Now()
	sess := models.Session{
		ID:                  uuid.NewString(),
		DeviceID:            dev.ID,
		MemberID:            p.MemberID,
		UserID:              p.UserID,
		Start:               now,
		Duration:            copyInt64(p.DurationSeconds),
		Cost:                cost,
		PaymentType:         paymentType,
		Status:              models.SessionActive,
		IsMemberTransaction: isMember,
	}
	dev.TimerStatus = models.TimerRunning
	dev.TimerStart = &now
	dev.TimerDuration = copyInt64(p.DurationSeconds)
	dev.TimerElapsed = 0
	dev.LastPausedAt = nil
	dev.UpdatedAt = now

	var wallet *models.WalletChange
	err = s.repos.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Sessions.Create(ctx, sess); err != nil {
			return err
		}
		if isMember && *cost > 0 {
			change, err := s.billing.Debit(ctx, tx.Wallets, member.ID, *cost, sess.ID)
			if err != nil {
				return err
			}
			wallet = &change
		}
		return tx.Devices.Save(ctx, dev)
	})
	if err != nil {
		s.log.Warnw("session_start_failed", "device_id", dev.ID, "error", err)
		return StartResult{}, err
	}

	method := methodOrCash(p.PaymentMethod)
	if isMember {
		method = PaymentMethodDeposit
	}
	ev := models.ActivityEvent{
		SessionID:     sess.ID,
		DeviceID:      dev.ID,
		Type:          models.ActivityStart,
		Timestamp:     now,
		DurationAdded: copyInt64(p.DurationSeconds),
		CostAdded:     copyInt64(cost),
	}
	if cost != nil {
		ev.PaymentMethod = &method
	}
	if wallet != nil {
		ev.WalletBefore, ev.WalletAfter = &wallet.PreviousBalance, &wallet.NewBalance
	}
	s.appendActivity(ctx, ev)

	if err := s.powerOn(ctx, dev.ID, dev.TimerDuration); err != nil && s.requireStartAck {
		if cerr := s.cancelStart(ctx, sess, dev, wallet); cerr != nil {
			return StartResult{}, fmt.Errorf("%w: %w (rollback failed: %w)", ErrActuatorFailure, err, cerr)
		}
		return StartResult{}, fmt.Errorf("%w: %w", ErrActuatorFailure, err)
	}

	if !isMember && cost != nil && *cost > 0 {
		s.billing.RecordPayment(ctx, models.Payment{
			ShiftID:   p.ShiftID,
			UserID:    p.UserID,
			SessionID: &sess.ID,
			Amount:    *cost,
			Type:      models.PaymentRental,
			Method:    method,
		})
	}

	metrics.RecordSessionStarted(string(paymentType), isMember)
	s.log.Infow("session_started",
		"session_id", sess.ID,
		"device_id", dev.ID,
		"payment_type", paymentType,
		"duration", p.DurationSeconds,
		"cost", cost,
	)
	return StartResult{Session: sess, Device: dev, Wallet: wallet}, nil
}

// cancelStart undoes a committed start whose power-on was not acknowledged.
func (s *SessionService) cancelStart(ctx context.Context, sess models.Session, dev models.Device, debit *models.WalletChange) error {
	ctx = context.WithoutCancel(ctx)
	now := s.clock.Now()

	zero := int64(0)
	sess.Status = models.SessionCancelled
	sess.End = &now
	sess.Duration = &zero
	sess.Cost = &zero
	dev.ClearTimer(models.TimerIdle)
	dev.UpdatedAt = now

	var refund *models.WalletChange
	err := s.repos.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Sessions.Update(ctx, sess); err != nil {
			return err
		}
		if debit != nil && sess.MemberID != nil {
			amount := debit.PreviousBalance - debit.NewBalance
			change, err := s.billing.Credit(ctx, tx.Wallets, *sess.MemberID, amount, sess.ID)
			if err != nil {
				return err
			}
			refund = &change
		}
		return tx.Devices.Save(ctx, dev)
	})
	if err != nil {
		s.log.Errorw("session_start_rollback_failed", "session_id", sess.ID, "device_id", dev.ID, "error", err)
		return err
	}

	ev := models.ActivityEvent{
		SessionID: sess.ID,
		DeviceID:  dev.ID,
		Type:      models.ActivityEnd,
		Timestamp: now,
		Metadata:  map[string]any{"cancelled": true, "reason": "actuator_start_failed"},
	}
	if refund != nil {
		ev.WalletBefore, ev.WalletAfter = &refund.PreviousBalance, &refund.NewBalance
	}
	s.appendActivity(ctx, ev)
	metrics.RecordSessionEnded(endReasonCancelled)
	s.log.Warnw("session_start_cancelled", "session_id", sess.ID, "device_id", dev.ID)
	return nil
}

// Stop pauses a running timer and keeps the remaining budget.
// Stopping a paused or ended device is a no-op.
func (s *SessionService) Stop(ctx context.Context, deviceID string) (models.Device, error) {
	unlock, err := s.lock(ctx, deviceID)
	if err != nil {
		return models.Device{}, err
	}
	defer unlock()

	dev, err := s.repos.Devices.Get(ctx, deviceID)
	if err != nil {
		return models.Device{}, fromRepo(err)
	}
	switch dev.TimerStatus {
	case models.TimerPaused, models.TimerEnded:
		return dev, nil
	case models.TimerRunning:
	default:
		return models.Device{}, conflict("device %s is not running", dev.ID)
	}

	sess, err := s.activeSession(ctx, dev.ID)
	if err != nil {
		return models.Device{}, err
	}

	now := s.clock.Now()
	elapsed := secondsBetween(*dev.TimerStart, now)
	meta := map[string]any{"elapsed_seconds": elapsed}
	if dev.TimerDuration != nil {
		remaining := max(0, *dev.TimerDuration-elapsed)
		dev.TimerDuration = &remaining
		meta["remaining_seconds"] = remaining
	}
	dev.TimerStatus = models.TimerPaused
	dev.TimerStart = nil
	dev.TimerElapsed = elapsed
	dev.LastPausedAt = &now
	dev.UpdatedAt = now

	if err := s.repos.Devices.Save(ctx, dev); err != nil {
		return models.Device{}, err
	}

	s.appendActivity(ctx, models.ActivityEvent{
		SessionID: sess.ID,
		DeviceID:  dev.ID,
		Type:      models.ActivityStop,
		Timestamp: now,
		Metadata:  meta,
	})
	_ = s.powerOff(ctx, dev.ID)

	s.log.Infow("session_paused", "session_id", sess.ID, "device_id", dev.ID, "elapsed", elapsed)
	return dev, nil
}

// Resume restarts a paused timer with the stored remaining budget.
func (s *SessionService) Resume(ctx context.Context, deviceID string) (models.Device, error) {
	unlock, err := s.lock(ctx, deviceID)
	if err != nil {
		return models.Device{}, err
	}
	defer unlock()

	dev, err := s.repos.Devices.Get(ctx, deviceID)
	if err != nil {
		return models.Device{}, fromRepo(err)
	}
	if dev.TimerStatus != models.TimerPaused {
		return models.Device{}, conflict("device %s is %s, only a paused device can resume", dev.ID, dev.TimerStatus)
	}
	sess, err := s.activeSession(ctx, dev.ID)
	if err != nil {
		return models.Device{}, err
	}

	now := s.clock.Now()
	dev.TimerStatus = models.TimerRunning
	dev.TimerStart = &now
	dev.TimerElapsed = 0
	dev.LastPausedAt = nil
	dev.UpdatedAt = now

	if err := s.repos.Devices.Save(ctx, dev); err != nil {
		return models.Device{}, err
	}

	s.appendActivity(ctx, models.ActivityEvent{
		SessionID: sess.ID,
		DeviceID:  dev.ID,
		Type:      models.ActivityResume,
		Timestamp: now,
	})
	_ = s.powerOn(ctx, dev.ID, dev.TimerDuration)

	s.log.Infow("session_resumed", "session_id", sess.ID, "device_id", dev.ID)
	return dev, nil
}

// AddTime extends a running bounded session. The remaining budget becomes
// what was left at the anchor plus the added seconds, anchored at now.
func (s *SessionService) AddTime(ctx context.Context, p AddTimeParams) (AddTimeResult, error) {
	if p.AdditionalMinutes <= 0 {
		return AddTimeResult{}, invalidInput("additional minutes must be positive, got %d", p.AdditionalMinutes)
	}
	if p.AdditionalMinutes > MaxSessionSeconds/60 {
		return AddTimeResult{}, invalidInput("additional minutes must not exceed %d, got %d", MaxSessionSeconds/60, p.AdditionalMinutes)
	}

	unlock, err := s.lock(ctx, p.DeviceID)
	if err != nil {
		return AddTimeResult{}, err
	}
	defer unlock()

	dev, err := s.repos.Devices.Get(ctx, p.DeviceID)
	if err != nil {
		return AddTimeResult{}, fromRepo(err)
	}
	if dev.TimerStatus != models.TimerRunning {
		return AddTimeResult{}, conflict("device %s is %s, time can only be added while running", dev.ID, dev.TimerStatus)
	}
	sess, err := s.activeSession(ctx, dev.ID)
	if err != nil {
		return AddTimeResult{}, err
	}
	if sess.Duration == nil || dev.TimerDuration == nil {
		return AddTimeResult{}, conflict("session %s is unlimited", sess.ID)
	}
	useDeposit := p.UseDeposit && sess.MemberID != nil
	if p.UseDeposit && !useDeposit {
		return AddTimeResult{}, invalidInput("session %s has no member deposit", sess.ID)
	}

	cat, err := s.categories.Get(ctx, dev.CategoryID)
	if err != nil {
		return AddTimeResult{}, fromRepo(err)
	}

	addSeconds := p.AdditionalMinutes * 60
	newTotal := *sess.Duration + addSeconds
	if newTotal > MaxSessionSeconds {
		return AddTimeResult{}, invalidInput("session %s would run %d seconds, limit is %d", sess.ID, newTotal, MaxSessionSeconds)
	}
	oldCost, err := CalculateCost(*sess.Duration, cat)
	if err != nil {
		return AddTimeResult{}, err
	}
	newCost, err := CalculateCost(newTotal, cat)
	if err != nil {
		return AddTimeResult{}, err
	}
	increment := max(0, newCost-oldCost)

	if useDeposit && increment > 0 {
		member, err := s.repos.Wallets.GetMember(ctx, *sess.MemberID)
		if err != nil {
			return AddTimeResult{}, fromRepo(err)
		}
		if increment > member.Deposit {
			return AddTimeResult{}, &InsufficientFundsError{MemberID: member.ID, Balance: member.Deposit, Required: increment}
		}
	}

	now := s.clock.Now()
	prevRemaining := max(0, *dev.TimerDuration-secondsBetween(*dev.TimerStart, now))
	remaining := prevRemaining + addSeconds

	sessCost := increment
	if sess.Cost != nil {
		sessCost += *sess.Cost
	}
	sess.Duration = &newTotal
	sess.Cost = &sessCost
	dev.TimerStart = &now
	dev.TimerDuration = &remaining
	dev.TimerElapsed = 0
	dev.UpdatedAt = now

	var wallet *models.WalletChange
	err = s.repos.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Sessions.Update(ctx, sess); err != nil {
			return err
		}
		if useDeposit && increment > 0 {
			change, err := s.billing.Debit(ctx, tx.Wallets, *sess.MemberID, increment, sess.ID)
			if err != nil {
				return err
			}
			wallet = &change
		}
		return tx.Devices.Save(ctx, dev)
	})
	if err != nil {
		s.log.Warnw("session_add_time_failed", "session_id", sess.ID, "device_id", dev.ID, "error", err)
		return AddTimeResult{}, err
	}

	method := methodOrCash(p.PaymentMethod)
	if useDeposit {
		method = PaymentMethodDeposit
	}
	ev := models.ActivityEvent{
		SessionID:     sess.ID,
		DeviceID:      dev.ID,
		Type:          models.ActivityAddTime,
		Timestamp:     now,
		DurationAdded: &addSeconds,
		CostAdded:     &increment,
		PaymentMethod: &method,
		Metadata:      map[string]any{"remaining_seconds": remaining},
	}
	if wallet != nil {
		ev.WalletBefore, ev.WalletAfter = &wallet.PreviousBalance, &wallet.NewBalance
	}
	s.appendActivity(ctx, ev)

	if !useDeposit && increment > 0 {
		s.billing.RecordPayment(ctx, models.Payment{
			ShiftID:   p.ShiftID,
			UserID:    p.UserID,
			SessionID: &sess.ID,
			Amount:    increment,
			Type:      models.PaymentAddTime,
			Method:    method,
		})
	}
	_ = s.powerOn(ctx, dev.ID, &remaining)

	s.log.Infow("session_time_added",
		"session_id", sess.ID,
		"device_id", dev.ID,
		"added_seconds", addSeconds,
		"cost_added", increment,
		"remaining", remaining,
	)
	return AddTimeResult{Session: sess, Device: dev, CostAdded: increment, RemainingSeconds: remaining, Wallet: wallet}, nil
}

type endOptions struct {
	productsAmount int64
	paymentMethod  string
	userID         *int
	shiftID        *string
	expired        bool
}

// End closes the session of a running or paused device and settles it
// against the usage reconstructed from the ledger.
func (s *SessionService) End(ctx context.Context, p EndParams) (EndResult, error) {
	if p.ProductsAmount < 0 {
		return EndResult{}, invalidInput("products amount must not be negative, got %d", p.ProductsAmount)
	}

	unlock, err := s.lock(ctx, p.DeviceID)
	if err != nil {
		return EndResult{}, err
	}
	defer unlock()

	dev, err := s.repos.Devices.Get(ctx, p.DeviceID)
	if err != nil {
		return EndResult{}, fromRepo(err)
	}
	return s.endLocked(ctx, dev, endOptions{
		productsAmount: p.ProductsAmount,
		paymentMethod:  p.PaymentMethod,
		userID:         p.UserID,
		shiftID:        p.ShiftID,
	})
}

// endLocked settles the device's session. The caller holds the device lock.
// Expired sessions bill at most their allotment and are never refunded.
func (s *SessionService) endLocked(ctx context.Context, dev models.Device, opts endOptions) (EndResult, error) {
	if dev.TimerStatus != models.TimerRunning && dev.TimerStatus != models.TimerPaused {
		return EndResult{}, conflict("device %s is %s, only a running or paused device can end", dev.ID, dev.TimerStatus)
	}
	sess, err := s.activeSession(ctx, dev.ID)
	if err != nil {
		return EndResult{}, err
	}
	cat, err := s.categories.Get(ctx, dev.CategoryID)
	if err != nil {
		return EndResult{}, fromRepo(err)
	}
	events, err := s.repos.Events.ListBySession(ctx, sess.ID)
	if err != nil {
		return EndResult{}, fmt.Errorf("read ledger of session %s: %w", sess.ID, err)
	}

	now := s.clock.Now()
	usage := ComputeUsageSeconds(withSyntheticStart(events, sess), sess.Start, &now)
	if opts.expired && sess.Duration != nil && usage > *sess.Duration {
		usage = *sess.Duration
	}

	var refund, finalCost int64
	switch {
	case sess.Duration == nil:
		if finalCost, err = CalculateCost(usage, cat); err != nil {
			return EndResult{}, err
		}
	case sess.IsMemberTransaction && sess.MemberID != nil:
		upfront := valueOr(sess.Cost, 0)
		if remaining := *sess.Duration - usage; remaining > 0 && !opts.expired {
			if refund, err = CalculateCost(remaining, cat); err != nil {
				return EndResult{}, err
			}
			refund = min(refund, upfront)
		}
		finalCost = upfront - refund
	default:
		finalCost = valueOr(sess.Cost, 0)
	}

	sess.End = &now
	sess.Duration = &usage
	sess.Cost = &finalCost
	sess.Status = models.SessionCompleted
	dev.ClearTimer(models.TimerEnded)
	dev.UpdatedAt = now

	var wallet *models.WalletChange
	err = s.repos.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Sessions.Update(ctx, sess); err != nil {
			return err
		}
		if refund > 0 {
			change, err := s.billing.Credit(ctx, tx.Wallets, *sess.MemberID, refund, sess.ID)
			if err != nil {
				return err
			}
			wallet = &change
		}
		return tx.Devices.Save(ctx, dev)
	})
	if err != nil {
		s.log.Errorw("session_end_failed", "session_id", sess.ID, "device_id", dev.ID, "error", err)
		return EndResult{}, err
	}

	method := methodOrCash(opts.paymentMethod)
	ev := models.ActivityEvent{
		SessionID: sess.ID,
		DeviceID:  dev.ID,
		Type:      models.ActivityEnd,
		Timestamp: now,
		Metadata: map[string]any{
			"refund":             refund,
			"real_usage_seconds": usage,
			"final_cost":         finalCost,
			"expired":            opts.expired,
		},
	}
	if wallet != nil {
		ev.WalletBefore, ev.WalletAfter = &wallet.PreviousBalance, &wallet.NewBalance
	}
	if sess.PaymentType == models.PaymentAtEnd {
		ev.CostAdded = &finalCost
		ev.PaymentMethod = &method
	}
	s.appendActivity(ctx, ev)

	if sess.PaymentType == models.PaymentAtEnd && finalCost > 0 {
		s.billing.RecordPayment(ctx, models.Payment{
			ShiftID:   opts.shiftID,
			UserID:    opts.userID,
			SessionID: &sess.ID,
			Amount:    finalCost,
			Type:      models.PaymentRental,
			Method:    method,
		})
	}
	if opts.productsAmount > 0 {
		s.billing.RecordPayment(ctx, models.Payment{
			ShiftID:   opts.shiftID,
			UserID:    opts.userID,
			SessionID: &sess.ID,
			Amount:    opts.productsAmount,
			Type:      models.PaymentProduct,
			Method:    method,
		})
	}
	_ = s.powerOff(ctx, dev.ID)

	reason := endReasonManual
	if opts.expired {
		reason = endReasonExpired
	}
	metrics.RecordSessionEnded(reason)
	if refund > 0 {
		metrics.RecordRefund(refund)
	}
	s.log.Infow("session_ended",
		"session_id", sess.ID,
		"device_id", dev.ID,
		"reason", reason,
		"usage", usage,
		"final_cost", finalCost,
		"refund", refund,
	)
	return EndResult{
		Session:      sess,
		Device:       dev,
		UsageSeconds: usage,
		Refund:       refund,
		FinalCost:    finalCost,
		Expired:      opts.expired,
		Wallet:       wallet,
	}, nil
}

// appendActivity writes a ledger entry after the transition committed.
// A failed append is logged and counted, the transition stands.
func (s *SessionService) appendActivity(ctx context.Context, ev models.ActivityEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := s.repos.Events.Append(ctx, ev); err != nil {
		metrics.RecordLedgerAppendFailure(string(ev.Type))
		s.log.Errorw("ledger_append_failed",
			"session_id", ev.SessionID,
			"device_id", ev.DeviceID,
			"activity_type", ev.Type,
			"error", err,
		)
	}
}

func (s *SessionService) powerOn(ctx context.Context, deviceID string, durationSeconds *int64) error {
	err := s.actuator.PowerOn(context.WithoutCancel(ctx), deviceID, durationSeconds)
	if err != nil {
		metrics.RecordActuatorFailure(actuatorPowerOn)
		s.log.Warnw("actuator_power_on_failed", "device_id", deviceID, "error", err)
	}
	return err
}

func (s *SessionService) powerOff(ctx context.Context, deviceID string) error {
	err := s.actuator.PowerOff(context.WithoutCancel(ctx), deviceID)
	if err != nil {
		metrics.RecordActuatorFailure(actuatorPowerOff)
		s.log.Warnw("actuator_power_off_failed", "device_id", deviceID, "error", err)
	}
	return err
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func valueOr(v *int64, def int64) int64 {
	if v == nil {
		return def
	}
	return *v
}

// timerRemaining is the budget left at now for a running or paused device.
// ok is false for unlimited timers.
func timerRemaining(dev models.Device, now time.Time) (remaining int64, ok bool) {
	if dev.TimerDuration == nil {
		return 0, false
	}
	if dev.TimerStatus == models.TimerRunning && dev.TimerStart != nil {
		return max(0, *dev.TimerDuration-secondsBetween(*dev.TimerStart, now)), true
	}
	return *dev.TimerDuration, true
}
