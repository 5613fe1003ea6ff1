package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"console_rental/internal/devicelock"
	"console_rental/internal/models"
	"console_rental/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// memStore is an in-memory stand-in for the SQLite repositories. WithinTx
// restores devices, sessions and members when fn fails.
type memStore struct {
	mu         sync.Mutex
	devices    map[string]models.Device
	sessions   map[string]models.Session
	categories map[string]models.RateCategory
	members    map[string]models.Member
	events     []models.ActivityEvent
	payments   []models.Payment
	walletTxs  []models.WalletTransaction

	appendErr     error
	paymentErr    error
	deviceSaveErr error
}

func newMemStore() *memStore {
	return &memStore{
		devices:    map[string]models.Device{},
		sessions:   map[string]models.Session{},
		categories: map[string]models.RateCategory{},
		members:    map[string]models.Member{},
	}
}

func (m *memStore) repos() *repository.Repository {
	return &repository.Repository{
		Devices:    memDevices{m},
		Sessions:   memSessions{m},
		Events:     memEvents{m},
		Categories: memCategories{m},
		Wallets:    memWallets{m},
		Payments:   memPayments{m},
		Tx:         memTx{m},
	}
}

type memTx struct{ m *memStore }

func (t memTx) WithinTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	t.m.mu.Lock()
	devices := cloneMap(t.m.devices)
	sessions := cloneMap(t.m.sessions)
	members := cloneMap(t.m.members)
	walletTxs := len(t.m.walletTxs)
	t.m.mu.Unlock()

	if err := fn(t.m.repos()); err != nil {
		t.m.mu.Lock()
		t.m.devices, t.m.sessions, t.m.members = devices, sessions, members
		t.m.walletTxs = t.m.walletTxs[:walletTxs]
		t.m.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type memDevices struct{ m *memStore }

func (r memDevices) Get(_ context.Context, id string) (models.Device, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	d, ok := r.m.devices[id]
	if !ok {
		return models.Device{}, fmt.Errorf("device %q: %w", id, repository.ErrNotFound)
	}
	return d, nil
}

func (r memDevices) List(_ context.Context) ([]models.Device, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Device
	for _, d := range r.m.devices {
		out = append(out, d)
	}
	return out, nil
}

func (r memDevices) ListByStatus(_ context.Context, status models.TimerStatus) ([]models.Device, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.Device
	for _, d := range r.m.devices {
		if d.TimerStatus == status {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r memDevices) Save(_ context.Context, d models.Device) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.deviceSaveErr != nil {
		return r.m.deviceSaveErr
	}
	r.m.devices[d.ID] = d
	return nil
}

type memSessions struct{ m *memStore }

func (r memSessions) Create(_ context.Context, s models.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.sessions {
		if existing.DeviceID == s.DeviceID && existing.Status == models.SessionActive && s.Status == models.SessionActive {
			return errors.New("UNIQUE constraint failed: sessions.device_id")
		}
	}
	r.m.sessions[s.ID] = s
	return nil
}

func (r memSessions) Update(_ context.Context, s models.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.sessions[s.ID]; !ok {
		return fmt.Errorf("session %q: %w", s.ID, repository.ErrNotFound)
	}
	r.m.sessions[s.ID] = s
	return nil
}

func (r memSessions) Get(_ context.Context, id string) (models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok {
		return models.Session{}, fmt.Errorf("session %q: %w", id, repository.ErrNotFound)
	}
	return s, nil
}

func (r memSessions) ActiveForDevice(_ context.Context, deviceID string) (models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.sessions {
		if s.DeviceID == deviceID && s.Status == models.SessionActive {
			return s, nil
		}
	}
	return models.Session{}, fmt.Errorf("active session of device %q: %w", deviceID, repository.ErrNotFound)
}

type memEvents struct{ m *memStore }

func (r memEvents) Append(_ context.Context, e models.ActivityEvent) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.appendErr != nil {
		return r.m.appendErr
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	r.m.events = append(r.m.events, e)
	return nil
}

func (r memEvents) ListBySession(_ context.Context, sessionID string) ([]models.ActivityEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.ActivityEvent
	for _, e := range r.m.events {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memEvents) List(_ context.Context, f repository.EventFilter) ([]models.ActivityEvent, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []models.ActivityEvent
	for _, e := range r.m.events {
		if !f.From.IsZero() && e.Timestamp.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Timestamp.After(f.To) {
			continue
		}
		if f.Type != "" && string(e.Type) != f.Type {
			continue
		}
		if f.DeviceID != "" && e.DeviceID != f.DeviceID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type memCategories struct{ m *memStore }

func (r memCategories) Get(_ context.Context, id string) (models.RateCategory, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.categories[id]
	if !ok {
		return models.RateCategory{}, fmt.Errorf("rate category %q: %w", id, repository.ErrNotFound)
	}
	return c, nil
}

type memWallets struct{ m *memStore }

func (r memWallets) GetMember(_ context.Context, id string) (models.Member, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	mem, ok := r.m.members[id]
	if !ok {
		return models.Member{}, fmt.Errorf("member %q: %w", id, repository.ErrNotFound)
	}
	return mem, nil
}

func (r memWallets) Debit(ctx context.Context, memberID string, amount int64, sessionID string) (models.WalletChange, error) {
	return r.apply(memberID, -amount, sessionID, "debit")
}

func (r memWallets) Credit(ctx context.Context, memberID string, amount int64, sessionID string) (models.WalletChange, error) {
	return r.apply(memberID, amount, sessionID, "credit")
}

func (r memWallets) apply(memberID string, delta int64, sessionID, kind string) (models.WalletChange, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	mem, ok := r.m.members[memberID]
	if !ok {
		return models.WalletChange{}, fmt.Errorf("member %q: %w", memberID, repository.ErrNotFound)
	}
	change := models.WalletChange{PreviousBalance: mem.Deposit, NewBalance: mem.Deposit + delta}
	if change.NewBalance < 0 {
		return models.WalletChange{PreviousBalance: mem.Deposit, NewBalance: mem.Deposit}, repository.ErrInsufficientBalance
	}
	mem.Deposit = change.NewBalance
	r.m.members[memberID] = mem
	sid := sessionID
	r.m.walletTxs = append(r.m.walletTxs, models.WalletTransaction{
		MemberID:      memberID,
		SessionID:     &sid,
		Amount:        delta,
		BalanceBefore: change.PreviousBalance,
		BalanceAfter:  change.NewBalance,
		Kind:          kind,
	})
	return change, nil
}

type memPayments struct{ m *memStore }

func (r memPayments) Record(_ context.Context, p models.Payment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.paymentErr != nil {
		return r.m.paymentErr
	}
	r.m.payments = append(r.m.payments, p)
	return nil
}

func (m *memStore) device(t *testing.T, id string) models.Device {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		t.Fatalf("device %q not found", id)
	}
	return d
}

func (m *memStore) member(t *testing.T, id string) models.Member {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[id]
}

func (m *memStore) eventsOf(sessionID string) []models.ActivityEvent {
	evs, _ := memEvents{m}.ListBySession(context.Background(), sessionID)
	return evs
}

func (m *memStore) allSessions() []models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Session
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type actuatorCall struct {
	deviceID string
	duration *int64
}

type fakeActuator struct {
	mu     sync.Mutex
	on     []actuatorCall
	off    []string
	onErr  error
	offErr error
}

func (a *fakeActuator) PowerOn(_ context.Context, deviceID string, durationSeconds *int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.on = append(a.on, actuatorCall{deviceID: deviceID, duration: copyInt64(durationSeconds)})
	return a.onErr
}

func (a *fakeActuator) PowerOff(_ context.Context, deviceID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.off = append(a.off, deviceID)
	return a.offErr
}

const (
	testDevice   = "ps-1"
	testCategory = "standard"
	testMember   = "m-1"
	testPIN      = "1234"
)

var testEpoch = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

type harness struct {
	store    *memStore
	clock    *fakeClock
	actuator *fakeActuator
	locks    *devicelock.Memory
	sessions *SessionService
	sweeper  *SweeperService
	ledger   *LedgerService
	monitor  *MonitoringService
}

// newHarness seeds one idle device on a 10000-per-hour category and one member
// with a deposit of 20000 and PIN 1234.
func newHarness(t *testing.T, mutate ...func(*Deps)) *harness {
	t.Helper()

	pinHash, err := bcrypt.GenerateFromPassword([]byte(testPIN), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}

	st := newMemStore()
	st.categories[testCategory] = models.RateCategory{ID: testCategory, Name: "Standard", CostPerPeriod: 10000, PeriodMinutes: 60}
	st.devices[testDevice] = models.Device{ID: testDevice, Name: "PS5 #1", CategoryID: testCategory, TimerStatus: models.TimerIdle}
	st.members[testMember] = models.Member{ID: testMember, Name: "Alice", Deposit: 20000, PinHash: string(pinHash)}

	h := &harness{
		store:    st,
		clock:    &fakeClock{now: testEpoch},
		actuator: &fakeActuator{},
		locks:    devicelock.NewMemory(50 * time.Millisecond),
	}
	deps := Deps{
		Locker:      h.locks,
		Actuator:    h.actuator,
		Clock:       h.clock,
		GracePeriod: 300 * time.Second,
	}
	for _, fn := range mutate {
		fn(&deps)
	}
	repos := st.repos()
	deps = deps.withDefaults(repos)

	billing := NewBilling(repos.Payments, deps.Clock, deps.Logger)
	h.sessions = NewSessionService(repos, deps.Categories, billing, deps)
	h.sweeper = NewSweeperService(repos.Devices, h.sessions, deps)
	h.ledger = NewLedgerService(repos.Events, repos.Sessions, repos.Devices, deps.Categories, deps.Clock)
	h.monitor = NewMonitoringService(repos.Devices, repos.Sessions, deps.Clock)
	return h
}

func ptr[T any](v T) *T { return &v }

func (h *harness) startMember(t *testing.T, durationSeconds int64) StartResult {
	t.Helper()
	res, err := h.sessions.Start(context.Background(), StartParams{
		DeviceID:        testDevice,
		DurationSeconds: ptr(durationSeconds),
		MemberID:        ptr(testMember),
		PIN:             ptr(testPIN),
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return res
}

func (h *harness) startWalkIn(t *testing.T, durationSeconds *int64) StartResult {
	t.Helper()
	res, err := h.sessions.Start(context.Background(), StartParams{
		DeviceID:        testDevice,
		DurationSeconds: durationSeconds,
		PaymentMethod:   "card",
		UserID:          ptr(7),
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return res
}
