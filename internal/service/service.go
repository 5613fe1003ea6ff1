package service

import (
	"context"
	"time"

	"console_rental"
	"console_rental/internal/actuator"
	"console_rental/internal/devicelock"
	"console_rental/internal/logger"
	"console_rental/internal/models"
	"console_rental/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Sessions exposes the device timer commands.
type Sessions interface {
	Start(ctx context.Context, p StartParams) (StartResult, error)
	Stop(ctx context.Context, deviceID string) (models.Device, error)
	Resume(ctx context.Context, deviceID string) (models.Device, error)
	AddTime(ctx context.Context, p AddTimeParams) (AddTimeResult, error)
	End(ctx context.Context, p EndParams) (EndResult, error)
}

// Monitoring exposes read-only device status (timer fields, elapsed, remaining).
type Monitoring interface {
	DeviceStatus(ctx context.Context, deviceID string) (console_rental.DeviceStatus, error)
	ListDeviceStatus(ctx context.Context) ([]console_rental.DeviceStatus, error)
}

// Ledger exposes the append-only activity log and usage derived from it.
type Ledger interface {
	List(ctx context.Context, f ActivityFilter) ([]models.ActivityEvent, error)
	History(ctx context.Context, sessionID string) ([]models.ActivityEvent, error)
	Usage(ctx context.Context, sessionID string) (console_rental.UsageReport, error)
}

// Sweeper runs the background loop that ends overdue sessions.
// Stop via context cancellation in main() for graceful shutdown.
type Sweeper interface {
	Run(ctx context.Context, interval time.Duration)
	SweepOnce(ctx context.Context) (SweepReport, error)
}

type Service struct {
	Sessions
	Monitoring
	Ledger
	Sweeper
	Authorization
}

// Deps are the collaborators and settings shared by the services.
// Zero values fall back to in-process defaults.
type Deps struct {
	Locker     devicelock.Locker
	Actuator   actuator.Actuator
	Clock      Clock
	Logger     *logger.Logger
	Categories repository.CategoryRepo // e.g. a cached rate-card lookup

	GracePeriod     time.Duration
	RequireStartAck bool
	SigningKey      string
	TokenTTL        time.Duration
}

const defaultLockWait = 5 * time.Second

func (d Deps) withDefaults(repos *repository.Repository) Deps {
	if d.Locker == nil {
		d.Locker = devicelock.NewMemory(defaultLockWait)
	}
	if d.Actuator == nil {
		d.Actuator = actuator.Noop{}
	}
	if d.Clock == nil {
		d.Clock = RealClock{}
	}
	if d.Categories == nil {
		d.Categories = repos.Categories
	}
	d.Logger = logger.OrNop(d.Logger)
	return d
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	deps = deps.withDefaults(repos)

	billing := NewBilling(repos.Payments, deps.Clock, deps.Logger)
	sessions := NewSessionService(repos, deps.Categories, billing, deps)

	return &Service{
		Sessions:      sessions,
		Monitoring:    NewMonitoringService(repos.Devices, repos.Sessions, deps.Clock),
		Ledger:        NewLedgerService(repos.Events, repos.Sessions, repos.Devices, deps.Categories, deps.Clock),
		Sweeper:       NewSweeperService(repos.Devices, sessions, deps),
		Authorization: NewAuthService(repos.Auth, deps.SigningKey, deps.TokenTTL),
	}
}
