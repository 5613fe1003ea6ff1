package handlers

import (
	"context"
	"net/http"
	"time"

	"console_rental"
	"console_rental/internal/models"
	"console_rental/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockSessions struct {
	startRes   service.StartResult
	startErr   error
	device     models.Device
	stopErr    error
	resumeErr  error
	addRes     service.AddTimeResult
	addErr     error
	endRes     service.EndResult
	endErr     error
	lastStart  service.StartParams
	lastAdd    service.AddTimeParams
	lastEnd    service.EndParams
	lastDevice string
}

func (m *mockSessions) Start(ctx context.Context, p service.StartParams) (service.StartResult, error) {
	m.lastStart = p
	return m.startRes, m.startErr
}
func (m *mockSessions) Stop(ctx context.Context, deviceID string) (models.Device, error) {
	m.lastDevice = deviceID
	return m.device, m.stopErr
}
func (m *mockSessions) Resume(ctx context.Context, deviceID string) (models.Device, error) {
	m.lastDevice = deviceID
	return m.device, m.resumeErr
}
func (m *mockSessions) AddTime(ctx context.Context, p service.AddTimeParams) (service.AddTimeResult, error) {
	m.lastAdd = p
	return m.addRes, m.addErr
}
func (m *mockSessions) End(ctx context.Context, p service.EndParams) (service.EndResult, error) {
	m.lastEnd = p
	return m.endRes, m.endErr
}

type mockMonitoring struct {
	status console_rental.DeviceStatus
	list   []console_rental.DeviceStatus
	err    error
}

func (m *mockMonitoring) DeviceStatus(ctx context.Context, deviceID string) (console_rental.DeviceStatus, error) {
	return m.status, m.err
}
func (m *mockMonitoring) ListDeviceStatus(ctx context.Context) ([]console_rental.DeviceStatus, error) {
	return m.list, m.err
}

type mockLedger struct {
	events      []models.ActivityEvent
	usage       console_rental.UsageReport
	err         error
	lastFilter  service.ActivityFilter
	lastSession string
}

func (m *mockLedger) List(ctx context.Context, f service.ActivityFilter) ([]models.ActivityEvent, error) {
	m.lastFilter = f
	return m.events, m.err
}
func (m *mockLedger) History(ctx context.Context, sessionID string) ([]models.ActivityEvent, error) {
	m.lastSession = sessionID
	return m.events, m.err
}
func (m *mockLedger) Usage(ctx context.Context, sessionID string) (console_rental.UsageReport, error) {
	m.lastSession = sessionID
	return m.usage, m.err
}

type mockSweeper struct {
	report service.SweepReport
	err    error
	calls  int
}

func (m *mockSweeper) Run(ctx context.Context, interval time.Duration) {}
func (m *mockSweeper) SweepOnce(ctx context.Context) (service.SweepReport, error) {
	m.calls++
	return m.report, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, opts...)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
