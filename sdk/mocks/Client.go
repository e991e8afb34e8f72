package mocks

import (
	"context"

	"github.com/marcelsud/timeherenow-example/metrics"
	"github.com/marcelsud/timeherenow-example/sdk"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// Client is a testify mock of sdk.Client
type Client struct {
	mock.Mock
}

func (m *Client) Login(ctx context.Context) (sdk.LoginResult, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(sdk.LoginResult), ret.Error(1)
}

func (m *Client) OwnConfig(ctx context.Context) (sdk.Identity, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(sdk.Identity), ret.Error(1)
}

func (m *Client) Sessions() sdk.SessionManager {
	ret := m.Called()
	sm, _ := ret.Get(0).(sdk.SessionManager)
	return sm
}

func (m *Client) Performance() sdk.PerformanceService {
	ret := m.Called()
	ps, _ := ret.Get(0).(sdk.PerformanceService)
	return ps
}

func (m *Client) Logger() zerolog.Logger {
	ret := m.Called()
	return ret.Get(0).(zerolog.Logger)
}

// NewClient creates a mock and registers its expectation check on cleanup
func NewClient(t testingT) *Client {
	m := &Client{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// SessionManager is a testify mock of sdk.SessionManager
type SessionManager struct {
	mock.Mock
}

func (m *SessionManager) ActiveSessionCount(ctx context.Context) (int, error) {
	ret := m.Called(ctx)
	return ret.Int(0), ret.Error(1)
}

func (m *SessionManager) StorageType() string {
	ret := m.Called()
	return ret.String(0)
}

func NewSessionManager(t testingT) *SessionManager {
	m := &SessionManager{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// PerformanceService is a testify mock of sdk.PerformanceService
type PerformanceService struct {
	mock.Mock
}

func (m *PerformanceService) Metrics() metrics.Metrics {
	ret := m.Called()
	return ret.Get(0).(metrics.Metrics)
}

func NewPerformanceService(t testingT) *PerformanceService {
	m := &PerformanceService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
