package mocks

import (
	"github.com/marcelsud/timeherenow-example/webhook"
	"github.com/stretchr/testify/mock"
)

// Repository is a testify mock of webhook.Repository
type Repository struct {
	mock.Mock
}

func (m *Repository) Append(record webhook.Record) error {
	ret := m.Called(record)
	return ret.Error(0)
}

func (m *Repository) Snapshot() []webhook.Record {
	ret := m.Called()
	records, _ := ret.Get(0).([]webhook.Record)
	return records
}

func (m *Repository) Recent(n int) []webhook.Record {
	ret := m.Called(n)
	records, _ := ret.Get(0).([]webhook.Record)
	return records
}

func (m *Repository) Tail(n int) ([]webhook.Record, int) {
	ret := m.Called(n)
	records, _ := ret.Get(0).([]webhook.Record)
	return records, ret.Int(1)
}

func (m *Repository) Len() int {
	ret := m.Called()
	return ret.Int(0)
}

// NewRepository creates a mock and registers its expectation check on cleanup
func NewRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *Repository {
	m := &Repository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// RecordMatching matches Append arguments satisfying fn
func RecordMatching(fn func(webhook.Record) bool) interface{} {
	return mock.MatchedBy(fn)
}
