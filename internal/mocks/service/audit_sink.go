package service

import (
	"context"

	"philbox/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// MockAuditSink is a mock type for the AuditSink type.
type MockAuditSink struct {
	mock.Mock
}

// NewMockAuditSink creates a new instance of MockAuditSink. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockAuditSink(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAuditSink {
	m := &MockAuditSink{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockAuditSink) Record(ctx context.Context, record entity.AuditRecord) error {
	return m.Called(ctx, record).Error(0)
}
