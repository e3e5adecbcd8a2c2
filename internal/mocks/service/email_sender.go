package service

import (
	"context"

	"philbox/internal/domain/entity"
	"philbox/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockEmailSender is a mock type for the EmailSender type.
type MockEmailSender struct {
	mock.Mock
}

// NewMockEmailSender creates a new instance of MockEmailSender. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockEmailSender(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEmailSender {
	m := &MockEmailSender{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockEmailSender) SendVerification(ctx context.Context, to *entity.Actor, link string) error {
	return m.Called(ctx, to, link).Error(0)
}

func (m *MockEmailSender) SendPasswordReset(ctx context.Context, to *entity.Actor, link string) error {
	return m.Called(ctx, to, link).Error(0)
}

func (m *MockEmailSender) SendOTP(ctx context.Context, to *entity.Actor, code string) error {
	return m.Called(ctx, to, code).Error(0)
}

func (m *MockEmailSender) SendWelcome(ctx context.Context, to *entity.Actor) error {
	return m.Called(ctx, to).Error(0)
}

func (m *MockEmailSender) SendApplicationDecision(ctx context.Context, to *entity.Actor, decision service.ApplicationDecisionMail) error {
	return m.Called(ctx, to, decision).Error(0)
}
