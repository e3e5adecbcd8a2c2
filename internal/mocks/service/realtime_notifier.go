package service

import (
	"context"

	"philbox/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// MockRealtimeNotifier is a mock type for the RealtimeNotifier type.
type MockRealtimeNotifier struct {
	mock.Mock
}

// NewMockRealtimeNotifier creates a new instance of MockRealtimeNotifier. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockRealtimeNotifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRealtimeNotifier {
	m := &MockRealtimeNotifier{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockRealtimeNotifier) EmitToActor(ctx context.Context, kind entity.ActorKind, actorID, event string, payload map[string]string) error {
	return m.Called(ctx, kind, actorID, event, payload).Error(0)
}

func (m *MockRealtimeNotifier) EmitToKind(ctx context.Context, kind entity.ActorKind, event string, payload map[string]string) error {
	return m.Called(ctx, kind, event, payload).Error(0)
}
