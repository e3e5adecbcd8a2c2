package service

import (
	"context"

	"philbox/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockIdentityVerifier is a mock type for the IdentityVerifier type.
type MockIdentityVerifier struct {
	mock.Mock
}

// NewMockIdentityVerifier creates a new instance of MockIdentityVerifier. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockIdentityVerifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockIdentityVerifier {
	m := &MockIdentityVerifier{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockIdentityVerifier) VerifyGoogleIDToken(ctx context.Context, idToken string) (*service.GoogleIdentity, error) {
	args := m.Called(ctx, idToken)

	identity, _ := args.Get(0).(*service.GoogleIdentity)

	return identity, args.Error(1)
}
