package service

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockBlobUploader is a mock type for the BlobUploader type.
type MockBlobUploader struct {
	mock.Mock
}

// NewMockBlobUploader creates a new instance of MockBlobUploader. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockBlobUploader(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBlobUploader {
	m := &MockBlobUploader{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockBlobUploader) Upload(ctx context.Context, localPath, folder string) (string, error) {
	args := m.Called(ctx, localPath, folder)

	if fn, ok := args.Get(0).(func(context.Context, string, string) string); ok {
		return fn(ctx, localPath, folder), args.Error(1)
	}

	return args.String(0), args.Error(1)
}
