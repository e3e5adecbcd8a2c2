package middleware

import (
	"context"

	"philbox/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Load(ctx context.Context, token string) (*entity.Session, error) {
	args := m.Called(ctx, token)
	sess, _ := args.Get(0).(*entity.Session)

	return sess, args.Error(1)
}

func (m *mockSessions) BeginPending(ctx context.Context, sess *entity.Session, kind entity.ActorKind, actorID uuid.UUID) error {
	return m.Called(ctx, sess, kind, actorID).Error(0)
}

func (m *mockSessions) Promote(ctx context.Context, sess *entity.Session, kind entity.ActorKind, actorID uuid.UUID) error {
	return m.Called(ctx, sess, kind, actorID).Error(0)
}

func (m *mockSessions) Destroy(ctx context.Context, sess *entity.Session, kind entity.ActorKind) (bool, error) {
	args := m.Called(ctx, sess, kind)

	return args.Bool(0), args.Error(1)
}

func (m *mockSessions) Resolve(ctx context.Context, sess *entity.Session, kind entity.ActorKind) (*entity.Actor, error) {
	args := m.Called(ctx, sess, kind)
	actor, _ := args.Get(0).(*entity.Actor)

	return actor, args.Error(1)
}

type mockPermissions struct {
	mock.Mock
}

func (m *mockPermissions) Resolve(ctx context.Context, actor *entity.Actor) (*entity.ResolvedRole, error) {
	args := m.Called(ctx, actor)
	role, _ := args.Get(0).(*entity.ResolvedRole)

	return role, args.Error(1)
}

func (m *mockPermissions) HasPermission(ctx context.Context, actor *entity.Actor, key entity.PermissionKey) bool {
	return m.Called(ctx, actor, key).Bool(0)
}

func (m *mockPermissions) HasAny(ctx context.Context, actor *entity.Actor, keys ...entity.PermissionKey) bool {
	return m.Called(ctx, actor, keys).Bool(0)
}

func (m *mockPermissions) HasAll(ctx context.Context, actor *entity.Actor, keys ...entity.PermissionKey) bool {
	return m.Called(ctx, actor, keys).Bool(0)
}

func (m *mockPermissions) HasRole(ctx context.Context, actor *entity.Actor, names ...entity.RoleName) bool {
	return m.Called(ctx, actor, names).Bool(0)
}
