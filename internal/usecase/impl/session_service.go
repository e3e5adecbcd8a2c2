package impl

import (
	"context"
	"log/slog"
	"time"

	"philbox/config"
	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"
	"philbox/internal/domain/repository"
	"philbox/internal/domain/service"
	"philbox/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	defaultSessionTTL        = 7 * 24 * time.Hour
	defaultSessionTouchAfter = 24 * time.Hour
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	store    repository.SessionStore
	repos    repository.RepositoryFactory
	tokens   service.TokenService
	clock    service.Clock
	metrics  service.MetricsRecorder
	policies   actorPolicies
	ttl        time.Duration
	touchAfter time.Duration
	logger     *slog.Logger
}

// SessionServiceParams holds dependencies for SessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	Store   repository.SessionStore
	Repos   repository.RepositoryFactory
	Tokens  service.TokenService
	Clock   service.Clock
	Metrics service.MetricsRecorder `optional:"true"`
	Config  *config.Config
	Logger  *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	ttl := defaultSessionTTL
	touchAfter := defaultSessionTouchAfter
	if params.Config != nil && params.Config.Session != nil {
		if params.Config.Session.TTL > 0 {
			ttl = params.Config.Session.TTL
		}
		if params.Config.Session.TouchAfter > 0 {
			touchAfter = params.Config.Session.TouchAfter
		}
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = service.NopMetrics{}
	}

	return &sessionService{
		store:    params.Store,
		repos:    params.Repos,
		tokens:   params.Tokens,
		clock:    params.Clock,
		metrics:  metrics,
		policies:   newActorPolicies(params.Config),
		ttl:        ttl,
		touchAfter: touchAfter,
		logger:     params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Load returns the stored session for token. Unknown or expired tokens start a fresh session.
func (srv *sessionService) Load(ctx context.Context, token string) (*entity.Session, error) {
	if token == "" {
		return entity.NewSession(), nil
	}

	sess, err := srv.store.Get(ctx, token)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return entity.NewSession(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session")
	}
	sess.Token = token

	return sess, nil
}

// BeginPending records that actorID still owes a second factor for kind.
func (srv *sessionService) BeginPending(ctx context.Context, sess *entity.Session, kind entity.ActorKind, actorID uuid.UUID) error {
	if !kind.Valid() {
		return domainerrors.ErrValidationFailed.WithDetails("unknown actor kind")
	}
	sess.SetPending(kind, actorID)

	return srv.save(ctx, sess, false)
}

// Promote grants kind full access and rotates the session token so a pre-login token cannot be reused.
func (srv *sessionService) Promote(ctx context.Context, sess *entity.Session, kind entity.ActorKind, actorID uuid.UUID) error {
	if !kind.Valid() {
		return domainerrors.ErrValidationFailed.WithDetails("unknown actor kind")
	}
	sess.SetAuthenticated(kind, actorID)

	return srv.save(ctx, sess, true)
}

// Destroy clears one kind's slot. The store record is removed when no slot remains.
func (srv *sessionService) Destroy(ctx context.Context, sess *entity.Session, kind entity.ActorKind) (bool, error) {
	if !sess.Clear(kind) {
		return false, nil
	}

	if !sess.Empty() {
		return true, srv.save(ctx, sess, false)
	}

	if !sess.IsNew() {
		if err := srv.store.Delete(ctx, sess.Token); err != nil {
			return true, errors.Wrap(err, "failed to delete session")
		}
	}
	sess.Destroyed = true

	return true, nil
}

// Resolve re-reads the actor behind an authenticated slot and enforces the kind's status policy.
func (srv *sessionService) Resolve(ctx context.Context, sess *entity.Session, kind entity.ActorKind) (*entity.Actor, error) {
	policy, err := srv.policies.forKind(kind)
	if err != nil {
		return nil, err
	}

	if sess.State(kind) != entity.SessionStateAuthenticated {
		srv.metrics.SessionResolution(kind, service.OutcomeFailure)

		return nil, domainerrors.ErrUnauthorized
	}
	actorID := sess.Slot(kind).ActorID

	actor, err := srv.repos.ActorRepo(kind).FindByIDPrimary(ctx, actorID)
	if errors.Is(err, repository.ErrActorNotFound) {
		srv.metrics.SessionResolution(kind, service.OutcomeFailure)
		srv.destroyQuietly(ctx, sess, kind)

		return nil, domainerrors.ErrUnauthorized
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session actor")
	}

	if policy.isBlocked(actor.Status) {
		srv.metrics.SessionResolution(kind, service.OutcomeBlocked)
		srv.log(ctx).Info("Session actor is no longer allowed, destroying slot",
			slog.String("kind", kind.String()),
			slog.String("actorID", actorID.String()),
			slog.String("status", string(actor.Status)))
		srv.destroyQuietly(ctx, sess, kind)

		return nil, domainerrors.ErrAccountBlocked
	}

	srv.metrics.SessionResolution(kind, service.OutcomeSuccess)
	srv.renew(ctx, sess)

	return actor, nil
}

// renew slides the expiry of an actively used session, at most once per touchAfter.
func (srv *sessionService) renew(ctx context.Context, sess *entity.Session) {
	if sess.IsNew() || sess.Destroyed {
		return
	}
	now := srv.clock.Now()
	expiresAt := now.Add(srv.ttl)
	if expiresAt.Sub(sess.ExpiresAt) < srv.touchAfter {
		return
	}

	err := srv.store.Touch(ctx, sess.Token, expiresAt, srv.ttl)
	if errors.Is(err, repository.ErrSessionNotFound) {
		srv.log(ctx).Debug("Session expired before it could be renewed")

		return
	}
	if err != nil {
		srv.log(ctx).Warn("Failed to renew session", slog.Any("error", err))

		return
	}
	sess.ExpiresAt = expiresAt
}

func (srv *sessionService) destroyQuietly(ctx context.Context, sess *entity.Session, kind entity.ActorKind) {
	if _, err := srv.Destroy(ctx, sess, kind); err != nil {
		srv.log(ctx).Warn("Failed to destroy session slot", slog.String("kind", kind.String()), slog.Any("error", err))
	}
}

// save persists the session, renewing its TTL. A new token is minted for new sessions and on rotation.
func (srv *sessionService) save(ctx context.Context, sess *entity.Session, rotate bool) error {
	now := srv.clock.Now()

	if sess.IsNew() || rotate {
		oldToken := sess.Token
		token, err := srv.tokens.NewSessionToken()
		if err != nil {
			return errors.Wrap(err, "failed to create session token")
		}
		sess.Token = token
		if sess.CreatedAt.IsZero() {
			sess.CreatedAt = now
		}
		if oldToken != "" {
			if err := srv.store.Delete(ctx, oldToken); err != nil {
				srv.log(ctx).Warn("Failed to delete rotated session", slog.Any("error", err))
			}
		}
	}

	sess.ExpiresAt = now.Add(srv.ttl)
	sess.Destroyed = false

	if err := srv.store.Save(ctx, sess, srv.ttl); err != nil {
		return errors.Wrap(err, "failed to save session")
	}

	return nil
}
