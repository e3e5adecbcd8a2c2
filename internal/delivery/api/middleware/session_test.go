package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"philbox/config"
	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	domainerrors "philbox/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSessionMiddleware(sessions *mockSessions) *SessionMiddleware {
	return NewSessionMiddleware(SessionMiddlewareParams{
		Sessions: sessions,
		Config: &config.Config{Session: &config.SessionConfig{
			CookieName: "sid",
			TTL:        time.Hour,
			Secure:     true,
			SameSite:   "strict",
		}},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func serveWithSession(t *testing.T, mw *SessionMiddleware, cookie string, handler echo.HandlerFunc) *http.Response {
	t.Helper()

	e := echo.New()
	e.GET("/", handler, mw.Load)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: cookie})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec.Result()
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}

	return nil
}

func TestSessionMiddleware_SetsCookieWhenSessionSaved(t *testing.T) {
	sessions := &mockSessions{}
	sessions.On("Load", mock.Anything, "").Return(entity.NewSession(), nil)
	mw := newTestSessionMiddleware(sessions)

	resp := serveWithSession(t, mw, "", func(c echo.Context) error {
		sess := deliverycontext.GetSession(c)
		sess.Token = "fresh-token"
		sess.ExpiresAt = time.Now().Add(time.Hour)

		return c.NoContent(http.StatusNoContent)
	})

	cookie := findCookie(resp, "sid")
	require.NotNil(t, cookie)
	assert.Equal(t, "fresh-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, 3600, cookie.MaxAge)
}

func TestSessionMiddleware_UntouchedSessionWritesNoCookie(t *testing.T) {
	sess := entity.NewSession()
	sess.Token = "live"
	sess.ExpiresAt = time.Now().Add(time.Hour)
	sessions := &mockSessions{}
	sessions.On("Load", mock.Anything, "live").Return(sess, nil)
	mw := newTestSessionMiddleware(sessions)

	resp := serveWithSession(t, mw, "live", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	assert.Nil(t, findCookie(resp, "sid"))
}

func TestSessionMiddleware_ReissuesCookieWhenRenewed(t *testing.T) {
	sess := entity.NewSession()
	sess.Token = "live"
	sess.ExpiresAt = time.Now().Add(time.Minute)
	admin := &entity.Actor{ID: uuid.New(), Kind: entity.ActorKindAdmin}
	sessions := &mockSessions{}
	sessions.On("Load", mock.Anything, "live").Return(sess, nil)
	sessions.On("Resolve", mock.Anything, sess, entity.ActorKindAdmin).
		Run(func(args mock.Arguments) {
			args.Get(1).(*entity.Session).ExpiresAt = time.Now().Add(time.Hour)
		}).
		Return(admin, nil)
	mw := newTestSessionMiddleware(sessions)

	e := echo.New()
	e.GET("/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, mw.Load, mw.RequireActor(entity.ActorKindAdmin))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "live"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	cookie := findCookie(rec.Result(), "sid")
	require.NotNil(t, cookie)
	assert.Equal(t, "live", cookie.Value)
	assert.Equal(t, 3600, cookie.MaxAge)
}

func TestSessionMiddleware_ClearsCookie(t *testing.T) {
	t.Run("destroyed session", func(t *testing.T) {
		sess := entity.NewSession()
		sess.Token = "live"
		sessions := &mockSessions{}
		sessions.On("Load", mock.Anything, "live").Return(sess, nil)
		mw := newTestSessionMiddleware(sessions)

		resp := serveWithSession(t, mw, "live", func(c echo.Context) error {
			deliverycontext.GetSession(c).Destroyed = true

			return c.NoContent(http.StatusNoContent)
		})

		cookie := findCookie(resp, "sid")
		require.NotNil(t, cookie)
		assert.Equal(t, -1, cookie.MaxAge)
		assert.Empty(t, cookie.Value)
	})

	t.Run("stale token", func(t *testing.T) {
		sessions := &mockSessions{}
		sessions.On("Load", mock.Anything, "gone").Return(entity.NewSession(), nil)
		mw := newTestSessionMiddleware(sessions)

		resp := serveWithSession(t, mw, "gone", func(c echo.Context) error {
			return c.NoContent(http.StatusNoContent)
		})

		cookie := findCookie(resp, "sid")
		require.NotNil(t, cookie)
		assert.Equal(t, -1, cookie.MaxAge)
	})
}

func TestSessionMiddleware_RequireActor(t *testing.T) {
	admin := &entity.Actor{ID: uuid.New(), Kind: entity.ActorKindAdmin}

	tests := []struct {
		name       string
		actor      *entity.Actor
		err        error
		wantStatus int
	}{
		{name: "authenticated", actor: admin, wantStatus: http.StatusOK},
		{name: "no slot", err: domainerrors.ErrUnauthorized, wantStatus: http.StatusUnauthorized},
		{name: "blocked", err: domainerrors.ErrAccountBlocked, wantStatus: domainerrors.ErrAccountBlocked.HTTPCode()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := &mockSessions{}
			sessions.On("Load", mock.Anything, "").Return(entity.NewSession(), nil)
			sessions.On("Resolve", mock.Anything, mock.Anything, entity.ActorKindAdmin).Return(tt.actor, tt.err)
			mw := newTestSessionMiddleware(sessions)

			e := echo.New()
			e.HTTPErrorHandler = NewErrorMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))).HandleHTTPError
			e.GET("/", func(c echo.Context) error {
				assert.Equal(t, admin.ID, deliverycontext.GetActor(c).ID)

				return c.NoContent(http.StatusOK)
			}, mw.Load, mw.RequireActor(entity.ActorKindAdmin))

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			sessions.AssertExpectations(t)
		})
	}
}

func TestNewCookieSettings_SameSiteNoneForcesSecure(t *testing.T) {
	settings := newCookieSettings(&config.SessionConfig{SameSite: "none"})

	assert.Equal(t, http.SameSiteNoneMode, settings.sameSite)
	assert.True(t, settings.secure)
	assert.Equal(t, defaultCookieName, settings.name)
	assert.Equal(t, defaultCookieTTL, settings.ttl)
}
