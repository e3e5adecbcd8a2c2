package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"philbox/config"
	deliverycontext "philbox/internal/delivery/context"
	"philbox/internal/domain/entity"
	"philbox/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const (
	defaultCookieName = "philbox.sid"
	defaultCookieTTL  = 7 * 24 * time.Hour
)

// SessionMiddleware binds the session cookie to the request and resolves per-kind actors.
type SessionMiddleware struct {
	sessions usecase.SessionUsecase
	cookie   cookieSettings
	logger   *slog.Logger
}

type cookieSettings struct {
	name     string
	ttl      time.Duration
	secure   bool
	sameSite http.SameSite
	domain   string
}

// SessionMiddlewareParams holds dependencies for SessionMiddleware, injected by Fx.
type SessionMiddlewareParams struct {
	fx.In

	Sessions usecase.SessionUsecase
	Config   *config.Config
	Logger   *slog.Logger
}

// NewSessionMiddleware is the constructor for SessionMiddleware.
func NewSessionMiddleware(params SessionMiddlewareParams) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: params.Sessions,
		cookie:   newCookieSettings(params.Config.Session),
		logger:   params.Logger,
	}
}

func newCookieSettings(cfg *config.SessionConfig) cookieSettings {
	settings := cookieSettings{
		name:     defaultCookieName,
		ttl:      defaultCookieTTL,
		sameSite: http.SameSiteLaxMode,
	}
	if cfg == nil {
		return settings
	}
	if cfg.CookieName != "" {
		settings.name = cfg.CookieName
	}
	if cfg.TTL > 0 {
		settings.ttl = cfg.TTL
	}
	settings.secure = cfg.Secure
	settings.domain = cfg.Domain
	switch cfg.SameSite {
	case "strict":
		settings.sameSite = http.SameSiteStrictMode
	case "none":
		settings.sameSite = http.SameSiteNoneMode
		// Browsers drop SameSite=None cookies that are not Secure.
		settings.secure = true
	}

	return settings
}

// Load reads the session cookie, stores the session on the context and writes the
// cookie back just before the response headers are sent.
func (m *SessionMiddleware) Load(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var incoming string
		if cookie, err := c.Cookie(m.cookie.name); err == nil {
			incoming = cookie.Value
		}

		sess, err := m.sessions.Load(c.Request().Context(), incoming)
		if err != nil {
			return err
		}
		loadedExpiry := sess.ExpiresAt

		c.Response().Before(func() {
			m.writeCookie(c, sess, incoming, loadedExpiry)
		})
		deliverycontext.SetSession(c, sess)

		return next(c)
	}
}

func (m *SessionMiddleware) writeCookie(c echo.Context, sess *entity.Session, incoming string, loadedExpiry time.Time) {
	switch {
	case sess.Destroyed:
		c.SetCookie(m.expiredCookie())
	case sess.IsNew():
		// A cookie naming a session the store no longer knows is stale.
		if incoming != "" {
			c.SetCookie(m.expiredCookie())
		}
	case sess.Token != incoming || !sess.ExpiresAt.Equal(loadedExpiry):
		c.SetCookie(m.liveCookie(sess.Token))
	}
}

func (m *SessionMiddleware) liveCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookie.name,
		Value:    token,
		Path:     "/",
		Domain:   m.cookie.domain,
		MaxAge:   int(m.cookie.ttl.Seconds()),
		Expires:  time.Now().Add(m.cookie.ttl),
		HttpOnly: true,
		Secure:   m.cookie.secure,
		SameSite: m.cookie.sameSite,
	}
}

func (m *SessionMiddleware) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookie.name,
		Value:    "",
		Path:     "/",
		Domain:   m.cookie.domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cookie.secure,
		SameSite: m.cookie.sameSite,
	}
}

// RequireActor only lets requests through whose session holds an authenticated
// slot for kind. It must be used AFTER Load.
func (m *SessionMiddleware) RequireActor(kind entity.ActorKind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := deliverycontext.GetSession(c)

			actor, err := m.sessions.Resolve(c.Request().Context(), sess, kind)
			if err != nil {
				return err
			}
			deliverycontext.SetActor(c, actor)

			return next(c)
		}
	}
}
