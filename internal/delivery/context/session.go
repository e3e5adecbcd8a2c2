package context

import (
	"philbox/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

const (
	// KeySession is the key for storing the request's session in echo.Context.
	KeySession ContextKey = "session"

	// KeyActor is the key for storing the resolved actor in echo.Context.
	KeyActor ContextKey = "actor"
)

// SetSession stores the session loaded for this request.
func SetSession(c echo.Context, sess *entity.Session) {
	c.Set(string(KeySession), sess)
}

// GetSession returns the request's session. A new empty session is stored and
// returned when none was loaded.
func GetSession(c echo.Context) *entity.Session {
	if sess, ok := c.Get(string(KeySession)).(*entity.Session); ok && sess != nil {
		return sess
	}
	sess := entity.NewSession()
	SetSession(c, sess)

	return sess
}

// SetActor stores the authenticated actor for the request.
func SetActor(c echo.Context, actor *entity.Actor) {
	c.Set(string(KeyActor), actor)
}

// GetActor returns the authenticated actor, or nil when the route is public.
func GetActor(c echo.Context) *entity.Actor {
	if actor, ok := c.Get(string(KeyActor)).(*entity.Actor); ok {
		return actor
	}

	return nil
}
