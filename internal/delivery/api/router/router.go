// Package router wires the API routes to their handlers and guards.
package router

import (
	"net/http"
	"strings"

	"philbox/config"
	"philbox/internal/delivery/api/middleware"
	"philbox/internal/delivery/api/router/handler"
	"philbox/internal/domain/entity"
	"philbox/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

const (
	// OnboardingPrefix is the route prefix whose multipart bodies get the upload limit.
	OnboardingPrefix = "/api/v1/doctor/onboarding"

	defaultMetricsPath = "/metrics"
)

type RouterParams struct {
	fx.In

	AuthHandler       *handler.AuthHandler
	OnboardingHandler *handler.OnboardingHandler
	ReviewHandler     *handler.ReviewHandler
	RBACHandler       *handler.RBACHandler
	CustomerHandler   *handler.CustomerHandler
	ActivityHandler   *handler.ActivityHandler
	HealthHandler     *handler.HealthHandler
	SessionMiddleware *middleware.SessionMiddleware
	RBACMiddleware    *middleware.RBACMiddleware
	RateLimiter       *middleware.RateLimiter
	Gatherer          prometheus.Gatherer `optional:"true"`
	Config            *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	auth       *handler.AuthHandler
	onboarding *handler.OnboardingHandler
	review     *handler.ReviewHandler
	rbac       *handler.RBACHandler
	customer   *handler.CustomerHandler
	activity   *handler.ActivityHandler
	health     *handler.HealthHandler
	sessions   *middleware.SessionMiddleware
	guard      *middleware.RBACMiddleware
	limiter    *middleware.RateLimiter
	gatherer   prometheus.Gatherer
	config     *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		auth:       params.AuthHandler,
		onboarding: params.OnboardingHandler,
		review:     params.ReviewHandler,
		rbac:       params.RBACHandler,
		customer:   params.CustomerHandler,
		activity:   params.ActivityHandler,
		health:     params.HealthHandler,
		sessions:   params.SessionMiddleware,
		guard:      params.RBACMiddleware,
		limiter:    params.RateLimiter,
		gatherer:   params.Gatherer,
		config:     params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", r.health.HealthCheck)
	r.registerMetrics(e)

	v1 := e.Group("/api/v1", r.sessions.Load)

	r.registerAdmin(v1.Group("/admin"))
	r.registerDoctor(v1.Group("/doctor"))
	r.registerCustomer(v1.Group("/customer"))
	r.registerSalesperson(v1.Group("/salesperson"))
}

func (r *router) registerMetrics(e *echo.Echo) {
	if r.gatherer == nil || r.config.Metrics == nil || !r.config.Metrics.Enabled {
		return
	}
	path := r.config.Metrics.Path
	if path == "" {
		path = defaultMetricsPath
	}
	e.GET(path, echo.WrapHandler(metrics.Handler(r.gatherer)))
}

// registerPasswordAuth adds the routes every password-based kind shares.
func (r *router) registerPasswordAuth(g *echo.Group, kind entity.ActorKind) {
	limited := r.limiter.Handle

	g.POST("/login", r.auth.Login(kind), limited)
	g.POST("/forget-password", r.auth.ForgetPassword(kind), limited)
	g.POST("/reset-password", r.auth.ResetPassword(kind), limited)
	g.POST("/logout", r.auth.Logout(kind))
	g.GET("/me", r.auth.Me, r.sessions.RequireActor(kind))
}

// registerTwoFactor adds the second-factor routes of admins and salespersons.
func (r *router) registerTwoFactor(g *echo.Group, kind entity.ActorKind) {
	g.POST("/verify-otp", r.auth.VerifyOTP(kind), r.limiter.Handle)
	g.PUT("/2fa", r.auth.UpdateTwoFactor, r.sessions.RequireActor(kind))
}

// registerSelfService adds registration, email verification and Google sign-in.
func (r *router) registerSelfService(g *echo.Group, kind entity.ActorKind) {
	limited := r.limiter.Handle

	g.POST("/register", r.auth.Register(kind), limited)
	g.POST("/verify-email", r.auth.VerifyEmail(kind), limited)
	g.GET("/verify-email", r.auth.VerifyEmail(kind), limited)
	g.POST("/google", r.auth.GoogleLogin(kind), limited)
}

func (r *router) registerAdmin(admin *echo.Group) {
	kind := entity.ActorKindAdmin

	auth := admin.Group("/auth")
	r.registerPasswordAuth(auth, kind)
	r.registerTwoFactor(auth, kind)

	signedIn := admin.Group("", r.sessions.RequireActor(kind))
	signedIn.GET("/me/permissions", r.rbac.MyPermissions)

	apps := signedIn.Group("/doctor-applications")
	{
		canRead := r.guard.RequirePermission(entity.Perm(entity.ResourceDoctors, entity.ActionRead))
		canDecide := r.guard.RequirePermission(entity.Perm(entity.ResourceDoctors, entity.ActionUpdate))

		apps.GET("", r.review.ListApplications, canRead)
		apps.GET("/:id", r.review.GetApplication, canRead)
		apps.POST("/:id/approve", r.review.Approve, canDecide)
		apps.POST("/:id/reject", r.review.Reject, canDecide)
	}

	canReadUsers := r.guard.RequirePermission(entity.Perm(entity.ResourceUsers, entity.ActionRead))
	signedIn.GET("/roles", r.rbac.ListRoles, canReadUsers)
	signedIn.GET("/permissions", r.rbac.ListPermissions, canReadUsers)
	signedIn.GET("/activity-logs", r.activity.ListActivity, canReadUsers)
	signedIn.PUT("/roles/:name/permissions", r.rbac.SetRolePermissions,
		r.guard.RequirePermission(entity.Perm(entity.ResourceUsers, entity.ActionUpdate)),
		r.guard.RequireRole(entity.RoleSuperAdmin))
}

func (r *router) registerDoctor(doctor *echo.Group) {
	kind := entity.ActorKindDoctor

	auth := doctor.Group("/auth")
	r.registerPasswordAuth(auth, kind)
	r.registerSelfService(auth, kind)

	onboarding := doctor.Group("/onboarding",
		echomiddleware.BodyLimit(r.uploadLimit()),
		r.sessions.RequireActor(kind),
	)
	{
		onboarding.POST("/application", r.onboarding.SubmitApplication)
		onboarding.POST("/application/resubmit", r.onboarding.ResubmitApplication)
		onboarding.GET("/application/status", r.onboarding.GetApplicationStatus)
		onboarding.POST("/profile", r.onboarding.CompleteProfile)
		onboarding.GET("/next-step", r.onboarding.NextStep)
	}
}

func (r *router) registerCustomer(customer *echo.Group) {
	kind := entity.ActorKindCustomer

	auth := customer.Group("/auth")
	r.registerPasswordAuth(auth, kind)
	r.registerSelfService(auth, kind)

	profile := customer.Group("/profile", r.sessions.RequireActor(kind))
	profile.PUT("/address", r.customer.SaveAddress)
}

func (r *router) registerSalesperson(salesperson *echo.Group) {
	kind := entity.ActorKindSalesperson

	auth := salesperson.Group("/auth")
	r.registerPasswordAuth(auth, kind)
	r.registerTwoFactor(auth, kind)
}

func (r *router) uploadLimit() string {
	if r.config.HTTP.MaxUploadBodySize != "" {
		return r.config.HTTP.MaxUploadBodySize
	}

	return "25MB"
}

// SkipUploadRoutes keeps the global body limit off the multipart onboarding routes,
// which carry their own larger limit.
func SkipUploadRoutes(c echo.Context) bool {
	return c.Request().Method == http.MethodPost && strings.HasPrefix(c.Path(), OnboardingPrefix)
}
