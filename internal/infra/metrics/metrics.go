// Package metrics exposes domain and HTTP counters through Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"philbox/internal/domain/entity"
	"philbox/internal/domain/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

const namespace = "philbox"

// Collector implements service.MetricsRecorder and records HTTP traffic.
type Collector struct {
	loginAttempts      *prometheus.CounterVec
	otpVerifications   *prometheus.CounterVec
	passwordResets     *prometheus.CounterVec
	onboarding         *prometheus.CounterVec
	sessionResolutions *prometheus.CounterVec
	collaboratorFails  *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpLatency        *prometheus.HistogramVec
}

var _ service.MetricsRecorder = (*Collector)(nil)

// NewCollector creates the collector and registers every metric on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by actor kind and outcome.",
		}, []string{"kind", "outcome"}),
		otpVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_verifications_total",
			Help:      "Second-factor verifications by actor kind and outcome.",
		}, []string{"kind", "outcome"}),
		passwordResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_resets_total",
			Help:      "Password reset requests and completions by actor kind.",
		}, []string{"kind", "stage"}),
		onboarding: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "onboarding_transitions_total",
			Help:      "Doctor application transitions by resulting status.",
		}, []string{"status"}),
		sessionResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_resolutions_total",
			Help:      "Session resolutions by actor kind and outcome.",
		}, []string{"kind", "outcome"}),
		collaboratorFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_failures_total",
			Help:      "Failed calls to email, upload, audit and realtime collaborators.",
		}, []string{"collaborator"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP responses by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.loginAttempts,
		c.otpVerifications,
		c.passwordResets,
		c.onboarding,
		c.sessionResolutions,
		c.collaboratorFails,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) LoginAttempt(kind entity.ActorKind, outcome string) {
	c.loginAttempts.WithLabelValues(string(kind), outcome).Inc()
}

func (c *Collector) OTPVerification(kind entity.ActorKind, outcome string) {
	c.otpVerifications.WithLabelValues(string(kind), outcome).Inc()
}

func (c *Collector) PasswordReset(kind entity.ActorKind, stage string) {
	c.passwordResets.WithLabelValues(string(kind), stage).Inc()
}

func (c *Collector) OnboardingTransition(status entity.ApplicationStatus) {
	c.onboarding.WithLabelValues(string(status)).Inc()
}

func (c *Collector) SessionResolution(kind entity.ActorKind, outcome string) {
	c.sessionResolutions.WithLabelValues(string(kind), outcome).Inc()
}

func (c *Collector) CollaboratorFailure(collaborator string) {
	c.collaboratorFails.WithLabelValues(collaborator).Inc()
}

// ObserveHTTP records one served request. route is the registered path, not the raw URL.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// NewRegistry creates a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func asRegisterer(reg *prometheus.Registry) prometheus.Registerer { return reg }

func asGatherer(reg *prometheus.Registry) prometheus.Gatherer { return reg }

func asRecorder(c *Collector) service.MetricsRecorder { return c }

// Module provides the registry, the collector and the domain recorder view of it.
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(
		NewRegistry,
		asRegisterer,
		asGatherer,
		NewCollector,
		asRecorder,
	),
)
