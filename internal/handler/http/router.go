package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/health"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/middleware"
)

// RouterConfig bundles the dependencies of the HTTP surface.
type RouterConfig struct {
	ServiceName    string
	Logger         *slog.Logger
	Auth           *AuthHandler
	Tasks          *TaskHandler
	Health         *health.Handler
	ValidateToken  middleware.TokenValidator
	CORS           middleware.CORSConfig
	RequestTimeout time.Duration
}

// NewRouter builds the service router: public session endpoints, bearer-token
// protected session and task endpoints, and the operational endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/healthz", cfg.Health.LivenessHandler())
	r.Get("/readyz", cfg.Health.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authn := middleware.Auth(cfg.ValidateToken)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", cfg.Auth.Signup)
			r.Post("/login", cfg.Auth.Login)
			r.Post("/refresh_token", cfg.Auth.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Use(middleware.RequestLogger(cfg.Logger))
				r.Post("/logout", cfg.Auth.Logout)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(authn)
			r.Use(middleware.RequestLogger(cfg.Logger))
			r.Get("/", cfg.Tasks.List)
			r.Post("/", cfg.Tasks.Save)
			r.Delete("/{id}", cfg.Tasks.Delete)
		})
	})

	return r
}
