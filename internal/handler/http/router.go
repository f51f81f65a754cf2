package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aircnc/identity/internal/service"
	"github.com/aircnc/identity/pkg/health"
	"github.com/aircnc/identity/pkg/middleware"
)

// NewRouter creates a chi router with all identity service routes registered.
func NewRouter(
	authService *service.AuthService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("identity"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(authService, logger)

	// Token validator that bridges to the service layer.
	tokenValidator := func(ctx context.Context, token string) (*middleware.Claims, error) {
		claims, err := authService.VerifyAccess(ctx, token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID:     claims.UserID,
			Email:      claims.Email,
			UserType:   claims.UserType,
			IsVerified: claims.IsVerified,
		}, nil
	}

	// Auth endpoints
	r.Route("/api/v1/auth", func(r chi.Router) {
		// Public
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Logout requires a valid access token on top of the refresh
		// token in the body.
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.Auth(tokenValidator))

			r.Post("/logout", authHandler.Logout)
		})

		r.Get("/verify", authHandler.Verify)
	})

	// Profile endpoints (auth required)
	profileHandler := NewProfileHandler(authService)

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/profile", profileHandler.GetProfile)
		r.Patch("/profile/update", profileHandler.UpdateProfile)
	})

	return r
}
