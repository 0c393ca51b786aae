package api

import (
	"net/http"
	"time"
	"userhub/internal/api/handler"
	"userhub/internal/api/middleware"
	"userhub/internal/app/service"
	"userhub/internal/common/security"
	"userhub/internal/platform/config"
	"userhub/internal/pubsub"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"
)

func NewRouter(
	authService *service.AuthService,
	userService *service.UserService,
	logService *service.LogService,
	broker *pubsub.Broker,
	rdb *redis.Client,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	// Token verification: Authorization header on plain requests, the
	// connection-parameter form (?authorization=...) on event streams.
	// Verification results land in the context; the Authenticator
	// middleware turns failures into responses on guarded routes.
	r.Use(jwtauth.Verify(security.TokenAuth, jwtauth.TokenFromHeader, middleware.TokenFromConnectionParams))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	throttle := middleware.Throttle(rdb, config.AppConfig.ThrottleLimit, config.AppConfig.ThrottleWindow)

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService, broker, throttle)
		userHandler := handler.NewUserHandler(userService, broker, throttle)
		logHandler := handler.NewLogHandler(logService, broker)
		subscriptionHandler := handler.NewSubscriptionHandler(broker)

		v1.Group(func(timed chi.Router) {
			timed.Use(chiMiddleware.Timeout(60 * time.Second))

			timed.Route("/auth", authHandler.RegisterRoutes)
			userHandler.RegisterMeRoute(timed)
			timed.Route("/users", userHandler.RegisterRoutes)
			timed.Route("/logs", logHandler.RegisterRoutes)
		})

		// Subscription streams stay open indefinitely, so no timeout here.
		v1.Route("/subscriptions", subscriptionHandler.RegisterRoutes)
	})

	return r
}
