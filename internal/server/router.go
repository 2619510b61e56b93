package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
	"github.com/josh-kwaku/digital-bank-backend/internal/handler"
	"github.com/josh-kwaku/digital-bank-backend/internal/middleware"
)

const requestTimeout = 30 * time.Second

type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	Savings       *handler.SavingsHandler
	Transactions  *handler.TransactionHandler
	Notifications *handler.NotificationHandler
	Activities    *handler.ActivityHandler
	Prices        *handler.PriceHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Idempotency    func(http.Handler) http.Handler
}

// NewRouter mounts every route under /api/v1 except the health probes.
// The notification stream is the only authenticated route without a
// request timeout.
func NewRouter(h Handlers, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Idempotent-Replayed"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health/live", h.Health.Liveness)
	r.Get("/health/ready", h.Health.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(chimw.Timeout(requestTimeout)).Post("/auth/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(opts.JWTSecret))

			r.Get("/notifications/stream", h.Notifications.Stream)

			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(requestTimeout))

				r.Get("/me", h.Auth.Me)
				r.Get("/prices", h.Prices.List)

				r.Get("/balance", h.Transactions.Balance)
				r.Route("/transactions", func(r chi.Router) {
					r.Get("/", h.Transactions.List)
					r.Get("/recent", h.Transactions.Recent)
					r.Get("/{id}", h.Transactions.Get)
					r.With(opts.Idempotency).Post("/", h.Transactions.Create)
				})

				r.Route("/savings", func(r chi.Router) {
					r.Get("/", h.Savings.List)
					r.Get("/{id}", h.Savings.Get)

					r.Group(func(r chi.Router) {
						r.Use(opts.Idempotency)
						r.Post("/", h.Savings.Create)
						r.Post("/{id}/top-up", h.Savings.TopUp)
						r.Post("/{id}/withdraw", h.Savings.Withdraw)
						r.Delete("/{id}", h.Savings.Delete)
					})
				})

				r.Get("/notifications", h.Notifications.List)
				r.Post("/notifications/read-all", h.Notifications.MarkAllRead)
				r.Post("/notifications/{id}/read", h.Notifications.MarkRead)

				r.Route("/admin", func(r chi.Router) {
					r.Use(middleware.RequireRole(domain.RoleAdmin))

					r.Get("/activities", h.Activities.List)
					r.Get("/savings", h.Savings.AdminList)
					r.Get("/users/{userID}/savings", h.Savings.AdminListForUser)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireRole(domain.RoleSuperAdmin))

						r.Delete("/savings/{id}", h.Savings.AdminDelete)

						r.Get("/transactions", h.Transactions.AdminList)
						r.Get("/users/{userID}/transactions", h.Transactions.AdminListForUser)
						r.Post("/transactions", h.Transactions.AdminCreate)
						r.Patch("/transactions/{id}", h.Transactions.AdminCorrect)
						r.Delete("/transactions/{id}", h.Transactions.AdminDelete)
					})
				})
			})
		})
	})

	return r
}
