// Package tenanthub предоставляет маршруты для основного приложения.
package tenanthub

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/tenant-hub/internal/domain"
	paymenthandler "github.com/magabrotheeeer/tenant-hub/internal/http/handlers/payment"
	planhandler "github.com/magabrotheeeer/tenant-hub/internal/http/handlers/plan"
	schedulehandler "github.com/magabrotheeeer/tenant-hub/internal/http/handlers/schedule"
	templatehandler "github.com/magabrotheeeer/tenant-hub/internal/http/handlers/template"
	tenanthandler "github.com/magabrotheeeer/tenant-hub/internal/http/handlers/tenant"
	userhandler "github.com/magabrotheeeer/tenant-hub/internal/http/handlers/user"
	"github.com/magabrotheeeer/tenant-hub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/tenant-hub/internal/http/response"
	"github.com/magabrotheeeer/tenant-hub/internal/lib/jwt"
	"github.com/magabrotheeeer/tenant-hub/internal/metrics"
)

// Services объединяет сервисы, необходимые маршрутам приложения.
type Services struct {
	Users     userhandler.Service
	Tenants   tenanthandler.Service
	Plans     planhandler.Service
	Payments  paymenthandler.Service
	Schedules schedulehandler.Service
	Templates templatehandler.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
//
// Открыты без аутентификации только регистрация, вход, /health, /metrics
// и Swagger-документация. Остальные маршруты проходят через JWT-гейт,
// административные — дополнительно через ролевой гейт.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker, svc *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		metrics.Middleware,
	)

	users := userhandler.New(logger, svc.Users)
	tenants := tenanthandler.New(logger, svc.Tenants)
	plans := planhandler.New(logger, svc.Plans)
	payments := paymenthandler.New(logger, svc.Payments)
	schedules := schedulehandler.New(logger, svc.Schedules)
	templates := templatehandler.New(logger, svc.Templates)

	requireAuth := middlewarectx.JWTMiddleware(jwtMaker, logger)
	requireAdmin := middlewarectx.RequireRole(domain.RoleAdmin, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger))

		// Открытые конечные точки
		r.Post("/users/signup", users.Signup)
		r.Post("/users/login", users.Login)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/users", func(r chi.Router) {
				r.Get("/{id}", users.Get)
				r.Patch("/{id}", users.Update)
				r.Delete("/{id}", users.Delete)
				r.Patch("/{id}/subscribe", users.Subscribe)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Post("/new-admin", users.CreateAdmin)
					r.Get("/", users.List)
					r.Delete("/", users.DeleteAll)
					r.Patch("/{id}/suspend", users.Suspend)
					r.Patch("/{id}/activate", users.Unsuspend)
				})
			})

			r.Route("/tenants", func(r chi.Router) {
				r.Post("/", tenants.Create)
				r.Get("/{id}", tenants.Get)
				r.Patch("/{id}", tenants.Update)
				r.Delete("/{id}", tenants.Delete)
				r.Post("/{id}/staff", tenants.AssignStaff)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Get("/", tenants.List)
					r.Delete("/", tenants.DeleteAll)
				})
			})

			// Каталог тарифов исторически живёт на /subscriptions:
			// чтение открыто всем аутентифицированным, записи только
			// администраторам.
			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", plans.List)
				r.Get("/{id}", plans.Get)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Post("/", plans.Create)
					r.Patch("/{id}", plans.Update)
					r.Delete("/{id}", plans.Delete)
					r.Delete("/", plans.DeleteAll)
				})
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/", payments.Create)
				r.Get("/{id}", payments.Get)
				r.Get("/user/{userId}", payments.ListByUser)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Get("/", payments.List)
					r.Patch("/{id}", payments.Update)
					r.Delete("/{id}", payments.Delete)
					r.Delete("/", payments.DeleteAll)
				})
			})

			r.Route("/schedules", func(r chi.Router) {
				r.Post("/", schedules.Create)
				r.Get("/{id}", schedules.Get)
				r.Get("/user/{userId}", schedules.ListByUser)
				r.Patch("/{id}", schedules.Update)
				r.Delete("/{id}", schedules.Delete)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Get("/", schedules.List)
					r.Delete("/", schedules.DeleteAll)
				})
			})

			r.Route("/templates", func(r chi.Router) {
				r.Post("/", templates.Create)
				r.Get("/{id}", templates.Get)
				r.Get("/user/{userId}", templates.ListByUser)
				r.Patch("/{id}", templates.Update)
				r.Delete("/{id}", templates.Delete)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Get("/", templates.List)
					r.Delete("/", templates.DeleteAll)
				})
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.OKWithData(map[string]any{"alive": true}))
	})
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
