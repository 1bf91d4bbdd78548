package httpapi

import (
	"net/http"
	"strings"

	"github.com/PabloPavan/alerta_api/internal/alerts"
	"github.com/PabloPavan/alerta_api/internal/shelters"
	"github.com/PabloPavan/alerta_api/internal/telemetry"
	"github.com/PabloPavan/alerta_api/internal/zones"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type App struct {
	ServiceName string

	Health   *HealthHandler
	Reports  *ReportsHandler
	Users    *UsersHandler
	Shelters *ResourceHandler[shelters.Shelter]
	Alerts   *ResourceHandler[alerts.Alert]
	Zones    *ResourceHandler[zones.Zone]

	Images       *ImagesHandler
	ImageBaseURL string

	APIKeys KeyAuthenticator
}

func NewRouter(app *App) http.Handler {
	serviceName := app.ServiceName
	if serviceName == "" {
		serviceName = telemetry.ServiceName
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(telemetry.ChiTraceMiddleware(serviceName))
	r.Use(telemetry.ChiMetricsMiddleware)
	r.Use(telemetry.ChiLogMiddleware(serviceName))
	r.Use(middleware.Recoverer)

	// Public
	r.Get("/health", app.Health.Get)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	if app.Images != nil {
		base := strings.TrimRight(app.ImageBaseURL, "/")
		r.Get(base+"/*", app.Images.Get)
	}

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(APIKeyMiddleware(app.APIKeys))

		r.Route("/reportes", func(r chi.Router) {
			r.Post("/", app.Reports.Create)
			r.Get("/", app.Reports.List)
			r.Get("/{id}", app.Reports.GetByID)
			r.Put("/{id}", app.Reports.Update)
			r.Delete("/{id}", app.Reports.Delete)
			r.Patch("/{id}/status", app.Reports.UpdateStatus)
		})

		r.Route("/usuarios", func(r chi.Router) {
			r.Post("/registrar", app.Users.Register)
			r.Post("/login", app.Users.Login)
			r.Get("/", app.Users.List)
			r.Get("/{id}", app.Users.GetByID)
			r.Put("/{id}", app.Users.Update)
			r.Delete("/{id}", app.Users.Delete)
			r.Put("/{id}/senha", app.Users.ChangePassword)
		})

		r.Route("/abrigos", mountResource(app.Shelters))
		r.Route("/alertas", mountResource(app.Alerts))
		r.Route("/mapas", mountResource(app.Zones))
	})

	return r
}

func mountResource[T any](h *ResourceHandler[T]) func(r chi.Router) {
	return func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.GetByID)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	}
}
