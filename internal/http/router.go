package http

import (
	"log/slog"

	"github.com/geocoder89/meetups/internal/config"
	"github.com/geocoder89/meetups/internal/http/handlers"
	"github.com/geocoder89/meetups/internal/http/middlewares"
	"github.com/geocoder89/meetups/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps is what the router needs from the outside world.
type Deps struct {
	Events        handlers.EventsService
	Registrations handlers.RegistrationsService
	Ping          handlers.PingFunc

	// Prom and Gatherer are optional; without them /metrics is not mounted.
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// health
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	eventsHandler := handlers.NewEventsHandler(deps.Events, cfg.RequestTimeout)
	registrationHandler := handlers.NewRegistrationHandler(deps.Registrations, cfg.RequestTimeout)

	api := r.Group("/api")

	api.POST("/event", eventsHandler.CreateEvent)
	api.GET("/event", eventsHandler.ListEvents)
	api.GET("/event/:id", eventsHandler.GetEventById)
	api.PUT("/event/:id", eventsHandler.UpdateEvent)
	api.DELETE("/event/:id", eventsHandler.DeleteEvent)

	api.POST("/registration", registrationHandler.Register)
	api.GET("/registration", registrationHandler.ListRegistrations)
	api.GET("/registration/:id", registrationHandler.GetRegistrationById)
	api.PUT("/registration/:id", registrationHandler.UpdateRegistration)
	api.DELETE("/registration/:id", registrationHandler.Cancel)

	return r
}
