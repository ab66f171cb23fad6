package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/fabricadesoftware/vumock/internal/api/handler"
	"github.com/fabricadesoftware/vumock/internal/api/middleware"
	"github.com/fabricadesoftware/vumock/internal/store"
)

// bodyLimit leaves room for the biggest legal payload: a near-ceiling
// image plus a megabyte of metadata, both base64 inflated.
const bodyLimit = 10 * 1024 * 1024

type Router struct {
	app      *fiber.App
	logger   *slog.Logger
	registry *store.Registry
}

func NewRouter(logger *slog.Logger, registry *store.Registry) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(logger),
		AppName:               "VuMock",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		// The VWS signature covers the MD5 of the raw body; fasthttp's
		// default multipart pre-parsing discards those bytes and
		// re-serializes the form with the parts reordered, so auth would
		// never succeed for a multipart request carrying form fields.
		DisablePreParseMultipartForm: true,
	})

	return &Router{
		app:      app,
		logger:   logger,
		registry: registry,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))

	healthHandler := handler.NewHealthHandler(r.registry)
	r.app.Get("/health", healthHandler.Health)

	targetHandler := handler.NewTargetHandler(r.logger)
	summaryHandler := handler.NewSummaryHandler(r.logger)
	queryHandler := handler.NewQueryHandler(r.logger)

	// Management API, signed with server keys
	server := middleware.Auth(r.registry, middleware.ScopeServer, r.logger)
	r.app.Post("/targets", server, targetHandler.Create)
	r.app.Get("/targets", server, targetHandler.List)
	r.app.Get("/targets/:target_id", server, targetHandler.Get)
	r.app.Put("/targets/:target_id", server, targetHandler.Update)
	r.app.Delete("/targets/:target_id", server, targetHandler.Delete)
	r.app.Get("/targets/:target_id/summary", server, summaryHandler.Target)
	r.app.Get("/summary", server, summaryHandler.Database)
	r.app.Get("/duplicates/:target_id", server, targetHandler.Duplicates)

	// Query API, signed with client keys
	client := middleware.Auth(r.registry, middleware.ScopeClient, r.logger)
	r.app.Post("/query", client, queryHandler.Recognize)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
