package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/config"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/engine"
)

const serviceName = "Enterprise RAG API"

// Server is the HTTP front of the engine.
type Server struct {
	app    *fiber.App
	logger *slog.Logger
}

// New wires the routes. mcpHandler is mounted under /mcp when non-nil so
// MCP clients and the REST API share one listener.
func New(eng *engine.Engine, cfg *config.Config, mcpHandler http.Handler, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:      serviceName,
		ErrorHandler: NewErrorHandler(logger),
		// The engine enforces the configured size limit itself; the body
		// limit only guards against unbounded requests, so leave headroom
		// above it for the multipart framing.
		BodyLimit:             int(cfg.MaxFileSizeBytes()) + 1<<20,
		UnescapePath:          true,
		DisableStartupMessage: true,
	})
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))

	h := NewHandler(eng, version, logger)

	app.Get("/", h.HandleServiceInfo)
	check := app.Group("/check")
	check.Get("/healthy", h.HandleHealth)
	app.Get("/health", h.HandleHealth)

	app.Post("/upload-doc", h.HandleUpload)
	app.Get("/ask", h.HandleAsk)
	app.Post("/ask", h.HandleAsk)
	app.Get("/documents", h.HandleListDocuments)
	app.Get("/documents/+", h.HandleGetDocument)
	app.Delete("/documents/+", h.HandleDeleteDocument)
	app.Get("/summarize", h.HandleSummarize)
	app.Get("/generate-graph", h.HandleGraph)
	app.Get("/generate-podcast", h.HandlePodcast)

	if mcpHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(mcpHandler))
	}

	return &Server{app: app, logger: logger}
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
