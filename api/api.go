// Package api exposes hopper's conversion registry over HTTP.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/hopperdata/hopper/pkg/converters"
	"github.com/hopperdata/hopper/pkg/core"
	"github.com/hopperdata/hopper/version"
)

// ServerOptions configures the API server.
type ServerOptions struct {
	// Port the server listens on. Defaults to 5577.
	Port string

	// Registry of converters exposed by the API. Defaults to the built-in
	// registry.
	Registry *converters.Registry
}

// Server holds the Fiber app instance.
type Server struct {
	app  *fiber.App
	port string
	reg  *converters.Registry
}

// convertRequest is the POST /convert body. The two optional fields mirror
// the CLI's --directory and --output-file.
type convertRequest struct {
	Dataset    string  `json:"dataset"`
	Directory  *string `json:"directory"`
	OutputFile *string `json:"output_file"`
}

// NewServer initializes a new Fiber instance with the conversion routes.
func NewServer(opts ServerOptions) *Server {
	if opts.Port == "" {
		opts.Port = "5577"
	}
	if opts.Registry == nil {
		opts.Registry = converters.Default
	}

	app := fiber.New(fiber.Config{
		IdleTimeout: 10 * time.Second,
		ReadTimeout: 10 * time.Second,
		// Conversions run synchronously inside the handler, so writes get a
		// generous deadline.
		WriteTimeout: 10 * time.Minute,
	})

	// Middleware
	app.Use(recover.New()) // Auto-recovers from panics
	app.Use(logger.New())  // Logs all requests

	s := &Server{app: app, port: opts.Port, reg: opts.Registry}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "hopper API",
			"version": version.Version,
			"build":   version.BuildDate,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Get("/datasets", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"datasets": s.reg.Names()})
	})

	app.Post("/convert", s.handleConvert)

	return s
}

// handleConvert runs one conversion and returns its summary.
func (s *Server) handleConvert(c *fiber.Ctx) error {
	var req convertRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}
	if req.Dataset == "" {
		return fiber.NewError(fiber.StatusBadRequest, "dataset is required")
	}

	conv, ok := s.reg.Lookup(req.Dataset)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "unknown dataset: "+req.Dataset)
	}

	result, err := conv(c.Context(), core.ConvertOptions{
		Directory:  req.Directory,
		OutputPath: req.OutputFile,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"dataset":     result.Dataset,
		"output_path": result.OutputPath,
		"format":      result.Format,
		"rows":        result.Rows,
		"batches":     result.Batches,
		"splits":      result.Splits,
		"inputs":      result.Inputs,
		"duration_ms": result.Duration.Milliseconds(),
	})
}

// GetApp exposes the Fiber app, mainly for tests.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start runs the Fiber server until it fails or is shut down.
func (s *Server) Start() error {
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
