// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/convert"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/session"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store        *session.Store
	Orchestrator *convert.Orchestrator
	SessionTTL   time.Duration
	Version      string
	Log          zerolog.Logger
}

// Handlers holds all handler instances
type Handlers struct {
	Health  *HealthHandler
	Session *SessionHandler
	Files   *FileHandler
	Convert *ConvertHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	sessions := &SessionHandler{
		store: deps.Store,
		ttl:   deps.SessionTTL,
	}
	return &Handlers{
		Health:  NewHealthHandler(deps.Version),
		Session: sessions,
		Files:   &FileHandler{sessions: sessions, log: deps.Log},
		Convert: &ConvertHandler{sessions: sessions, orchestrator: deps.Orchestrator, log: deps.Log},
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Session lifecycle
	e.GET("/api/session", handlers.Session.HandleSession)

	// File management routes
	fileGroup := e.Group("/api/files")
	fileGroup.POST("/upload", handlers.Files.HandleUpload)
	fileGroup.POST("/upload/base64", handlers.Files.HandleUploadBase64)
	fileGroup.GET("", handlers.Files.HandleListFiles)
	fileGroup.GET("/msgpack", handlers.Files.HandleListFilesMsgpack)
	fileGroup.POST("/:id/format", handlers.Files.HandleSetFormat)
	fileGroup.DELETE("/:id", handlers.Files.HandleDeleteFile)
	fileGroup.DELETE("", handlers.Files.HandleClear)

	// Conversion and retrieval routes
	e.POST("/api/convert", handlers.Convert.HandleConvert)
	fileGroup.GET("/:id/preview", handlers.Convert.HandlePreview)
	fileGroup.GET("/:id/download", handlers.Convert.HandleDownload)
	e.GET("/api/download-all", handlers.Convert.HandleDownloadAll)
}

// SetupMiddleware configures the error handler on the Echo instance
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
