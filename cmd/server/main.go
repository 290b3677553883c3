package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/evercrisp-ai/ai-ready-file-converter/internal/api"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/config"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/convert"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/extract"
	"github.com/evercrisp-ai/ai-ready-file-converter/internal/session"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Local .env files override nothing that is already exported
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "converter.yml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Logging.Level)

	limits := session.Limits{
		MaxFileSize:    cfg.MaxFileSize(),
		MaxSessionSize: cfg.MaxSessionSize(),
	}
	store := session.NewStore(limits, log)

	sweeper := session.NewSweeper(store, cfg.SweepInterval(), cfg.SessionTTL(), log)
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go sweeper.Run(sweepCtx)

	var vision extract.VisionEngine
	if cfg.Vision.Enabled {
		key := cfg.VisionAPIKey()
		if key == "" {
			log.Warn().Msg("vision enabled but no API key set; image analysis disabled")
		} else {
			vision = extract.NewOpenAIVision(cfg.Vision.Endpoint, key, cfg.Vision.Model)
			log.Info().Str("model", cfg.Vision.Model).Msg("vision analysis enabled")
		}
	}

	registry := extract.NewRegistry(extract.NewTesseractEngine(), vision)
	dispatcher := convert.NewDispatcher(registry)
	orchestrator := convert.NewOrchestrator(dispatcher, log)

	handlers := api.NewHandlers(&api.Dependencies{
		Store:        store,
		Orchestrator: orchestrator,
		SessionTTL:   cfg.SessionTTL(),
		Version:      Version,
		Log:          log,
	})

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e)

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Logging.EnableRequestLogging {
				return true
			}
			return c.Request().URL.Path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "X-Session-ID"},
			AllowCredentials: true,
		}))
	}

	api.RegisterRoutes(e, handlers)

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.GetServerAddr()).
			Str("version", Version).
			Str("build_time", BuildTime).
			Dur("session_ttl", cfg.SessionTTL()).
			Msg("server starting")
		if err := e.StartServer(s); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	store.DropAll()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}
