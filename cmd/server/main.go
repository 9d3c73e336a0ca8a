package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"furnisher/internal/config"
	"furnisher/internal/handler"
	"furnisher/internal/model"
	"furnisher/internal/pkg/logger"
	"furnisher/internal/repository"
	"furnisher/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.Logging.FilePath, cfg.Logging.Level, cfg.Logging.IsProd)
	defer appLogger.Sync()

	appLogger.Info("MAIN", "Furnishing quotation engine starting", map[string]interface{}{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	})

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	catalog, turnLog, closeCatalog := openCatalog(cfg, appLogger)
	defer closeCatalog()

	sessions, closeSessions := openSessions(cfg, appLogger)
	defer closeSessions()

	// Initialize OpenAI client
	var aiClient service.AIClient
	if cfg.OpenAI.Enabled {
		aiClient = service.NewOpenAIClient(&cfg.OpenAI, appLogger)
		appLogger.Info("MAIN", "OpenAI client initialized", map[string]interface{}{
			"api_base":    cfg.OpenAI.APIBase,
			"chat_model":  cfg.OpenAI.ChatModel,
			"temperature": cfg.OpenAI.ChatTemperature,
			"max_tokens":  cfg.OpenAI.ChatMaxTokens,
		})
	} else {
		appLogger.Warn("MAIN", "OpenAI is disabled, running on deterministic parsing only", map[string]interface{}{
			"hint": "set OPENAI_API_KEY to enable intent enrichment, essentials proposals and summaries",
		})
	}

	metrics := service.NewMetrics()

	quoteService := service.NewQuoteService(service.QuoteDeps{
		Sessions:        sessions,
		Catalog:         catalog,
		TurnLog:         turnLog,
		AI:              aiClient,
		Workers:         cfg.Selection.Workers,
		QueryLimit:      cfg.Catalog.QueryLimit,
		QueryTimeout:    cfg.Catalog.QueryTimeout,
		LLMTimeout:      cfg.OpenAI.Timeout,
		AltDefaultLimit: cfg.Alternatives.DefaultLimit,
		AltMaxLimit:     cfg.Alternatives.MaxLimit,
		Logger:          appLogger,
		Metrics:         metrics,
	})

	// Initialize handlers
	chatHandler := handler.NewChatHandler(quoteService, cfg.Server.TurnTimeout)
	feedbackHandler := handler.NewFeedbackHandler(quoteService)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "furnishing-quotation-engine",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	// API routes
	handler.RegisterRoutes(router.Group("/api/v1"), chatHandler, feedbackHandler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		appLogger.Info("MAIN", "Starting server", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("MAIN", "Shutting down server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("MAIN", "Forced shutdown", map[string]interface{}{"error": err.Error()})
	}
	appLogger.Info("MAIN", "Server stopped", nil)
}

// openCatalog connects to PostgreSQL, falling back to an in-memory catalog
// when allowed
func openCatalog(cfg *config.Config, appLogger logger.ILogger) (service.CatalogGateway, service.TurnLogger, func()) {
	repo, err := repository.NewPostgresCatalog(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err == nil {
		appLogger.Info("MAIN", "Connected to PostgreSQL catalog", nil)
		return repo, repo, func() { _ = repo.Close() }
	}
	if !cfg.Catalog.AllowMemoryFallback {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	appLogger.Warn("MAIN", "PostgreSQL unavailable, using in-memory catalog", map[string]interface{}{"error": err.Error()})
	items, seedErr := loadSeed(cfg.Catalog.SeedFile)
	if seedErr != nil {
		log.Fatalf("Failed to load catalog seed: %v", seedErr)
	}
	appLogger.Info("MAIN", "In-memory catalog loaded", map[string]interface{}{"items": len(items)})
	return repository.NewMemoryCatalog(items), nil, func() {}
}

func loadSeed(path string) ([]model.CatalogItem, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []model.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return items, nil
}

func openSessions(cfg *config.Config, appLogger logger.ILogger) (service.SessionStore, func()) {
	if cfg.Session.Backend == "redis" {
		store, err := repository.NewRedisSessionStore(cfg.Session.RedisURL, cfg.Session.TTL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		appLogger.Info("MAIN", "Using Redis session store", map[string]interface{}{"ttl": cfg.Session.TTL.String()})
		return store, func() { _ = store.Close() }
	}
	appLogger.Info("MAIN", "Using in-memory session store", map[string]interface{}{"ttl": cfg.Session.TTL.String()})
	return repository.NewMemorySessionStore(cfg.Session.TTL), func() {}
}
