package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	gh "github.com/google/go-github/v57/github"
	"github.com/grenish/contribsvc/internal/github"
	"github.com/grenish/contribsvc/internal/handlers"
	"github.com/grenish/contribsvc/internal/middleware"
	"github.com/grenish/contribsvc/internal/ratelimit"
	"github.com/grenish/contribsvc/internal/services"
	"github.com/grenish/contribsvc/pkg/config"
	"github.com/grenish/contribsvc/pkg/database"
	"github.com/grenish/contribsvc/pkg/logger"
	"golang.org/x/oauth2"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.AppConfig

	gin.SetMode(cfg.Server.Mode)
	logger.Init()

	// Window store: in-memory unless a shared SQLite file is configured
	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RateLimit.StorePath != "" {
		db, err := database.Open(cfg.RateLimit.StorePath)
		if err != nil {
			logger.Fatalf("Failed to open rate limit store: %v", err)
		}
		defer db.Close()
		store = ratelimit.NewSQLiteStore(db)
	}

	limiter := ratelimit.NewLimiter(
		store,
		"contributors",
		cfg.RateLimit.RequestsPerWindow,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
	)

	// Initialize dependencies
	fetcher := newHistoryFetcher(cfg.GitHub)
	contributorService := services.NewContributorService(fetcher, services.ContributorServiceConfig{
		Owner:       cfg.GitHub.Owner,
		Repo:        cfg.GitHub.Repo,
		ContentRoot: cfg.Content.Root,
		Extension:   cfg.Content.Extension,
		CacheTTL:    time.Duration(cfg.Cache.TTLSeconds) * time.Second,
	})

	// Initialize router
	router := gin.Default()

	// Apply middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.ClientIPMiddleware())
	router.Use(cors.Default())

	setupRoutes(router, contributorService, limiter, cfg.GitHub.Token != "")

	// Setup server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Infof("Server starting on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Forced shutdown: %v", err)
	}

	logger.Info("Server stopped")
}

func setupRoutes(router *gin.Engine, contributorService *services.ContributorService, limiter *ratelimit.Limiter, tokenConfigured bool) {
	// Initialize handlers
	contributorsHandler := handlers.NewContributorsHandler(contributorService, limiter, tokenConfigured)
	healthHandler := handlers.NewHealthHandler()

	api := router.Group("/api")
	{
		api.GET("/contributors", contributorsHandler.GetContributors)
	}

	// Health check endpoint
	router.GET("/health", healthHandler.HealthCheck)
}

// newHistoryFetcher selects the pagination strategy configured for the
// upstream API: linear pages through the REST client, or cursor-based
// continuation through the GraphQL endpoint.
func newHistoryFetcher(cfg config.GitHubConfig) github.HistoryFetcher {
	if cfg.Strategy == "rest" {
		httpClient := http.DefaultClient
		if cfg.Token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
			httpClient = oauth2.NewClient(context.Background(), ts)
		}
		return github.NewRESTFetcher(gh.NewClient(httpClient), cfg.ContributorCap)
	}

	// The GraphQL fetcher carries the bearer credential itself
	return github.NewGraphQLFetcher(http.DefaultClient, cfg.Token, cfg.ContributorCap)
}
