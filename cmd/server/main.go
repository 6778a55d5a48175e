package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/repoinsight/repoinsight/internal/analytics"
	"github.com/repoinsight/repoinsight/internal/api"
	"github.com/repoinsight/repoinsight/internal/config"
	"github.com/repoinsight/repoinsight/internal/github"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	logger.SetOutput(os.Stdout)

	// Load configuration with defaults
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate minimum required config
	if cfg.GitHubToken == "" {
		logger.Fatal("Missing required configuration (GITHUB_TOKEN must be set)")
	}

	ghCfg := config.DefaultGitHubConfig()
	ghCfg.Token = cfg.GitHubToken
	ghCfg.APIBaseURL = cfg.GitHubAPIBaseURL

	// Initialize services
	client := github.NewGitHubClient(
		ghCfg.Token,
		logger,
		github.WithBaseURL(ghCfg.APIBaseURL),
		github.WithRetryConfig(ghCfg.RateLimit.MaxRetries, ghCfg.RateLimit.InitialBackoff, ghCfg.RateLimit.MaxBackoff),
	)
	insightService := analytics.NewService(client, logger, analytics.Options{
		CommitWindowSize:    cfg.CommitWindowSize,
		ContributorPageSize: cfg.ContributorPageSize,
		ContributorMaxPages: cfg.ContributorMaxPages,
	})
	apiHandler := api.NewHandler(insightService, logger)

	// Setup router with middleware
	router := api.SetupRouter(apiHandler)
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(router)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server exited properly")
}
