package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"testgen-backend/internal/config"
	"testgen-backend/internal/database"
	"testgen-backend/internal/handlers"
	"testgen-backend/internal/router"
	"testgen-backend/internal/services"
)

func main() {
	log.Printf("🚀 Starting %s...", config.ProjectName)

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Connect OpenSearch ────
	osClient, err := database.NewOpenSearchClient(
		cfg.OpenSearchURL,
		cfg.OpenSearchUsername,
		cfg.OpenSearchPassword,
		cfg.OpenSearchInsecure,
	)
	if err != nil {
		log.Fatalf("✗ OpenSearch connection failed: %v", err)
	}
	log.Println("✓ OpenSearch connected")

	// ──── Step 3: Connect Redis (optional chapter-key cache) ────
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClient.Close()
		log.Println("✓ Redis connected (chapter-key cache enabled)")
	} else {
		log.Println("- Redis not configured, chapter keys resolved per request")
	}

	// ──── Step 4: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiMaxTokens)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Println("✓ Gemini client initialized")

	// ──── Initialize Services ────
	titleCatalog := services.NewTitleCatalog()
	searchService := services.NewSearchService(osClient, redisClient,
		time.Duration(cfg.ChapterKeyCacheTTL)*time.Minute)
	fileStore := services.NewFileStoreService(cfg.OutputDir)

	// ──── Initialize Handlers ────
	systemHandler := handlers.NewSystemHandler()
	catalogHandler := handlers.NewCatalogHandler(titleCatalog, searchService)
	testBankHandler := handlers.NewTestBankHandler(titleCatalog, searchService, geminiService, fileStore)
	filesHandler := handlers.NewFilesHandler(fileStore)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(
		systemHandler,
		catalogHandler,
		testBankHandler,
		filesHandler,
		cfg.FrontendURL,
		cfg.RateLimitPerMin,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Generation streams can run for minutes; keep the write window wide.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ %s ready on http://localhost:%s", config.ProjectName, cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
