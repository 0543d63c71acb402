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
	"github.com/nestspace/marketplace-service/internal/auth"
	"github.com/nestspace/marketplace-service/internal/cache"
	"github.com/nestspace/marketplace-service/internal/db"
	"github.com/nestspace/marketplace-service/internal/events"
	httpapi "github.com/nestspace/marketplace-service/internal/http"
	"github.com/nestspace/marketplace-service/internal/mailer"
	"github.com/nestspace/marketplace-service/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	log.Println("marketplace-service starting")

	ctx := context.Background()

	telemetryProvider, err := telemetry.InitProvider(ctx, telemetry.LoadConfig())
	if err != nil {
		log.Printf("Warning: telemetry init failed, continuing without: %v", err)
	}
	if telemetryProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: telemetry shutdown failed: %v", err)
			}
		}()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Printf("Warning: metrics init failed, continuing without: %v", err)
		metrics = nil
	}

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("✓ Connected to database")

	store, err := cache.NewRedisStore()
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer store.Close()
	log.Println("✓ Connected to Redis")

	publisher, err := events.NewPublisher()
	if err != nil {
		log.Printf("Warning: RabbitMQ unavailable, events will be dropped: %v", err)
	}
	if publisher != nil {
		defer publisher.Close()
		log.Println("✓ Connected to RabbitMQ")
	}

	authCfg := auth.LoadConfig()
	keys, err := auth.NewJWKS(authCfg.JWKSURL, 15*time.Minute)
	if err != nil {
		log.Fatalf("Failed to load JWKS: %v", err)
	}
	verifier := auth.NewVerifier(authCfg, keys)
	log.Println("✓ JWT verifier ready")

	permsPath := os.Getenv("PERMISSIONS_FILE")
	if permsPath == "" {
		permsPath = "config/permissions.yml"
	}
	perms, err := auth.LoadPermissions(permsPath)
	if err != nil {
		log.Fatalf("Failed to load permissions from %s: %v", permsPath, err)
	}
	log.Printf("✓ Loaded permissions for %d roles", len(perms))

	inviteBaseURL := os.Getenv("INVITE_BASE_URL")
	if inviteBaseURL == "" {
		inviteBaseURL = "https://app.nestspace.io"
	}

	router := httpapi.SetupRouter(httpapi.Dependencies{
		DB:            database,
		Cache:         store,
		Verifier:      verifier,
		Permissions:   perms,
		Publisher:     publisher,
		Mailer:        mailer.NewSender(),
		Metrics:       metrics,
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		InviteBaseURL: inviteBaseURL,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      httpapi.CORSMiddleware(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("✓ Listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
