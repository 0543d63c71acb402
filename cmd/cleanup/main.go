package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nestspace/marketplace-service/internal/db"
	"github.com/nestspace/marketplace-service/internal/organization"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	log.Println("Marketplace Cleanup Job - Starting")
	log.Printf("Retention Policy: %s", organization.RetentionPeriod)

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	cleanupService := organization.NewCleanupService(database)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	invitesDeleted, err := cleanupService.CleanupExpiredInvitations(ctx)
	if err != nil {
		log.Printf("Warning: invitation cleanup failed: %v", err)
	} else {
		log.Printf("✓ Removed %d expired invitations", invitesDeleted)
	}

	count, err := cleanupService.GetExpiredOrganizationsCount(ctx)
	if err != nil {
		log.Fatalf("Failed to get expired organizations count: %v", err)
	}

	log.Printf("Found %d organizations eligible for permanent deletion", count)

	if count == 0 {
		log.Println("No organization cleanup needed. Exiting.")
		os.Exit(0)
	}

	deletedCount, err := cleanupService.CleanupExpiredOrganizations(ctx)
	if err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}

	log.Printf("✓ Cleanup completed successfully: %d organizations permanently deleted", deletedCount)
	log.Println("Cleanup Job - Finished")
}
