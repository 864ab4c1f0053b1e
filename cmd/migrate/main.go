package main

import (
	"log"

	"livescore-engine/internal/config"
	"livescore-engine/internal/database"
)

// Standalone migration runner: creates the database if needed and brings the
// schema up to date, then exits.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.EnsureDatabase(cfg.GetAdminDSN(), cfg.Database.DBName); err != nil {
		log.Fatalf("Failed to ensure database exists: %v", err)
	}

	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations complete")
}
