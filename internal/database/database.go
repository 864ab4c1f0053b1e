package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"livescore-engine/internal/models"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
	})

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established successfully")
	return nil
}

// EnsureDatabase creates the target database if it does not exist, using an
// admin connection against the default postgres database. Idempotent.
func EnsureDatabase(adminDSN, dbName string) error {
	db, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("failed to open admin connection: %w", err)
	}
	defer db.Close()

	err = db.QueryRow("SELECT 1 FROM pg_database WHERE datname = $1", dbName).Scan(new(int))
	if errors.Is(err, sql.ErrNoRows) {
		quoted := `"` + strings.ReplaceAll(dbName, `"`, `""`) + `"`
		if _, err := db.Exec("CREATE DATABASE " + quoted); err != nil {
			return fmt.Errorf("failed to create database %s: %w", dbName, err)
		}
		log.Printf("Created database %s", dbName)
		return nil
	}
	return err
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	allModels := []interface{}{
		&models.Match{},
		&models.Standing{},
		&models.Prediction{},
		&models.SettlementAudit{},
		&models.AdminOverrideLog{},
	}

	for _, model := range allModels {
		if err := DB.AutoMigrate(model); err != nil {
			log.Printf("Warning: migration issue for %T: %v", model, err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
