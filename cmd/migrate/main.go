package main

import (
	"log"
	"os"

	"stratos-backend/internal/model"
	"stratos-backend/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}

	color.Cyan("Starting GORM migration")

	// Extensions and enums first; AutoMigrate does not manage these.
	color.Yellow("Step 1: Extensions and enums")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,

		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_role') THEN CREATE TYPE user_role AS ENUM ('user', 'admin'); END IF; END $$;`,
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_status') THEN CREATE TYPE user_status AS ENUM ('active', 'blocked'); END IF; END $$;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	color.Yellow("Step 2: AutoMigrate")

	models := []interface{}{
		&model.User{},
		&model.UserProvider{},
		&model.UserRefreshToken{},

		&model.Session{},
		&model.ChatMessage{},
		&model.Report{},
		&model.Section{},
		&model.Source{},
		&model.SourceEvidence{},
		&model.EvidenceEmbedding{},

		&model.NotificationType{},
		&model.Notification{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Error: AutoMigrate failed: %v", err)
		os.Exit(1)
	}

	color.Yellow("Step 3: Seeding notification registry")

	seedSQL := []string{
		`INSERT INTO notification_types (code, display_name, template, priority, is_active)
		 VALUES ('clarification_consent_requested', 'Clarification complete', 'Your idea summary is ready for review.', 'HIGH', true)
		 ON CONFLICT (code) DO NOTHING;`,
		`INSERT INTO notification_types (code, display_name, template, priority, is_active)
		 VALUES ('research_done', 'Research complete', 'Evidence gathering for your report has finished.', 'HIGH', true)
		 ON CONFLICT (code) DO NOTHING;`,
		`INSERT INTO notification_types (code, display_name, template, priority, is_active)
		 VALUES ('research_failed', 'Research failed', 'Evidence gathering hit a problem: {error}', 'HIGH', true)
		 ON CONFLICT (code) DO NOTHING;`,
	}

	for _, sql := range seedSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to seed notification type: %v", err)
		}
	}

	color.Green("Success: database migration completed")
}
