// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver), schema migrations, and default-config seeding.
package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/tbourn/go-homework-backend/internal/config"
	"github.com/tbourn/go-homework-backend/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for every aggregate.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.ReferenceCode{},
		&domain.Order{},
		&domain.OrderFile{},
		&domain.ChangeRequest{},
		&domain.Notification{},
		&domain.NotificationTemplate{},
		&domain.SuperWorkerFee{},
		&domain.AgentFee{},
		&domain.AgentPricing{},
		&domain.PricingSettings{},
		&domain.Idempotency{},
	)
}

// SeedDefaults inserts the singleton pricing configuration if it does not
// exist yet: word tiers in 500-word steps up to 20000 words at 20.00 per
// step, urgency surcharges for <=1/<=3/<=7 remaining days, and the default
// fee rates from the environment. An existing row is left untouched.
func SeedDefaults(ctx context.Context, db *gorm.DB, defaults config.PricingDefaults) error {
	var existing domain.PricingSettings
	err := db.WithContext(ctx).First(&existing, "id = ?", domain.PricingSettingsID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	wordTiers := make(map[int]float64)
	for w := 500; w <= 20000; w += 500 {
		wordTiers[w] = float64(w/500) * 20
	}
	seed := domain.PricingSettings{
		ID:             domain.PricingSettingsID,
		WordTiers:      wordTiers,
		DeadlineTiers:  map[int]float64{1: 20, 3: 10, 7: 5},
		AgentFee:       defaults.AgentFeePer500,
		SuperWorkerFee: defaults.SuperWorkerFeePer500,
	}
	return db.WithContext(ctx).Create(&seed).Error
}
