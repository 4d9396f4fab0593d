// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for pricing
// configuration and per-user fee overrides.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-homework-backend/internal/domain"
)

// GetPricingSettings returns the singleton global pricing row, or
// ErrNotFound when seeding has not run.
func GetPricingSettings(ctx context.Context, db *gorm.DB) (*domain.PricingSettings, error) {
	var ps domain.PricingSettings
	err := db.WithContext(ctx).First(&ps, "id = ?", domain.PricingSettingsID).Error
	if err != nil {
		return nil, err
	}
	return &ps, nil
}

// SavePricingSettings upserts the singleton global pricing row.
func SavePricingSettings(ctx context.Context, db *gorm.DB, ps *domain.PricingSettings) error {
	ps.ID = domain.PricingSettingsID
	ps.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(ps).Error
}

// GetAgentPricing returns an agent's word-tier override, or nil (without
// error) when the agent has none and global tiers apply.
func GetAgentPricing(ctx context.Context, db *gorm.DB, agentID string) (*domain.AgentPricing, error) {
	var ap domain.AgentPricing
	err := db.WithContext(ctx).First(&ap, "agent_id = ?", agentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ap, nil
}

// SaveAgentPricing upserts an agent's word-tier override.
func SaveAgentPricing(ctx context.Context, db *gorm.DB, ap *domain.AgentPricing) error {
	ap.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "agent_id"}},
			UpdateAll: true,
		}).
		Create(ap).Error
}

// GetSuperWorkerFee returns a super worker's fee override row, or nil
// (without error) when the global default applies.
func GetSuperWorkerFee(ctx context.Context, db *gorm.DB, superWorkerID string) (*domain.SuperWorkerFee, error) {
	var f domain.SuperWorkerFee
	err := db.WithContext(ctx).First(&f, "super_worker_id = ?", superWorkerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpsertSuperWorkerFee creates or updates a super worker's fee override.
func UpsertSuperWorkerFee(ctx context.Context, db *gorm.DB, superWorkerID string, feePer500 float64) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "super_worker_id"}},
			DoUpdates: clause.Assignments(map[string]any{"fee_per500": feePer500, "updated_at": now}),
		}).
		Create(&domain.SuperWorkerFee{
			SuperWorkerID: superWorkerID,
			FeePer500:     feePer500,
			CreatedAt:     now,
			UpdatedAt:     now,
		}).Error
}

// ListSuperWorkerFees returns every super-worker fee override row.
func ListSuperWorkerFees(ctx context.Context, db *gorm.DB) ([]domain.SuperWorkerFee, error) {
	var out []domain.SuperWorkerFee
	err := db.WithContext(ctx).Order("super_worker_id").Find(&out).Error
	return out, err
}

// GetAgentFee returns an agent's fee override row, or nil (without error)
// when the global default applies.
func GetAgentFee(ctx context.Context, db *gorm.DB, agentID string) (*domain.AgentFee, error) {
	var f domain.AgentFee
	err := db.WithContext(ctx).First(&f, "agent_id = ?", agentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpsertAgentFee creates or updates an agent's fee override.
func UpsertAgentFee(ctx context.Context, db *gorm.DB, agentID string, feePer500 float64) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "agent_id"}},
			DoUpdates: clause.Assignments(map[string]any{"fee_per500": feePer500, "updated_at": now}),
		}).
		Create(&domain.AgentFee{
			AgentID:   agentID,
			FeePer500: feePer500,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error
}

// ListAgentFees returns every agent fee override row.
func ListAgentFees(ctx context.Context, db *gorm.DB) ([]domain.AgentFee, error) {
	var out []domain.AgentFee
	err := db.WithContext(ctx).Order("agent_id").Find(&out).Error
	return out, err
}
