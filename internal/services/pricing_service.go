// Package services – PricingService
//
// This file implements PricingService, which resolves the pricing
// configuration an order quote needs: the global tier tables, per-agent
// word-tier overrides, and per-user fee rates. Reads of the global
// configuration and the fee override lists go through the in-process cache;
// every mutation invalidates the affected key.
//
// Rates are flat amounts per 500 words. Resolution order is always the
// per-user override row first, then the global default stored on the
// pricing settings singleton.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-homework-backend/internal/cache"
	"github.com/tbourn/go-homework-backend/internal/config"
	"github.com/tbourn/go-homework-backend/internal/domain"
	"github.com/tbourn/go-homework-backend/internal/pricing"
	"github.com/tbourn/go-homework-backend/internal/repo"
)

// PricingService owns the pricing configuration and fee override tables.
type PricingService struct {
	DB    *gorm.DB
	Cache *cache.Cache
	TTL   config.CacheConfig
}

// Settings returns the global pricing configuration, reading through the
// cache. Seeding at startup guarantees the row exists.
func (s *PricingService) Settings(ctx context.Context) (*domain.PricingSettings, error) {
	if v, ok := s.Cache.Get(cache.PricingConfigKey); ok {
		if ps, ok := v.(*domain.PricingSettings); ok {
			return ps, nil
		}
	}
	ps, err := repo.GetPricingSettings(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(cache.PricingConfigKey, ps, s.TTL.TTLLong)
	return ps, nil
}

// SaveSettings replaces the global pricing configuration. Operator only.
// Existing orders keep their snapshotted prices; only new quotes see the
// change.
func (s *PricingService) SaveSettings(ctx context.Context, role domain.Role, ps *domain.PricingSettings) error {
	if role != domain.RoleSuperAgent {
		return ErrForbidden
	}
	if err := validateTiers(ps.WordTiers, ps.DeadlineTiers); err != nil {
		return err
	}
	if ps.AgentFee < 0 || ps.SuperWorkerFee < 0 {
		return ErrInvalidFee
	}
	if err := repo.SavePricingSettings(ctx, s.DB, ps); err != nil {
		return err
	}
	s.Cache.Delete(cache.PricingConfigKey)
	return nil
}

// AgentTiers returns an agent's word-tier override, or nil when the global
// tiers apply. Operator only.
func (s *PricingService) AgentTiers(ctx context.Context, role domain.Role, agentID string) (*domain.AgentPricing, error) {
	if role != domain.RoleSuperAgent {
		return nil, ErrForbidden
	}
	return repo.GetAgentPricing(ctx, s.DB, agentID)
}

// SaveAgentTiers replaces an agent's word-tier override. Operator only.
func (s *PricingService) SaveAgentTiers(ctx context.Context, role domain.Role, agentID string, tiers map[int]float64) error {
	if role != domain.RoleSuperAgent {
		return ErrForbidden
	}
	if err := validateTiers(tiers, nil); err != nil {
		return err
	}
	return repo.SaveAgentPricing(ctx, s.DB, &domain.AgentPricing{
		AgentID:   agentID,
		WordTiers: tiers,
	})
}

// Tables resolves the tier tables a quote needs: the agent's word-tier
// override when one exists, the global word tiers otherwise, and always the
// global deadline bands.
func (s *PricingService) Tables(ctx context.Context, agentID string) (pricing.Tables, error) {
	ps, err := s.Settings(ctx)
	if err != nil {
		return pricing.Tables{}, err
	}
	words := ps.WordTiers
	if agentID != "" {
		ap, err := repo.GetAgentPricing(ctx, s.DB, agentID)
		if err != nil {
			return pricing.Tables{}, err
		}
		if ap != nil && len(ap.WordTiers) > 0 {
			words = ap.WordTiers
		}
	}
	return pricing.Tables{
		Words:     pricing.NewWordTiers(words),
		Deadlines: pricing.NewDeadlineTiers(ps.DeadlineTiers),
	}, nil
}

// Quote prices an order without creating it: base price from the word
// tiers (agent override included) plus the deadline surcharge.
func (s *PricingService) Quote(ctx context.Context, agentID string, wordCount int, deadline time.Time) (float64, error) {
	tr := otel.Tracer("services/PricingService")
	ctx, span := tr.Start(ctx, "Quote",
		trace.WithAttributes(
			attribute.Int("word_count", wordCount),
			attribute.String("agent.id", agentID),
		),
	)
	defer span.End()

	if wordCount <= 0 || deadline.IsZero() {
		return 0, ErrInvalidOrder
	}
	t, err := s.Tables(ctx, agentID)
	if err != nil {
		return 0, err
	}
	return pricing.Price(wordCount, deadline, time.Now().UTC(), t), nil
}

// SuperWorkerRate resolves a super worker's fee per 500 words: the override
// row when present, the global default otherwise. An empty id resolves
// straight to the global default (used before any super worker is assigned).
func (s *PricingService) SuperWorkerRate(ctx context.Context, superWorkerID string) (float64, error) {
	if superWorkerID != "" {
		f, err := repo.GetSuperWorkerFee(ctx, s.DB, superWorkerID)
		if err != nil {
			return 0, err
		}
		if f != nil {
			return f.FeePer500, nil
		}
	}
	ps, err := s.Settings(ctx)
	if err != nil {
		return 0, err
	}
	return ps.SuperWorkerFee, nil
}

// AgentRate resolves an agent's commission per 500 words, or nil when the
// order has no agent attached.
func (s *PricingService) AgentRate(ctx context.Context, agentID string) (*float64, error) {
	if agentID == "" {
		return nil, nil
	}
	if f, err := repo.GetAgentFee(ctx, s.DB, agentID); err != nil {
		return nil, err
	} else if f != nil {
		rate := f.FeePer500
		return &rate, nil
	}
	ps, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	rate := ps.AgentFee
	return &rate, nil
}

// SuperWorkerFees lists all super-worker fee overrides. Operator only;
// cached between mutations.
func (s *PricingService) SuperWorkerFees(ctx context.Context, role domain.Role) ([]domain.SuperWorkerFee, error) {
	if role != domain.RoleSuperAgent {
		return nil, ErrForbidden
	}
	if v, ok := s.Cache.Get(cache.SuperWorkerFeesKey); ok {
		if fees, ok := v.([]domain.SuperWorkerFee); ok {
			return fees, nil
		}
	}
	fees, err := repo.ListSuperWorkerFees(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(cache.SuperWorkerFeesKey, fees, s.TTL.TTLMedium)
	return fees, nil
}

// SetSuperWorkerFee creates or updates a super worker's fee override.
// Operator only.
func (s *PricingService) SetSuperWorkerFee(ctx context.Context, role domain.Role, superWorkerID string, feePer500 float64) error {
	if role != domain.RoleSuperAgent {
		return ErrForbidden
	}
	if feePer500 < 0 {
		return ErrInvalidFee
	}
	if err := repo.UpsertSuperWorkerFee(ctx, s.DB, superWorkerID, feePer500); err != nil {
		return err
	}
	s.Cache.Delete(cache.SuperWorkerFeesKey)
	return nil
}

// AgentFees lists all agent fee overrides. Operator only; cached between
// mutations.
func (s *PricingService) AgentFees(ctx context.Context, role domain.Role) ([]domain.AgentFee, error) {
	if role != domain.RoleSuperAgent {
		return nil, ErrForbidden
	}
	if v, ok := s.Cache.Get(cache.AgentFeesKey); ok {
		if fees, ok := v.([]domain.AgentFee); ok {
			return fees, nil
		}
	}
	fees, err := repo.ListAgentFees(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(cache.AgentFeesKey, fees, s.TTL.TTLMedium)
	return fees, nil
}

// SetAgentFee creates or updates an agent's fee override. Operator only.
func (s *PricingService) SetAgentFee(ctx context.Context, role domain.Role, agentID string, feePer500 float64) error {
	if role != domain.RoleSuperAgent {
		return ErrForbidden
	}
	if feePer500 < 0 {
		return ErrInvalidFee
	}
	if err := repo.UpsertAgentFee(ctx, s.DB, agentID, feePer500); err != nil {
		return err
	}
	s.Cache.Delete(cache.AgentFeesKey)
	return nil
}

// EnsureSuperWorkerFee creates a super worker's fee row with the global
// default when none exists. Called when the role is granted.
func (s *PricingService) EnsureSuperWorkerFee(ctx context.Context, superWorkerID string) error {
	f, err := repo.GetSuperWorkerFee(ctx, s.DB, superWorkerID)
	if err != nil {
		return err
	}
	if f != nil {
		return nil
	}
	ps, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	if err := repo.UpsertSuperWorkerFee(ctx, s.DB, superWorkerID, ps.SuperWorkerFee); err != nil {
		return err
	}
	s.Cache.Delete(cache.SuperWorkerFeesKey)
	return nil
}

// EnsureAgentFee creates an agent's fee row with the global default when
// none exists. Called when the role is granted.
func (s *PricingService) EnsureAgentFee(ctx context.Context, agentID string) error {
	f, err := repo.GetAgentFee(ctx, s.DB, agentID)
	if err != nil {
		return err
	}
	if f != nil {
		return nil
	}
	ps, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	if err := repo.UpsertAgentFee(ctx, s.DB, agentID, ps.AgentFee); err != nil {
		return err
	}
	s.Cache.Delete(cache.AgentFeesKey)
	return nil
}

// validateTiers rejects empty word tables and non-positive thresholds,
// prices, or day bounds. A nil deadline table skips the deadline check
// (agent overrides carry word tiers only).
func validateTiers(words, deadlines map[int]float64) error {
	if len(words) == 0 {
		return ErrInvalidPricing
	}
	for threshold, price := range words {
		if threshold <= 0 || price <= 0 {
			return ErrInvalidPricing
		}
	}
	for days, surcharge := range deadlines {
		if days <= 0 || surcharge < 0 {
			return ErrInvalidPricing
		}
	}
	return nil
}
