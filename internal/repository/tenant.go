package repository

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/domain"
)

const tenantCacheSize = 256

// TenantRepository resolves per-tenant prediction settings. Settings
// change rarely, so resolved rows sit in a small LRU; an absent row
// yields the documented defaults (disabled, 0.50 threshold) rather than
// an error.
type TenantRepository struct {
	db    *pgxpool.Pool
	cache *lru.Cache[string, domain.TenantSettings]
	log   *logrus.Logger
}

// NewTenantRepository creates a tenant settings repository.
func NewTenantRepository(db *pgxpool.Pool, logger *logrus.Logger) (*TenantRepository, error) {
	cache, err := lru.New[string, domain.TenantSettings](tenantCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating tenant settings cache: %w", err)
	}
	return &TenantRepository{db: db, cache: cache, log: logger}, nil
}

// Settings returns the tenant's prediction settings, cached.
func (r *TenantRepository) Settings(ctx context.Context, tenantID string) (domain.TenantSettings, error) {
	if s, ok := r.cache.Get(tenantID); ok {
		return s, nil
	}

	s := domain.DefaultTenantSettings(tenantID)
	err := r.db.QueryRow(ctx, `
		SELECT enabled, auto_care_plan, high_risk_threshold, COALESCE(judge_model, '')
		FROM tenant_settings
		WHERE tenant_id = $1`,
		tenantID,
	).Scan(&s.Enabled, &s.AutoCarePlan, &s.HighRiskThreshold, &s.JudgeModel)
	if err == pgx.ErrNoRows {
		r.log.WithField("tenant_id", tenantID).Debug("No tenant settings row, using defaults")
		r.cache.Add(tenantID, s)
		return s, nil
	}
	if err != nil {
		return domain.TenantSettings{}, fmt.Errorf("querying tenant settings: %w", err)
	}
	if s.JudgeModel == "" {
		s.JudgeModel = domain.DefaultJudgeModel
	}

	r.cache.Add(tenantID, s)
	return s, nil
}

// Invalidate drops a tenant's cached settings, for use after an
// administrative update.
func (r *TenantRepository) Invalidate(tenantID string) {
	r.cache.Remove(tenantID)
}
