// Package geo resolves patient ZIP codes to rural-urban commuting area
// (RUCA) categories. Lookups go through an in-memory LRU, then Redis,
// then the Postgres lookup table; when no row exists the ZIP-prefix
// heuristic supplies a fallback.
package geo

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/domain"
	"github.com/readmit-risk-server/internal/riskmodel"
)

const (
	memoryCacheSize = 4096
	redisKeyPrefix  = "ruca:"
	redisTTL        = 7 * 24 * time.Hour
)

// Resolver implements domain.RucaResolver with two cache tiers above the
// lookup table.
type Resolver struct {
	db    *pgxpool.Pool
	cache *redis.Client
	mem   *lru.Cache[string, domain.RuralCategory]
	log   *logrus.Logger
}

// NewResolver creates a RUCA resolver. The Redis client may be nil; the
// resolver then runs with the memory tier only.
func NewResolver(db *pgxpool.Pool, cache *redis.Client, logger *logrus.Logger) (*Resolver, error) {
	mem, err := lru.New[string, domain.RuralCategory](memoryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating ruca memory cache: %w", err)
	}
	return &Resolver{db: db, cache: cache, mem: mem, log: logger}, nil
}

// Resolve maps a ZIP code to its rural category. A missing lookup row is
// not an error: the prefix heuristic answers instead and the result is
// cached like any other.
func (r *Resolver) Resolve(ctx context.Context, zipCode string) (domain.RuralCategory, error) {
	if cat, ok := r.mem.Get(zipCode); ok {
		return cat, nil
	}

	if r.cache != nil {
		if val, err := r.cache.Get(ctx, redisKeyPrefix+zipCode).Result(); err == nil {
			cat := domain.RuralCategory(val)
			r.mem.Add(zipCode, cat)
			return cat, nil
		}
	}

	cat, err := r.lookup(ctx, zipCode)
	if err != nil {
		return "", err
	}

	r.mem.Add(zipCode, cat)
	if r.cache != nil {
		if err := r.cache.Set(ctx, redisKeyPrefix+zipCode, string(cat), redisTTL).Err(); err != nil {
			r.log.WithError(err).WithField("zip", zipCode).Warn("Failed to cache ruca category")
		}
	}
	return cat, nil
}

func (r *Resolver) lookup(ctx context.Context, zipCode string) (domain.RuralCategory, error) {
	var code int
	err := r.db.QueryRow(ctx, `SELECT ruca_code FROM ruca_lookup WHERE zip_code = $1`, zipCode).Scan(&code)
	if err == pgx.ErrNoRows {
		cat := riskmodel.RuralFallbackFromZip(zipCode)
		r.log.WithFields(logrus.Fields{
			"zip":      zipCode,
			"category": cat,
		}).Debug("No ruca row, using zip prefix fallback")
		return cat, nil
	}
	if err != nil {
		return "", fmt.Errorf("querying ruca lookup: %w", err)
	}
	return riskmodel.CategorizeRUCA(code), nil
}

// StaticResolver resolves from a fixed ZIP→category map, for tests and
// single-tenant deployments without a lookup table.
type StaticResolver struct {
	Entries map[string]domain.RuralCategory
}

// Resolve returns the mapped category or the prefix fallback.
func (s StaticResolver) Resolve(ctx context.Context, zipCode string) (domain.RuralCategory, error) {
	if cat, ok := s.Entries[zipCode]; ok {
		return cat, nil
	}
	return riskmodel.RuralFallbackFromZip(zipCode), nil
}
