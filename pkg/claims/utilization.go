package claims

import (
	"context"
	"errors"

	"github.com/claimwise/platform/pkg/adjudication"
	"github.com/claimwise/platform/pkg/cache"
	"github.com/claimwise/platform/pkg/common/logger"
)

// UtilizationCacheKey is the cache key holding a policy's utilization.
func UtilizationCacheKey(policyID string) string {
	return "utilization:" + policyID
}

// UtilizationCache is the slice of cache.JSONCache that CachedUtilization
// needs.
type UtilizationCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// UtilizationInvalidator drops a policy's cached utilization once a new
// approval changes it.
type UtilizationInvalidator interface {
	Invalidate(ctx context.Context, policyID string) error
}

// CachedUtilization serves utilization from Redis, falling back to the
// database on a miss. Cache errors never fail a lookup.
type CachedUtilization struct {
	source adjudication.UtilizationSource
	cache  UtilizationCache
}

func NewCachedUtilization(source adjudication.UtilizationSource, c UtilizationCache) *CachedUtilization {
	return &CachedUtilization{source: source, cache: c}
}

func (u *CachedUtilization) Utilization(ctx context.Context, policyID string) (*adjudication.Utilization, error) {
	key := UtilizationCacheKey(policyID)

	var cached adjudication.Utilization
	err := u.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.Log.WithError(err).WithField("policy_id", policyID).Warn("Utilization cache read failed")
	}

	fresh, err := u.source.Utilization(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if err := u.cache.Set(ctx, key, fresh); err != nil {
		logger.Log.WithError(err).WithField("policy_id", policyID).Warn("Utilization cache write failed")
	}
	return fresh, nil
}

// Invalidate drops the cached utilization for a policy.
func (u *CachedUtilization) Invalidate(ctx context.Context, policyID string) error {
	return u.cache.Delete(ctx, UtilizationCacheKey(policyID))
}
