package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/claimwise/platform/pkg/common/logger"
)

// Store is the subset of Repository used to reconcile the file policy.
type Store interface {
	Get(ctx context.Context, policyID string) (*Record, error)
	Create(ctx context.Context, p *Policy) (*Record, error)
}

// Sync stores the file policy when the database has no copy of it. When a
// copy exists it wins and is returned instead.
func Sync(ctx context.Context, store Store, filePolicy *Policy) (*Policy, error) {
	if filePolicy.PolicyID == "" {
		return filePolicy, nil
	}

	rec, err := store.Get(ctx, filePolicy.PolicyID)
	if errors.Is(err, ErrNotFound) {
		if _, err := store.Create(ctx, filePolicy); err != nil {
			return nil, fmt.Errorf("creating policy %s: %w", filePolicy.PolicyID, err)
		}
		logger.Log.WithField("policy_id", filePolicy.PolicyID).Info("Policy stored from file")
		return filePolicy, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading policy %s: %w", filePolicy.PolicyID, err)
	}

	stored, err := rec.Policy()
	if err != nil {
		return nil, err
	}
	logger.Log.WithField("policy_id", stored.PolicyID).Info("Using stored policy")
	return stored, nil
}
