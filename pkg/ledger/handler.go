package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/claimwise/platform/pkg/adjudication"
	"github.com/claimwise/platform/pkg/common/logger"
	"github.com/claimwise/platform/pkg/common/models"
	"github.com/claimwise/platform/pkg/policy"
)

type Store interface {
	Apply(ctx context.Context, e Entry) (bool, error)
}

// Invalidator drops cached utilization for a policy.
type Invalidator interface {
	Invalidate(ctx context.Context, policyID string) error
}

type Handler struct {
	store Store
	cache Invalidator
}

func NewHandler(store Store, cache Invalidator) *Handler {
	return &Handler{store: store, cache: cache}
}

// Handle applies paid claim decisions to their policy's year-to-date total.
// Other events and unpaid decisions are acknowledged without effect.
func (h *Handler) Handle(ctx context.Context, event models.Event) error {
	if event.Type != models.EventClaimAdjudicated {
		return nil
	}
	decision := models.ClaimDecisionFromMap(event.Data)
	log := logger.Log.WithFields(map[string]interface{}{
		"event_id":  event.ID,
		"claim_id":  decision.ClaimID,
		"policy_id": decision.PolicyID,
		"decision":  decision.Decision,
	})

	if decision.Decision != adjudication.DecisionApproved && decision.Decision != adjudication.DecisionPartial {
		return nil
	}
	if decision.ClaimID == "" || decision.PolicyID == "" || decision.ApprovedAmount <= 0 {
		log.Warn("Skipping paid decision without claim, policy or amount")
		return nil
	}

	applied, err := h.store.Apply(ctx, Entry{
		ClaimID:  decision.ClaimID,
		PolicyID: decision.PolicyID,
		Amount:   decision.ApprovedAmount,
		Decision: decision.Decision,
	})
	if errors.Is(err, policy.ErrNotFound) {
		log.Warn("Policy not on record, decision not applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("applying claim %s: %w", decision.ClaimID, err)
	}
	if !applied {
		log.Info("Claim already applied to ledger")
		return nil
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, decision.PolicyID); err != nil {
			log.WithError(err).Warn("Failed to invalidate utilization cache")
		}
	}
	log.WithField("approved_amount", decision.ApprovedAmount).Info("Claim applied to policy ledger")
	return nil
}
