package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claimwise/platform/pkg/adjudication"
	"github.com/claimwise/platform/pkg/common/models"
	"github.com/claimwise/platform/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLedger struct {
	entries map[string]Entry
	err     error
}

func (m *memoryLedger) Apply(_ context.Context, e Entry) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.entries[e.ClaimID]; ok {
		return false, nil
	}
	m.entries[e.ClaimID] = e
	return true, nil
}

type recordingInvalidator struct {
	policies []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, policyID string) error {
	r.policies = append(r.policies, policyID)
	return nil
}

func decisionEvent(decision string, approved float64) models.Event {
	return models.Event{
		ID:   "evt-1",
		Type: models.EventClaimAdjudicated,
		Data: models.ClaimDecisionEvent{
			ClaimID:        "CLM_20241115090000_ABCDEF12",
			PolicyID:       "PLUM_OPD_2024",
			Decision:       decision,
			TotalClaimed:   1200,
			ApprovedAmount: approved,
			DecidedAt:      time.Date(2024, 11, 15, 9, 0, 0, 0, time.UTC),
		}.ToMap(),
	}
}

func TestHandleAppliesPaidDecisionsOnce(t *testing.T) {
	store := &memoryLedger{entries: map[string]Entry{}}
	inv := &recordingInvalidator{}
	h := NewHandler(store, inv)

	ev := decisionEvent(adjudication.DecisionPartial, 1100)
	require.NoError(t, h.Handle(context.Background(), ev))
	require.NoError(t, h.Handle(context.Background(), ev))

	require.Len(t, store.entries, 1)
	entry := store.entries["CLM_20241115090000_ABCDEF12"]
	assert.InDelta(t, 1100.0, entry.Amount, 0.001)
	assert.Equal(t, "PLUM_OPD_2024", entry.PolicyID)
	assert.Equal(t, []string{"PLUM_OPD_2024"}, inv.policies)
}

func TestHandleIgnoresUnpaidAndForeignEvents(t *testing.T) {
	store := &memoryLedger{entries: map[string]Entry{}}
	h := NewHandler(store, nil)

	for _, ev := range []models.Event{
		decisionEvent(adjudication.DecisionRejected, 0),
		decisionEvent(adjudication.DecisionManualReview, 1200),
		decisionEvent(adjudication.DecisionApproved, 0),
		{Type: models.EventClaimDLQ, Data: decisionEvent(adjudication.DecisionApproved, 1200).Data},
	} {
		require.NoError(t, h.Handle(context.Background(), ev))
	}
	assert.Empty(t, store.entries)
}

func TestHandleSurfacesStoreErrors(t *testing.T) {
	h := NewHandler(&memoryLedger{err: errors.New("db down")}, nil)
	err := h.Handle(context.Background(), decisionEvent(adjudication.DecisionApproved, 1200))
	assert.ErrorContains(t, err, "db down")

	h = NewHandler(&memoryLedger{err: policy.ErrNotFound}, nil)
	assert.NoError(t, h.Handle(context.Background(), decisionEvent(adjudication.DecisionApproved, 1200)))
}
