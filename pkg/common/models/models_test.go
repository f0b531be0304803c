package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimDecisionSurvivesEventEnvelope(t *testing.T) {
	decided := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC)
	in := ClaimDecisionEvent{
		ClaimID:        "CLM_20250304103000_ABCDEF12",
		PolicyID:       "PLUM_OPD_2024",
		Decision:       "PARTIAL",
		TotalClaimed:   1500,
		ApprovedAmount: 1350.5,
		Confidence:     0.8,
		DecidedAt:      decided,
	}

	raw, err := json.Marshal(Event{ID: "e1", Type: EventClaimAdjudicated, Data: in.ToMap()})
	require.NoError(t, err)

	var env Event
	require.NoError(t, json.Unmarshal(raw, &env))

	out := ClaimDecisionFromMap(env.Data)
	assert.Equal(t, in, out)
}
