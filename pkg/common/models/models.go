package models

import "time"

// Event is the envelope written to every Kafka topic.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // claim.adjudicated, claim.failed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

const (
	EventClaimAdjudicated = "claim.adjudicated"
	EventClaimDLQ         = "claim.dlq"
)

// ClaimDecisionEvent is the Data payload of a claim.adjudicated event.
type ClaimDecisionEvent struct {
	ClaimID        string    `json:"claim_id"`
	PolicyID       string    `json:"policy_id,omitempty"`
	MemberID       string    `json:"member_id,omitempty"`
	Decision       string    `json:"decision"`
	TotalClaimed   float64   `json:"total_claimed"`
	ApprovedAmount float64   `json:"approved_amount"`
	Confidence     float64   `json:"confidence_score"`
	FraudScore     float64   `json:"fraud_score"`
	DecidedAt      time.Time `json:"decided_at"`
}

func (e ClaimDecisionEvent) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"claim_id":         e.ClaimID,
		"policy_id":        e.PolicyID,
		"member_id":        e.MemberID,
		"decision":         e.Decision,
		"total_claimed":    e.TotalClaimed,
		"approved_amount":  e.ApprovedAmount,
		"confidence_score": e.Confidence,
		"fraud_score":      e.FraudScore,
		"decided_at":       e.DecidedAt.Format(time.RFC3339),
	}
}

// ClaimDecisionFromMap is the inverse of ToMap for consumers that receive the
// generic event envelope.
func ClaimDecisionFromMap(data map[string]interface{}) ClaimDecisionEvent {
	ev := ClaimDecisionEvent{
		ClaimID:        stringValue(data["claim_id"]),
		PolicyID:       stringValue(data["policy_id"]),
		MemberID:       stringValue(data["member_id"]),
		Decision:       stringValue(data["decision"]),
		TotalClaimed:   floatValue(data["total_claimed"]),
		ApprovedAmount: floatValue(data["approved_amount"]),
		Confidence:     floatValue(data["confidence_score"]),
		FraudScore:     floatValue(data["fraud_score"]),
	}
	if ts, err := time.Parse(time.RFC3339, stringValue(data["decided_at"])); err == nil {
		ev.DecidedAt = ts
	}
	return ev
}

func stringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func floatValue(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
