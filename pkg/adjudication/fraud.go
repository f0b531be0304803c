package adjudication

import (
	"fmt"
	"math"
)

// Fraud indicator types.
const (
	IndicatorHighValue         = "HIGH_VALUE"
	IndicatorMissingInfo       = "MISSING_INFO"
	IndicatorSuspiciousAmounts = "SUSPICIOUS_AMOUNTS"
	IndicatorDocumentModified  = "DOCUMENT_MODIFIED"
	IndicatorUnusualPattern    = "UNUSUAL_PATTERN"
)

type FraudIndicator struct {
	Type     string  `json:"type"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Score    float64 `json:"score"`
}

type FraudResult struct {
	Score                float64          `json:"fraud_score"`
	Indicators           []FraudIndicator `json:"indicators"`
	RequiresManualReview bool             `json:"requires_manual_review"`
}

// DetectFraud scores high claim values, missing provider details and
// suspiciously round amounts. The score is capped at 1.
func (e *Engine) DetectFraud(c *Claim) FraudResult {
	res := FraudResult{Indicators: []FraudIndicator{}}
	var score float64

	threshold := e.policy.HighValueThreshold()
	if c.TotalAmount > threshold {
		s := math.Min(0.3, c.TotalAmount/threshold*0.2)
		res.Indicators = append(res.Indicators, FraudIndicator{
			Type:     IndicatorHighValue,
			Severity: "medium",
			Message:  "High-value claim: " + rupees(c.TotalAmount),
			Score:    s,
		})
		score += s
	}

	for _, field := range e.policy.CriticalFields() {
		if c.Field(field) == "" {
			res.Indicators = append(res.Indicators, FraudIndicator{
				Type:     IndicatorMissingInfo,
				Severity: "medium",
				Message:  fmt.Sprintf("Missing critical field: %s", field),
				Score:    0.2,
			})
			score += 0.2
		}
	}

	if len(c.Items) > 2 {
		round := 0
		for _, item := range c.Items {
			if math.Mod(float64(item.Amount), 1000) == 0 {
				round++
			}
		}
		if round == len(c.Items) {
			res.Indicators = append(res.Indicators, FraudIndicator{
				Type:     IndicatorSuspiciousAmounts,
				Severity: "low",
				Message:  "All amounts are round numbers",
				Score:    0.1,
			})
			score += 0.1
		}
	}

	res.Score = math.Min(score, 1.0)
	res.RequiresManualReview = score > e.policy.ManualReviewThreshold()
	return res
}
