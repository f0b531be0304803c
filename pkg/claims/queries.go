package claims

import (
	"context"
	"errors"
	"fmt"

	"github.com/claimwise/platform/pkg/adjudication"
	"github.com/claimwise/platform/pkg/policy"
)

// GetClaim returns a stored claim with its issues, fraud indicators, audit
// trail and uploaded documents.
func (s *Service) GetClaim(ctx context.Context, claimID string) (*ClaimDetail, error) {
	c, err := s.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	detail := &ClaimDetail{Claim: *c}
	if detail.Issues, err = s.store.ListIssues(ctx, claimID); err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	if detail.Fraud, err = s.store.ListFraudIndicators(ctx, claimID); err != nil {
		return nil, fmt.Errorf("listing fraud indicators: %w", err)
	}
	if detail.Audit, err = s.store.ListAudit(ctx, claimID); err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}
	if detail.Documents, err = s.store.ListDocuments(ctx, claimID); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return detail, nil
}

func (s *Service) RecentClaims(ctx context.Context, days, limit int) ([]Claim, error) {
	if days <= 0 {
		days = 30
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.RecentClaims(ctx, days, limit)
}

// PolicyClaims lists a policy's claims, newest treatment first.
func (s *Service) PolicyClaims(ctx context.Context, policyID string, limit int) ([]Claim, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ClaimsByPolicy(ctx, policyID, limit)
}

func (s *Service) Statistics(ctx context.Context, f StatisticsFilter) (*Statistics, error) {
	return s.store.Statistics(ctx, f)
}

// PolicyUtilization is a policy's spend this year against its limits.
type PolicyUtilization struct {
	adjudication.Utilization
	ClaimsYTD      float64 `json:"claims_ytd"`
	AnnualLimit    float64 `json:"annual_limit,omitempty"`
	RemainingLimit float64 `json:"remaining_limit,omitempty"`
}

func (s *Service) Utilization(ctx context.Context, policyID string) (*PolicyUtilization, error) {
	out := &PolicyUtilization{Utilization: adjudication.Utilization{
		PolicyID:      policyID,
		CategoryUsage: map[string]float64{},
	}}
	if s.utilization != nil {
		u, err := s.utilization.Utilization(ctx, policyID)
		if err != nil {
			return nil, fmt.Errorf("loading utilization: %w", err)
		}
		out.Utilization = *u
	}

	p := s.engine.Policy()
	if s.policies != nil {
		rec, err := s.policies.Get(ctx, policyID)
		switch {
		case errors.Is(err, policy.ErrNotFound):
			return nil, ErrNotFound
		case err != nil:
			return nil, fmt.Errorf("loading policy: %w", err)
		}
		out.ClaimsYTD = rec.ClaimsYTD
		if stored, err := rec.Policy(); err == nil {
			p = stored
		}
	}

	if limit := p.CoverageDetails.AnnualLimit; limit > 0 {
		out.AnnualLimit = limit
		out.RemainingLimit = limit - out.TotalApprovedYTD
		if out.RemainingLimit < 0 {
			out.RemainingLimit = 0
		}
	}
	return out, nil
}

// PolicySummary describes the policy applied to claims that name no other.
type PolicySummary struct {
	PolicyID           string   `json:"policy_id"`
	PolicyName         string   `json:"policy_name"`
	EffectiveDate      string   `json:"policy_start_date"`
	EndDate            string   `json:"policy_end_date,omitempty"`
	CoverageCategories []string `json:"coverage_categories"`
	ExclusionsCount    int      `json:"exclusions_count"`
	AnnualLimit        float64  `json:"annual_limit,omitempty"`
	PerClaimLimit      float64  `json:"per_claim_limit,omitempty"`
}

func (s *Service) PolicySummary() PolicySummary {
	p := s.engine.Policy()
	details := p.CoverageDetails
	sections := []struct {
		name string
		cov  policy.Coverage
	}{
		{"consultation_fees", details.ConsultationFees},
		{"diagnostic_tests", details.DiagnosticTests},
		{"pharmacy", details.Pharmacy},
		{"dental", details.Dental},
		{"vision", details.Vision},
		{"alternative_medicine", details.AlternativeMedicine},
	}
	categories := make([]string, 0, len(sections))
	for _, sec := range sections {
		if sec.cov.Covered {
			categories = append(categories, sec.name)
		}
	}
	return PolicySummary{
		PolicyID:           orNA(p.PolicyID),
		PolicyName:         p.PolicyName,
		EffectiveDate:      p.EffectiveDate,
		EndDate:            p.PolicyEndDate,
		CoverageCategories: categories,
		ExclusionsCount:    len(p.Exclusions),
		AnnualLimit:        details.AnnualLimit,
		PerClaimLimit:      details.PerClaimLimit,
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
