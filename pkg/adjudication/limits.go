package adjudication

import (
	"context"
	"fmt"
	"strings"
)

func (e *Engine) utilization(ctx context.Context, policyID string) (*Utilization, error) {
	if policyID == "" || e.deps.Utilization == nil {
		return &Utilization{CategoryUsage: map[string]float64{}}, nil
	}
	u, err := e.deps.Utilization.Utilization(ctx, policyID)
	if err != nil {
		return nil, fmt.Errorf("loading utilization for %s: %w", policyID, err)
	}
	if u == nil {
		u = &Utilization{PolicyID: policyID}
	}
	if u.CategoryUsage == nil {
		u.CategoryUsage = map[string]float64{}
	}
	return u, nil
}

// ValidateLimits checks the claim total against the minimum, per-claim and
// annual limits, warns on exhausted category sub-limits and rejects late
// submissions.
func (e *Engine) ValidateLimits(ctx context.Context, c *Claim, analysis CoverageAnalysis) (StepResult, error) {
	step := newStep(StepLimitValidation)
	total := c.TotalAmount
	req := e.policy.ClaimRequirements
	cov := e.policy.CoverageDetails

	if req.MinimumClaimAmount > 0 && total < req.MinimumClaimAmount {
		step.critical(CodeBelowMinAmount, fmt.Sprintf("Claim amount %s below minimum %s", rupees(total), rupees(req.MinimumClaimAmount)))
	}

	if cov.PerClaimLimit > 0 && total > cov.PerClaimLimit {
		step.critical(CodePerClaimExceeded, fmt.Sprintf("Claim amount %s exceeds per-claim limit %s", rupees(total), rupees(cov.PerClaimLimit)))
	}

	usage, err := e.utilization(ctx, c.PolicyID)
	if err != nil {
		return step, err
	}

	if cov.AnnualLimit > 0 && usage.TotalApprovedYTD+total > cov.AnnualLimit {
		step.critical(CodeAnnualLimitExceeded, fmt.Sprintf("Total claims (%s) would exceed annual limit %s",
			rupees(usage.TotalApprovedYTD+total), rupees(cov.AnnualLimit)))
	}

	for _, item := range analysis.Items {
		_, section, ok := e.section(item.Category)
		if !ok || section.SubLimit <= 0 {
			continue
		}
		used := usage.CategoryUsage[item.Category]
		if item.ClaimedAmount > section.SubLimit-used {
			step.add(CodeSubLimitExceeded, SeverityWarning,
				fmt.Sprintf("%s sub-limit exceeded. YTD used: %s, Limit: %s, Requested: %s",
					displayDocType(item.Category), rupees(used), rupees(section.SubLimit), rupees(item.ClaimedAmount)),
				item.Description)
		}
	}

	if timeline := req.SubmissionTimelineDays; timeline > 0 {
		treated, errTreat := treatmentTime(c)
		claimed, errClaim := parseDate(c.ClaimDate)
		if errTreat == nil && errClaim == nil {
			if days := daysBetween(treated, claimed); days > timeline {
				step.critical(CodeLateSubmission, fmt.Sprintf("Claim submitted %d days after treatment, exceeds %d day limit", days, timeline))
			}
		}
	}

	return step, nil
}

func containsAnyFold(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
