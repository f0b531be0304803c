package adjudication

import (
	"context"
	"fmt"
	"strings"

	"github.com/claimwise/platform/pkg/extraction"
	"github.com/claimwise/platform/pkg/policy"
	"github.com/samber/lo"
)

// Item statuses.
const (
	ItemApproved      = "approved"
	ItemPartial       = "partial"
	ItemRejected      = "rejected"
	ItemPendingReview = "pending_review"
)

// ItemAnalysis is the coverage verdict for one billable line. The Final*
// fields are filled once the claim-level decision is known.
type ItemAnalysis struct {
	Description      string  `json:"description"`
	Category         string  `json:"category"`
	SourceDocument   string  `json:"source_document,omitempty"`
	Quantity         float64 `json:"quantity,omitempty"`
	UnitPrice        float64 `json:"unit_price,omitempty"`
	ClaimedAmount    float64 `json:"claimed_amount"`
	ApprovedAmount   float64 `json:"approved_amount"`
	RejectedAmount   float64 `json:"rejected_amount"`
	CopayAmount      float64 `json:"copay_amount"`
	Status           string  `json:"status"`
	Reason           string  `json:"reason"`
	SubLimitExceeded bool    `json:"sub_limit_exceeded"`

	FinalStatus         string  `json:"final_status,omitempty"`
	FinalApprovedAmount float64 `json:"final_approved_amount"`
	FinalReason         string  `json:"final_reason,omitempty"`
	CoverageEligible    *bool   `json:"coverage_eligible,omitempty"`
	CoverageNote        string  `json:"coverage_analysis,omitempty"`
}

type CoverageAnalysis struct {
	Items         []ItemAnalysis `json:"item_analysis"`
	TotalApproved float64        `json:"total_approved"`
	TotalRejected float64        `json:"total_rejected"`
	TotalCopay    float64        `json:"total_copay"`
}

func containsFold(text, needle string) bool {
	return needle != "" && strings.Contains(strings.ToLower(text), strings.ToLower(needle))
}

// section returns the coverage section paying for an item category.
func (e *Engine) section(category string) (string, policy.Coverage, bool) {
	key := e.catalog.CoverageKey(category)
	if key == "" {
		return "", policy.Coverage{}, false
	}
	cov, ok := e.policy.CoverageDetails.Section(key)
	return key, cov, ok
}

// VerifyCoverage flags excluded conditions, categories the policy does not
// cover and diagnostics that lack a required pre-authorization.
func (e *Engine) VerifyCoverage(c *Claim) StepResult {
	step := newStep(StepCoverageVerification)

	for _, item := range c.Items {
		for _, exclusion := range e.policy.Exclusions {
			if containsFold(item.Description, exclusion) || containsFold(c.Diagnosis, exclusion) {
				step.add(CodeExcludedCondition, SeverityCritical, "Service excluded: "+exclusion, item.Description)
			}
		}

		if _, cov, ok := e.section(item.Category); !ok || !cov.Covered {
			step.add(CodeServiceNotCovered, SeverityCritical, "Service category not covered: "+item.Category, item.Description)
		}
	}

	if e.policy.CoverageDetails.DiagnosticTests.PreAuthorizationRequired && c.PreAuthorizationNumber == "" {
		for _, item := range c.Items {
			if e.catalog.RequiresPreAuth(item.Description) {
				step.add(CodePreAuthMissing, SeverityCritical, "Pre-authorization required for: "+item.Description, item.Description)
			}
		}
	}

	return step
}

// AnalyzeCoverage works out the approved, rejected and co-pay share of every
// billable item. Items without a positive amount are skipped.
func (e *Engine) AnalyzeCoverage(ctx context.Context, items []extraction.Item) CoverageAnalysis {
	analysis := CoverageAnalysis{Items: []ItemAnalysis{}}
	for _, item := range items {
		if item.Amount <= 0 {
			continue
		}
		result := e.analyzeItem(ctx, item)
		analysis.Items = append(analysis.Items, result)
	}
	analysis.TotalApproved = lo.SumBy(analysis.Items, func(i ItemAnalysis) float64 { return i.ApprovedAmount })
	analysis.TotalRejected = lo.SumBy(analysis.Items, func(i ItemAnalysis) float64 { return i.RejectedAmount })
	analysis.TotalCopay = lo.SumBy(analysis.Items, func(i ItemAnalysis) float64 { return i.CopayAmount })
	return analysis
}

func (e *Engine) analyzeItem(ctx context.Context, item extraction.Item) ItemAnalysis {
	amount := float64(item.Amount)
	res := ItemAnalysis{
		Description:    item.Description,
		Category:       item.Category,
		SourceDocument: item.SourceDocument,
		Quantity:       float64(item.Quantity),
		UnitPrice:      float64(item.UnitPrice),
		ClaimedAmount:  amount,
		Status:         ItemRejected,
	}

	for _, exclusion := range e.policy.Exclusions {
		if containsFold(item.Description, exclusion) {
			return res.reject("Excluded: " + exclusion)
		}
	}

	key, cov, ok := e.section(item.Category)
	if !ok {
		return res.reject("Unknown category")
	}

	switch key {
	case "consultation_fees":
		return consultation(res, cov)
	case "diagnostic_tests":
		return e.diagnostic(ctx, res, cov)
	case "pharmacy":
		return e.pharmacy(res, cov)
	case "dental":
		return dental(res, cov)
	case "vision":
		return vision(res, cov)
	case "alternative_medicine":
		return alternative(res, cov)
	default:
		return res.reject("Unknown category")
	}
}

func (r ItemAnalysis) reject(reason string) ItemAnalysis {
	r.Status = ItemRejected
	r.RejectedAmount = r.ClaimedAmount
	r.Reason = reason
	return r
}

func (r ItemAnalysis) overSubLimit(label string, subLimit float64) ItemAnalysis {
	r = r.reject(fmt.Sprintf("Exceeds %s limit %s", label, rupees(subLimit)))
	r.SubLimitExceeded = true
	return r
}

func (r ItemAnalysis) approve(reason string) ItemAnalysis {
	r.Status = ItemApproved
	r.ApprovedAmount = r.ClaimedAmount
	r.Reason = reason
	return r
}

func (r ItemAnalysis) approveWithCopay(pct float64, reason string) ItemAnalysis {
	copay := r.ClaimedAmount * pct / 100
	r.Status = ItemApproved
	r.ApprovedAmount = r.ClaimedAmount - copay
	r.CopayAmount = copay
	r.Reason = reason
	return r
}

func exceeds(amount, subLimit float64) bool {
	return subLimit > 0 && amount > subLimit
}

// consultation pays up to the sub-limit; the excess is rejected and the
// co-pay is taken on the covered part.
func consultation(r ItemAnalysis, cov policy.Coverage) ItemAnalysis {
	if !cov.Covered {
		return r.reject("Consultation not covered")
	}
	pct := cov.CopayPercentage
	if exceeds(r.ClaimedAmount, cov.SubLimit) {
		copay := cov.SubLimit * pct / 100
		excess := r.ClaimedAmount - cov.SubLimit
		r.Status = ItemPartial
		r.ApprovedAmount = cov.SubLimit - copay
		r.CopayAmount = copay
		r.RejectedAmount = excess
		r.SubLimitExceeded = true
		r.Reason = fmt.Sprintf("Partial approval: %s covered (limit), %s exceeds limit, %s%% copay applied",
			rupees(cov.SubLimit), rupees(excess), trimFloat(pct))
		return r
	}
	return r.approveWithCopay(pct, fmt.Sprintf("Approved with %s%% copay", trimFloat(pct)))
}

func (e *Engine) diagnostic(ctx context.Context, r ItemAnalysis, cov policy.Coverage) ItemAnalysis {
	if !cov.Covered {
		return r.reject("Diagnostics not covered")
	}
	if !e.testCovered(ctx, r.Description, cov.CoveredTests) {
		return r.reject("Test not in covered list")
	}
	if exceeds(r.ClaimedAmount, cov.SubLimit) {
		return r.overSubLimit("diagnostic", cov.SubLimit)
	}
	return r.approve("Covered diagnostic test")
}

func (e *Engine) testCovered(ctx context.Context, description string, tests []string) bool {
	if e.deps.Matcher != nil {
		return e.deps.Matcher.MatchesCoveredTest(ctx, description, tests)
	}
	return lo.ContainsBy(tests, func(t string) bool { return containsFold(description, t) })
}

func (e *Engine) pharmacy(r ItemAnalysis, cov policy.Coverage) ItemAnalysis {
	if !cov.Covered {
		return r.reject("Pharmacy not covered")
	}
	if exceeds(r.ClaimedAmount, cov.SubLimit) {
		return r.overSubLimit("pharmacy", cov.SubLimit)
	}
	if e.catalog.IsGeneric(r.Description) {
		return r.approve("Generic drug - 100% covered")
	}
	pct := cov.BrandedDrugsCopay
	return r.approveWithCopay(pct, fmt.Sprintf("Branded drug - %s%% copay", trimFloat(pct)))
}

func dental(r ItemAnalysis, cov policy.Coverage) ItemAnalysis {
	if !cov.Covered {
		return r.reject("Dental not covered")
	}
	if exceeds(r.ClaimedAmount, cov.SubLimit) {
		return r.overSubLimit("dental", cov.SubLimit)
	}
	if !lo.ContainsBy(cov.ProceduresCovered, func(p string) bool { return containsFold(r.Description, p) }) {
		return r.reject("Dental procedure not covered")
	}
	return r.approve("Covered dental procedure")
}

func vision(r ItemAnalysis, cov policy.Coverage) ItemAnalysis {
	if !cov.Covered {
		return r.reject("Vision not covered")
	}
	if exceeds(r.ClaimedAmount, cov.SubLimit) {
		return r.overSubLimit("vision", cov.SubLimit)
	}
	return r.approve("Covered vision service")
}

func alternative(r ItemAnalysis, cov policy.Coverage) ItemAnalysis {
	if !cov.Covered {
		return r.reject("Alternative medicine not covered")
	}
	if !lo.ContainsBy(cov.CoveredTreatments, func(t string) bool { return containsFold(r.Description, t) }) {
		return r.reject("Treatment type not covered")
	}
	if exceeds(r.ClaimedAmount, cov.SubLimit) {
		return r.overSubLimit("alternative medicine", cov.SubLimit)
	}
	return r.approve("Covered alternative medicine")
}
