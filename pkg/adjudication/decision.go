package adjudication

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
)

// Claim decisions.
const (
	DecisionApproved     = "APPROVED"
	DecisionPartial      = "PARTIAL"
	DecisionRejected     = "REJECTED"
	DecisionManualReview = "MANUAL_REVIEW"
	DecisionPending      = "PENDING"
)

// hardStops reject a claim outright, with the next steps shown to the member.
var hardStops = map[string]string{
	CodePolicyInactive:        "Please verify your policy status and effective dates.",
	CodePolicyExpired:         "Your policy has expired. Please renew your policy to submit new claims.",
	CodeWaitingPeriod:         "This claim is within the waiting period. You can resubmit after the waiting period ends.",
	CodeMemberNotCovered:      "Please verify member details match your policy records.",
	CodeExcludedCondition:     "This service is explicitly excluded from your policy. Review your policy document for coverage details.",
	CodeCosmeticProcedure:     "Cosmetic procedures are not covered. Only medically necessary treatments are eligible.",
	CodeExperimentalTreatment: "Experimental treatments require special approval. Contact us for pre-authorization.",
	CodeLateSubmission:        "Claims must be submitted within the specified timeline. Contact support if you have extenuating circumstances.",
	CodeNotMedicallyNecessary: "Submit supporting clinical notes from the treating doctor if you believe the treatment was necessary.",
	CodePreAuthMissing:        "Obtain pre-authorization for the listed procedures and resubmit the claim.",
	CodeBelowMinAmount:        "Claims below the minimum amount are not processed. Combine eligible expenses into a single claim.",
}

type Factor struct {
	Type        string   `json:"type"`
	Impact      string   `json:"impact"`
	Description string   `json:"description"`
	Details     []string `json:"details"`
}

type CoverageSummary struct {
	TotalClaimed   float64 `json:"total_claimed"`
	EligibleAmount float64 `json:"eligible_amount"`
	CopayDeduction float64 `json:"copay_deduction"`
	NotCovered     float64 `json:"not_covered"`
	FinalApproved  float64 `json:"final_approved"`
}

type Reasoning struct {
	Summary         string            `json:"summary"`
	DecisionFactors []Factor          `json:"decision_factors"`
	ValidationSteps map[string]string `json:"validation_steps"`
	CoverageSummary CoverageSummary   `json:"coverage_summary"`
	Recommendation  string            `json:"recommendation"`
}

type Deductions struct {
	Copay         float64 `json:"copay"`
	RejectedItems float64 `json:"rejected_items"`
}

// Decision is the adjudication result returned to the caller and stored
// with the claim.
type Decision struct {
	ClaimID          string   `json:"claim_id"`
	Decision         string   `json:"decision"`
	ApprovedAmount   float64  `json:"approved_amount"`
	RejectionReasons []string `json:"rejection_reasons"`
	ConfidenceScore  float64  `json:"confidence_score"`
	FraudScore       float64  `json:"fraud_score"`
	Notes            string   `json:"notes"`
	NextSteps        string   `json:"next_steps"`

	Reasoning Reasoning `json:"reasoning"`

	PatientName  string  `json:"patient_name"`
	EmployeeID   string  `json:"employee_id"`
	Reason       string  `json:"reason"`
	TotalClaimed float64 `json:"total_claimed"`

	Deductions       Deductions `json:"deductions"`
	PatientPayable   float64    `json:"patient_payable"`
	InsurancePayable float64    `json:"insurance_payable"`

	CriticalIssues  []Issue          `json:"critical_issues"`
	Warnings        []Issue          `json:"warnings"`
	ItemBreakdown   []ItemAnalysis   `json:"item_breakdown"`
	FraudIndicators []FraudIndicator `json:"fraud_indicators"`

	AdjudicationDate string `json:"adjudication_date"`
	PolicyID         string `json:"policy_id"`
}

func splitIssues(steps []StepResult) (critical, warnings []Issue) {
	critical, warnings = []Issue{}, []Issue{}
	for _, s := range steps {
		for _, issue := range s.Issues {
			switch issue.Severity {
			case SeverityCritical:
				critical = append(critical, issue)
			case SeverityWarning:
				warnings = append(warnings, issue)
			}
		}
	}
	return critical, warnings
}

func hasCode(issues []Issue, codes ...string) bool {
	return lo.ContainsBy(issues, func(i Issue) bool { return lo.Contains(codes, i.Code) })
}

// Confidence starts at 1 and loses points for missing provider details,
// warnings and fraud risk.
func (e *Engine) Confidence(c *Claim, warnings int, fraudScore float64) float64 {
	score := 1.0
	penalty := e.policy.MissingFieldPenalty()
	if c.DoctorRegistration == "" {
		score -= penalty
	}
	if c.HospitalName == "" {
		score -= penalty / 2
	}
	if c.DoctorName == "" {
		score -= penalty / 2
	}
	if c.Diagnosis == "" {
		score -= penalty
	}
	score -= float64(warnings) * e.policy.WarningPenalty()
	score -= fraudScore * e.policy.FraudImpact()
	return math.Max(0, math.Min(1, score))
}

type verdict struct {
	decision   string
	approved   float64
	reason     string
	nextSteps  string
	capApplied float64
}

// Decide combines the step results into the final decision. Precedence:
// hard stops, manual review triggers, missing essentials, nothing covered,
// then partial or full approval.
func (e *Engine) Decide(c *Claim, steps []StepResult, analysis CoverageAnalysis, fraud FraudResult) *Decision {
	critical, warnings := splitIssues(steps)
	confidence := e.Confidence(c, len(warnings), fraud.Score)
	v := e.verdict(c, critical, analysis, fraud, confidence)
	return e.output(c, v, critical, warnings, confidence, analysis, fraud)
}

func (e *Engine) verdict(c *Claim, critical []Issue, analysis CoverageAnalysis, fraud FraudResult, confidence float64) verdict {
	p := e.policy
	total := c.TotalAmount
	approved := analysis.TotalApproved

	if stop, ok := lo.Find(critical, func(i Issue) bool { _, hard := hardStops[i.Code]; return hard }); ok {
		return verdict{decision: DecisionRejected, reason: stop.Message, nextSteps: hardStops[stop.Code]}
	}

	var review []string
	if fraud.Score > p.FraudThreshold() {
		review = append(review, "High fraud risk detected")
	}
	if total > p.HighValueThreshold() {
		review = append(review, fmt.Sprintf("High-value claim (%s > %s)", rupees(total), rupees(p.HighValueThreshold())))
	}
	if confidence < p.ConfidenceThreshold() {
		review = append(review, fmt.Sprintf("Low confidence score (%.0f%%)", confidence*100))
	}
	if lo.ContainsBy(fraud.Indicators, func(i FraudIndicator) bool {
		return i.Type == IndicatorDocumentModified || i.Type == IndicatorUnusualPattern
	}) {
		review = append(review, "Suspicious patterns detected")
	}
	if len(review) > 0 {
		return verdict{
			decision:  DecisionManualReview,
			approved:  approved,
			reason:    "Requires manual review: " + strings.Join(review, "; "),
			nextSteps: "Your claim has been escalated for manual review. Our team will contact you within 3-5 business days.",
		}
	}

	if hasCode(critical, CodeMissingDocumentType, CodeMissingRequiredField) {
		return verdict{
			decision:  DecisionRejected,
			reason:    "Essential documents or information missing",
			nextSteps: "Please upload all required documents and ensure patient details are complete.",
		}
	}

	if approved == 0 && total > 0 {
		return verdict{
			decision:  DecisionRejected,
			reason:    "No items covered under policy",
			nextSteps: "The services claimed are not covered under your policy. Please review your coverage details.",
		}
	}

	var partial []string
	if analysis.TotalRejected > 0 {
		partial = append(partial, rupees(analysis.TotalRejected)+" not covered")
	}
	if analysis.TotalCopay > 0 {
		partial = append(partial, rupees(analysis.TotalCopay)+" co-payment applies")
	}
	if lo.ContainsBy(analysis.Items, func(i ItemAnalysis) bool { return i.SubLimitExceeded }) {
		partial = append(partial, "Some items exceed sub-limits")
	}
	var capped float64
	if limit := p.CoverageDetails.PerClaimLimit; hasCode(critical, CodeAnnualLimitExceeded, CodePerClaimExceeded) && limit > 0 && approved > limit {
		capped = approved - limit
		approved = limit
		partial = append(partial, fmt.Sprintf("Approved up to per-claim limit (%s)", rupees(limit)))
	}

	switch {
	case len(partial) > 0 && approved > 0:
		owed := analysis.TotalCopay + analysis.TotalRejected + capped
		return verdict{
			decision:   DecisionPartial,
			approved:   approved,
			capApplied: capped,
			reason:     "Partially approved: " + strings.Join(partial, "; "),
			nextSteps: fmt.Sprintf("Approved amount: %s. Patient responsibility: %s. Payment will be processed within 7-10 business days.",
				rupees(approved), rupees(owed)),
		}
	case approved > 0:
		return verdict{
			decision:  DecisionApproved,
			approved:  approved,
			reason:    "Claim fully approved as per policy coverage",
			nextSteps: fmt.Sprintf("Your claim of %s has been approved. Payment will be processed within 7-10 business days.", rupees(approved)),
		}
	default:
		return verdict{
			decision:  DecisionRejected,
			reason:    "Unable to process claim",
			nextSteps: "Please contact customer support for assistance with your claim.",
		}
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func (e *Engine) output(c *Claim, v verdict, critical, warnings []Issue, confidence float64, analysis CoverageAnalysis, fraud FraudResult) *Decision {
	reasons := []string{}
	if v.decision == DecisionRejected {
		reasons = lo.Uniq(lo.Map(critical, func(i Issue, _ int) string { return i.Code }))
	}

	items := finalizeItems(analysis.Items, v.decision, v.reason, v.capApplied)
	copay := lo.SumBy(items, func(i ItemAnalysis) float64 { return i.CopayAmount })
	rejected := lo.SumBy(items, func(i ItemAnalysis) float64 { return i.RejectedAmount })

	notes := lo.Map(lo.Slice(warnings, 0, 3), func(w Issue, _ int) string { return w.Message })
	if len(fraud.Indicators) > 0 {
		notes = append(notes, fmt.Sprintf("Fraud score: %d indicators detected", len(fraud.Indicators)))
	}
	note := "No additional observations"
	if len(notes) > 0 {
		note = strings.Join(notes, "; ")
	}

	return &Decision{
		ClaimID:          orNA(c.ClaimID),
		Decision:         v.decision,
		ApprovedAmount:   round2(v.approved),
		RejectionReasons: reasons,
		ConfidenceScore:  round2(confidence),
		FraudScore:       round2(fraud.Score),
		Notes:            note,
		NextSteps:        v.nextSteps,
		Reasoning:        e.reasoning(c, v, critical, analysis, fraud, confidence),
		PatientName:      orNA(c.PatientName),
		EmployeeID:       orNA(c.EmployeeID),
		Reason:           v.reason,
		TotalClaimed:     round2(c.TotalAmount),
		Deductions: Deductions{
			Copay:         round2(copay),
			RejectedItems: round2(rejected),
		},
		PatientPayable:   round2(rejected + copay + v.capApplied),
		InsurancePayable: round2(v.approved),
		CriticalIssues:   critical,
		Warnings:         warnings,
		ItemBreakdown:    items,
		FraudIndicators:  fraud.Indicators,
		AdjudicationDate: e.now().Format("2006-01-02 15:04:05"),
		PolicyID:         orNA(lo.Ternary(c.PolicyID != "", c.PolicyID, e.policy.PolicyID)),
	}
}

// finalizeItems restates each item under the claim-level decision.
// finalizeItems sets each item's final status and payable amount. A
// per-claim cap is taken off the final amounts from the last item backwards,
// so they always sum to the approved total.
func finalizeItems(items []ItemAnalysis, decision, reason string, capped float64) []ItemAnalysis {
	out := make([]ItemAnalysis, 0, len(items))
	for _, item := range items {
		switch decision {
		case DecisionRejected:
			eligible := false
			item.Status = ItemRejected
			item.ApprovedAmount = 0
			item.CopayAmount = 0
			item.RejectedAmount = item.ClaimedAmount
			item.FinalStatus = ItemRejected
			item.FinalApprovedAmount = 0
			item.FinalReason = "Claim rejected: " + reason
			item.CoverageEligible = &eligible
			item.CoverageNote = "Not payable due to claim-level rejection"
		case DecisionManualReview:
			eligible := item.Status == ItemApproved
			item.FinalStatus = ItemPendingReview
			item.FinalApprovedAmount = 0
			item.FinalReason = "Awaiting manual review"
			item.CoverageEligible = &eligible
			item.CoverageNote = item.Reason
		default:
			item.FinalStatus = item.Status
			item.FinalApprovedAmount = item.ApprovedAmount
			item.FinalReason = item.Reason
		}
		item.ClaimedAmount = round2(item.ClaimedAmount)
		item.ApprovedAmount = round2(item.ApprovedAmount)
		item.RejectedAmount = round2(item.RejectedAmount)
		item.CopayAmount = round2(item.CopayAmount)
		out = append(out, item)
	}
	for i := len(out) - 1; i >= 0 && capped > 0; i-- {
		cut := math.Min(capped, out[i].FinalApprovedAmount)
		if cut <= 0 {
			continue
		}
		out[i].FinalApprovedAmount -= cut
		out[i].FinalReason = fmt.Sprintf("%s; reduced by %s to the per-claim limit", out[i].FinalReason, rupees(cut))
		capped -= cut
	}
	for i := range out {
		out[i].FinalApprovedAmount = round2(out[i].FinalApprovedAmount)
	}
	return out
}

func (e *Engine) reasoning(c *Claim, v verdict, critical []Issue, analysis CoverageAnalysis, fraud FraudResult, confidence float64) Reasoning {
	p := e.policy
	r := Reasoning{DecisionFactors: []Factor{}}

	switch v.decision {
	case DecisionRejected:
		r.Summary = fmt.Sprintf("Claim REJECTED due to %d critical issue(s) that prevent approval.", len(critical))
		var order []string
		grouped := map[string][]string{}
		for _, issue := range critical {
			if _, seen := grouped[issue.Code]; !seen {
				order = append(order, issue.Code)
			}
			grouped[issue.Code] = append(grouped[issue.Code], issue.Message)
		}
		for _, code := range order {
			r.DecisionFactors = append(r.DecisionFactors, Factor{
				Type:        code,
				Impact:      "blocking",
				Description: explainIssue(code),
				Details:     grouped[code],
			})
		}
		if len(critical) == 0 {
			r.Summary = "Claim REJECTED: " + v.reason + "."
		}
		r.Recommendation = "Address all critical issues listed above and resubmit the claim."

	case DecisionManualReview:
		r.Summary = "Claim requires human review due to complexity or risk factors."
		if confidence < p.ConfidenceThreshold() {
			r.DecisionFactors = append(r.DecisionFactors, Factor{
				Type:        "LOW_CONFIDENCE",
				Impact:      "review_required",
				Description: fmt.Sprintf("System confidence (%.0f%%) is below threshold (%.0f%%)", confidence*100, p.ConfidenceThreshold()*100),
				Details:     []string{"Incomplete information or data quality issues detected"},
			})
		}
		if c.TotalAmount > p.HighValueThreshold() {
			r.DecisionFactors = append(r.DecisionFactors, Factor{
				Type:        "HIGH_VALUE",
				Impact:      "review_required",
				Description: fmt.Sprintf("High-value claim (%s) requires manual verification", rupees(c.TotalAmount)),
				Details:     []string{fmt.Sprintf("Claims above %s are automatically escalated", rupees(p.HighValueThreshold()))},
			})
		}
		if len(fraud.Indicators) > 0 {
			r.DecisionFactors = append(r.DecisionFactors, Factor{
				Type:        "FRAUD_INDICATORS",
				Impact:      "review_required",
				Description: "Potential fraud indicators detected",
				Details:     lo.Map(fraud.Indicators, func(i FraudIndicator, _ int) string { return i.Message }),
			})
		}
		r.Recommendation = "Claim will be reviewed by our team within 3-5 business days."

	case DecisionPartial:
		r.Summary = fmt.Sprintf("Claim PARTIALLY APPROVED. %s of %s will be reimbursed.", rupees(v.approved), rupees(c.TotalAmount))
		if analysis.TotalCopay > 0 {
			r.DecisionFactors = append(r.DecisionFactors, Factor{
				Type:        "COPAY_APPLIED",
				Impact:      "partial_deduction",
				Description: fmt.Sprintf("Co-payment of %s applies per policy terms", rupees(analysis.TotalCopay)),
				Details:     []string{"Co-pay percentages vary by service category"},
			})
		}
		if analysis.TotalRejected > 0 {
			r.DecisionFactors = append(r.DecisionFactors, Factor{
				Type:        "ITEMS_NOT_COVERED",
				Impact:      "partial_deduction",
				Description: fmt.Sprintf("%s not covered under policy", rupees(analysis.TotalRejected)),
				Details:     []string{"Some services/items are excluded or exceed limits"},
			})
		}
		if v.capApplied > 0 {
			r.DecisionFactors = append(r.DecisionFactors, Factor{
				Type:        "PER_CLAIM_LIMIT",
				Impact:      "partial_deduction",
				Description: fmt.Sprintf("%s above the per-claim limit is not payable", rupees(v.capApplied)),
				Details:     []string{fmt.Sprintf("Per-claim limit is %s", rupees(p.CoverageDetails.PerClaimLimit))},
			})
		}
		r.Recommendation = fmt.Sprintf("Patient is responsible for %s. Approved amount will be processed for payment.",
			rupees(analysis.TotalCopay+analysis.TotalRejected+v.capApplied))

	case DecisionApproved:
		r.Summary = fmt.Sprintf("Claim FULLY APPROVED. %s will be reimbursed.", rupees(v.approved))
		r.DecisionFactors = append(r.DecisionFactors, Factor{
			Type:        "ALL_VALIDATIONS_PASSED",
			Impact:      "approved",
			Description: "All eligibility, coverage, and validation checks passed",
			Details:     []string{"Policy active", "Services covered", "Within limits", "Medically necessary"},
		})
		r.Recommendation = "Payment will be processed within 7-10 business days."
	}

	status := func(failed bool) string {
		if failed {
			return "failed"
		}
		return "passed"
	}
	r.ValidationSteps = map[string]string{
		"eligibility": status(hasCode(critical, CodePolicyInactive, CodePolicyExpired, CodeWaitingPeriod, CodeMemberNotCovered)),
		"documents": status(lo.ContainsBy(critical, func(i Issue) bool {
			return strings.HasPrefix(i.Code, "MISSING_")
		})),
		"coverage":          status(hasCode(critical, CodeExcludedCondition, CodeServiceNotCovered, CodePreAuthMissing)),
		"limits":            status(hasCode(critical, CodeAnnualLimitExceeded, CodePerClaimExceeded, CodeBelowMinAmount, CodeLateSubmission)),
		"medical_necessity": status(hasCode(critical, CodeCosmeticProcedure, CodeExperimentalTreatment, CodeNotMedicallyNecessary)),
	}

	final := 0.0
	if v.decision == DecisionApproved || v.decision == DecisionPartial {
		final = v.approved
	}
	r.CoverageSummary = CoverageSummary{
		TotalClaimed:   round2(c.TotalAmount),
		EligibleAmount: round2(analysis.TotalApproved + analysis.TotalCopay),
		CopayDeduction: round2(analysis.TotalCopay),
		NotCovered:     round2(analysis.TotalRejected),
		FinalApproved:  round2(final),
	}
	return r
}
