package adjudication

import (
	"context"
	"fmt"
	"time"

	"github.com/claimwise/platform/pkg/extraction"
	"github.com/claimwise/platform/pkg/policy"
	"github.com/claimwise/platform/pkg/terminology"
)

// MemberDirectory answers whether a member id is on record.
type MemberDirectory interface {
	MemberExists(ctx context.Context, memberID string) (bool, error)
}

// Utilization is what a policy has already paid out this year.
type Utilization struct {
	PolicyID         string             `json:"policy_id"`
	TotalApprovedYTD float64            `json:"total_approved_ytd"`
	TotalClaims      int64              `json:"total_claims"`
	CategoryUsage    map[string]float64 `json:"category_usage"`
}

type UtilizationSource interface {
	Utilization(ctx context.Context, policyID string) (*Utilization, error)
}

type NecessityReviewer interface {
	ReviewNecessity(ctx context.Context, req extraction.NecessityRequest) extraction.NecessityAssessment
}

type TestMatcher interface {
	MatchesCoveredTest(ctx context.Context, description string, coveredTests []string) bool
}

// Dependencies are the collaborators the engine consults. Nil members are
// skipped: no member check, zero utilization, no model review and
// substring-only test matching.
type Dependencies struct {
	Members     MemberDirectory
	Utilization UtilizationSource
	Reviewer    NecessityReviewer
	Matcher     TestMatcher
}

// Engine applies a policy to merged claims. It keeps no per-claim state and
// is safe for concurrent use.
type Engine struct {
	policy  *policy.Policy
	catalog terminology.Catalog
	deps    Dependencies
	now     func() time.Time
}

func NewEngine(p *policy.Policy, catalog terminology.Catalog, deps Dependencies) *Engine {
	return &Engine{policy: p, catalog: catalog, deps: deps, now: time.Now}
}

// ForPolicy returns an engine with the same collaborators applying p.
func (e *Engine) ForPolicy(p *policy.Policy) *Engine {
	clone := *e
	clone.policy = p
	return &clone
}

func (e *Engine) Policy() *policy.Policy {
	return e.policy
}

// Outcome holds every intermediate result alongside the decision so callers
// can persist them.
type Outcome struct {
	Steps    []StepResult     `json:"steps"`
	Analysis CoverageAnalysis `json:"coverage_analysis"`
	Fraud    FraudResult      `json:"fraud"`
	Decision *Decision        `json:"decision"`
}

// Issues returns the issues of every step in order.
func (o *Outcome) Issues() []Issue {
	var out []Issue
	for _, s := range o.Steps {
		out = append(out, s.Issues...)
	}
	return out
}

// Adjudicate runs the steps in order and decides the claim.
func (e *Engine) Adjudicate(ctx context.Context, c *Claim) (*Outcome, error) {
	eligibility, err := e.CheckEligibility(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("eligibility: %w", err)
	}
	documents := e.ValidateDocuments(c)
	coverage := e.VerifyCoverage(c)
	analysis := e.AnalyzeCoverage(ctx, c.Items)
	limits, err := e.ValidateLimits(ctx, c, analysis)
	if err != nil {
		return nil, fmt.Errorf("limits: %w", err)
	}
	necessity := e.ReviewMedicalNecessity(ctx, c)
	fraud := e.DetectFraud(c)

	steps := []StepResult{eligibility, documents, coverage, limits, necessity}
	decision := e.Decide(c, steps, analysis, fraud)

	return &Outcome{
		Steps:    steps,
		Analysis: analysis,
		Fraud:    fraud,
		Decision: decision,
	}, nil
}
