package adjudication

import (
	"context"
	"fmt"
	"time"

	"github.com/claimwise/platform/pkg/policy"
)

func parseDate(s string) (time.Time, error) {
	return time.Parse(policy.DateLayout, s)
}

// treatmentTime parses the treatment date, falling back to the claim date
// when the extracted treatment date is missing or malformed.
func treatmentTime(c *Claim) (time.Time, error) {
	if t, err := parseDate(c.TreatmentDate); err == nil {
		return t, nil
	}
	t, err := parseDate(c.ClaimDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("claim %s has no usable treatment or claim date", c.ClaimID)
	}
	return t, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// CheckEligibility verifies the policy was in force on the treatment date,
// the waiting period had passed and the member is known.
func (e *Engine) CheckEligibility(ctx context.Context, c *Claim) (StepResult, error) {
	step := newStep(StepEligibility)

	start, err := e.policy.EffectiveFrom()
	if err != nil {
		return step, err
	}
	treatment, err := treatmentTime(c)
	if err != nil {
		return step, err
	}

	if treatment.Before(start) {
		step.critical(CodePolicyInactive, fmt.Sprintf("Policy not active on treatment date %s", treatment.Format(policy.DateLayout)))
	}

	end, hasEnd, err := e.policy.EndsOn()
	if err != nil {
		return step, err
	}
	if hasEnd && treatment.After(end) {
		step.critical(CodePolicyExpired, "Policy expired before treatment date")
	}

	waiting := e.policy.WaitingPeriods.InitialWaiting
	if since := daysBetween(start, treatment); since < waiting {
		step.critical(CodeWaitingPeriod, fmt.Sprintf("Treatment during waiting period. %d days remaining", waiting-since))
	}

	if c.MemberID != "" && e.deps.Members != nil {
		ok, err := e.deps.Members.MemberExists(ctx, c.MemberID)
		if err != nil {
			return step, fmt.Errorf("looking up member %s: %w", c.MemberID, err)
		}
		if !ok {
			step.critical(CodeMemberNotCovered, fmt.Sprintf("Member %s not found in database", c.MemberID))
		}
	}

	return step, nil
}
