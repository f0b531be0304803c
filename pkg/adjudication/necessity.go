package adjudication

import "context"

// ReviewMedicalNecessity rejects cosmetic and experimental items and, when a
// reviewer is configured, asks it whether the diagnosis justifies the
// treatment.
func (e *Engine) ReviewMedicalNecessity(ctx context.Context, c *Claim) StepResult {
	step := newStep(StepMedicalNecessity)

	if c.Diagnosis == "" {
		step.warning(CodeNotMedicallyNecessary, "No diagnosis provided to justify treatment")
	}

	cosmetic := e.policy.CosmeticKeywords()
	for _, item := range c.Items {
		if containsAnyFold(item.Description, cosmetic) {
			step.add(CodeCosmeticProcedure, SeverityCritical, "Cosmetic procedure not covered: "+item.Description, item.Description)
		}
	}

	experimental := e.policy.ExperimentalKeywords()
	for _, item := range c.Items {
		if containsAnyFold(item.Description, experimental) {
			step.add(CodeExperimentalTreatment, SeverityCritical, "Experimental treatment not covered: "+item.Description, item.Description)
		}
	}

	if c.Diagnosis != "" && len(c.Items) > 0 && e.deps.Reviewer != nil {
		assessment := e.deps.Reviewer.ReviewNecessity(ctx, c.NecessityRequest())
		if !assessment.IsNecessary {
			step.critical(CodeNotMedicallyNecessary, assessment.Reason)
		}
		for _, w := range assessment.Warnings {
			step.warning(CodeMedicalReviewWarning, w)
		}
	}

	return step
}
