package adjudication

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Issue codes raised by the adjudication steps.
const (
	CodePolicyInactive        = "POLICY_INACTIVE"
	CodePolicyExpired         = "POLICY_EXPIRED"
	CodeWaitingPeriod         = "WAITING_PERIOD"
	CodeMemberNotCovered      = "MEMBER_NOT_COVERED"
	CodeMissingDocumentType   = "MISSING_DOCUMENT_TYPE"
	CodeMissingRequiredField  = "MISSING_REQUIRED_FIELD"
	CodeDoctorRegInvalid      = "DOCTOR_REG_INVALID"
	CodeDoctorRegMissing      = "DOCTOR_REG_MISSING"
	CodeDateMismatch          = "DATE_MISMATCH"
	CodeDateFormatError       = "DATE_FORMAT_ERROR"
	CodePatientNameIncomplete = "PATIENT_NAME_INCOMPLETE"
	CodeDoctorNameMissing     = "DOCTOR_NAME_MISSING"
	CodeHospitalNameMissing   = "HOSPITAL_NAME_MISSING"
	CodeExcludedCondition     = "EXCLUDED_CONDITION"
	CodeServiceNotCovered     = "SERVICE_NOT_COVERED"
	CodePreAuthMissing        = "PRE_AUTH_MISSING"
	CodeBelowMinAmount        = "BELOW_MIN_AMOUNT"
	CodePerClaimExceeded      = "PER_CLAIM_EXCEEDED"
	CodeAnnualLimitExceeded   = "ANNUAL_LIMIT_EXCEEDED"
	CodeSubLimitExceeded      = "SUB_LIMIT_EXCEEDED"
	CodeLateSubmission        = "LATE_SUBMISSION"
	CodeNotMedicallyNecessary = "NOT_MEDICALLY_NECESSARY"
	CodeCosmeticProcedure     = "COSMETIC_PROCEDURE"
	CodeExperimentalTreatment = "EXPERIMENTAL_TREATMENT"
	CodeMedicalReviewWarning  = "MEDICAL_REVIEW_WARNING"
)

// Step names as stored with each issue.
const (
	StepEligibility          = "basic_eligibility"
	StepDocumentValidation   = "document_validation"
	StepCoverageVerification = "coverage_verification"
	StepLimitValidation      = "limit_validation"
	StepMedicalNecessity     = "medical_necessity"
)

type Issue struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Step     string   `json:"step,omitempty"`
	Item     string   `json:"item,omitempty"`
}

// StepResult is the outcome of one adjudication step. Passed is false when
// the step raised at least one critical issue.
type StepResult struct {
	Step   string  `json:"step"`
	Passed bool    `json:"passed"`
	Issues []Issue `json:"issues"`
}

func newStep(name string) StepResult {
	return StepResult{Step: name, Passed: true, Issues: []Issue{}}
}

func (s *StepResult) add(code string, severity Severity, message, item string) {
	s.Issues = append(s.Issues, Issue{Code: code, Severity: severity, Message: message, Step: s.Step, Item: item})
	if severity == SeverityCritical {
		s.Passed = false
	}
}

func (s *StepResult) critical(code, message string) { s.add(code, SeverityCritical, message, "") }

func (s *StepResult) warning(code, message string) { s.add(code, SeverityWarning, message, "") }

var issueExplanations = map[string]string{
	CodePolicyInactive:        "The insurance policy was not active on the date of treatment",
	CodePolicyExpired:         "The insurance policy had expired before the treatment date",
	CodeWaitingPeriod:         "The treatment occurred during the policy waiting period",
	CodeMemberNotCovered:      "The patient is not listed as a covered member on this policy",
	CodeMissingDocumentType:   "Required supporting documents were not uploaded",
	CodeMissingRequiredField:  "Essential claim information is missing from the documents",
	CodeDateMismatch:          "Inconsistency detected between claim date and treatment date",
	CodeDoctorRegInvalid:      "Doctor's registration number could not be verified",
	CodeExcludedCondition:     "The treatment or condition is specifically excluded from coverage",
	CodeServiceNotCovered:     "This type of service is not included in the policy coverage",
	CodePreAuthMissing:        "Pre-authorization was required but not obtained",
	CodeAnnualLimitExceeded:   "The claim would exceed the annual coverage limit",
	CodePerClaimExceeded:      "The claim amount exceeds the per-claim limit",
	CodeBelowMinAmount:        "The claim amount is below the minimum threshold",
	CodeLateSubmission:        "The claim was submitted after the allowed submission window",
	CodeCosmeticProcedure:     "Cosmetic or elective procedures are not covered",
	CodeExperimentalTreatment: "Experimental or investigational treatments are not covered",
	CodeNotMedicallyNecessary: "The treatment was deemed not medically necessary",
}

func explainIssue(code string) string {
	if text, ok := issueExplanations[code]; ok {
		return text
	}
	return "Validation failed: " + code
}
