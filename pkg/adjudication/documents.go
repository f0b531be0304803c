package adjudication

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/claimwise/platform/pkg/common/logger"
	"github.com/samber/lo"
)

const defaultRegistrationPattern = `^[A-Z]{2}/\d+/\d{4}$`

func normalizeDocType(t string) string {
	t = strings.ToLower(t)
	t = strings.ReplaceAll(t, "_", " ")
	return strings.ReplaceAll(t, "-", " ")
}

func displayDocType(t string) string {
	words := strings.Fields(strings.ReplaceAll(t, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// ValidateDocuments checks that the required document types were uploaded
// and that the essential fields were extracted. Everything else it finds is
// a warning.
func (e *Engine) ValidateDocuments(c *Claim) StepResult {
	step := newStep(StepDocumentValidation)

	submitted := lo.Map(c.DocumentTypes, func(t string, _ int) string { return normalizeDocType(t) })
	for _, required := range e.policy.RequiredDocumentTypes() {
		if !lo.Contains(submitted, normalizeDocType(required)) {
			step.critical(CodeMissingDocumentType, "Required document type not uploaded: "+displayDocType(required))
		}
	}

	essentials := []struct {
		display string
		missing bool
	}{
		{"Patient Name", strings.TrimSpace(c.PatientName) == ""},
		{"Treatment Date", c.TreatmentDate == ""},
		{"Total Amount", c.TotalAmount == 0},
		{"Line Items", len(c.Items) == 0},
	}
	for _, field := range essentials {
		if field.missing {
			step.critical(CodeMissingRequiredField, "Required field missing: "+field.display)
		}
	}

	if c.DoctorRegistration != "" {
		if !e.registrationPattern().MatchString(c.DoctorRegistration) {
			step.warning(CodeDoctorRegInvalid, "Invalid doctor registration format: "+c.DoctorRegistration)
		}
	} else {
		step.warning(CodeDoctorRegMissing, "Doctor registration number not found in documents")
	}

	if c.ClaimDate != "" && c.TreatmentDate != "" {
		claimed, errClaim := parseDate(c.ClaimDate)
		treated, errTreat := parseDate(c.TreatmentDate)
		switch {
		case errClaim != nil || errTreat != nil:
			step.warning(CodeDateFormatError, "Could not validate date consistency")
		case claimed.Before(treated):
			step.warning(CodeDateMismatch, fmt.Sprintf("Claim date (%s) is before treatment date (%s)", c.ClaimDate, c.TreatmentDate))
		}
	}

	if len(strings.TrimSpace(c.PatientName)) < 3 {
		step.warning(CodePatientNameIncomplete, "Patient name appears incomplete or invalid")
	}
	if c.DoctorName == "" {
		step.warning(CodeDoctorNameMissing, "Doctor name not found in documents")
	}
	if c.HospitalName == "" {
		step.warning(CodeHospitalNameMissing, "Hospital/clinic name not found in documents")
	}

	return step
}

func (e *Engine) registrationPattern() *regexp.Regexp {
	pattern := e.policy.DoctorRegistrationPattern()
	re, err := regexp.Compile(pattern)
	if err != nil {
		logger.Log.WithError(err).WithField("pattern", pattern).Warn("Invalid doctor registration pattern, using default")
		return regexp.MustCompile(defaultRegistrationPattern)
	}
	return re
}
