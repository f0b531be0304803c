package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// promptVersion is part of the extraction cache key. Bump it whenever the
// extraction prompts change.
const promptVersion = "v2"

const extractionBase = `Extract medical claim information from this document and return ONLY a JSON object.`

var focusByDocType = map[string]string{
	DocPrescription: `
Focus on extracting:
- Doctor details (name, registration, specialization)
- Diagnosis and symptoms
- Prescribed medicines with dosage
- Follow-up requirements
`,
	DocMedicalBill: `
Focus on extracting:
- Hospital/clinic details
- Consultation fees
- Itemized charges
- Total amount
- Tax and billing details
`,
	DocPharmacyBill: `
Focus on extracting:
- Pharmacy details
- Individual medicine items with batch numbers
- Quantities and prices
- Total amount
`,
	DocLabResults: `
Focus on extracting:
- Diagnostic center details
- Test names and results
- Reference ranges
- Pathologist details
`,
}

const extractionSchema = `
{
  "patient_name": "string",
  "patient_age": "number (if present)",
  "patient_gender": "string (Male/Female/Other if present)",
  "patient_dob": "YYYY-MM-DD (if present)",
  "employee_id": "string (if present)",
  "policy_number": "string (if present)",
  "treatment_date": "YYYY-MM-DD",
  "document_type": "medical_bill|prescription|diagnostic_report|consultation_note",
  "items": [
    {
      "description": "string (detailed description of service/medicine)",
      "category": "consultation|diagnostic|pharmacy|dental|vision|alternative_medicine",
      "amount": number,
      "quantity": number (if applicable),
      "unit_price": number (if applicable)
    }
  ],
  "total_amount": number,
  "hospital_name": "string (if present)",
  "hospital_registration": "string (if present)",
  "hospital_address": "string (if present)",
  "doctor_name": "string (if present)",
  "doctor_registration": "string (format: XX/123456/2020, if present)",
  "doctor_specialization": "string (if present)",
  "diagnosis": "string (primary diagnosis/reason for visit)",
  "diagnosis_code": "string (ICD code if present)",
  "symptoms": "string (patient symptoms if mentioned)",
  "prescription_details": "string (medicines prescribed with dosage)",
  "test_results": "string (diagnostic test results if present)",
  "treatment_summary": "string (summary of treatment provided)",
  "pre_authorization_number": "string (if present)",
  "emergency_treatment": "boolean (true if emergency case)",
  "follow_up_required": "boolean (if mentioned)",
  "billing_details": {
    "subtotal": number (if itemized),
    "tax": number (if present),
    "discount": number (if present)
  }
}

IMPORTANT INSTRUCTIONS:
- DO NOT include a "claim_id" field - the system will generate this
- Extract ALL line items separately with detailed descriptions
- Categorize each item correctly based on the service type
- Capture all medical information including diagnosis, symptoms, and treatment details
- If a field is not present in the document, omit it or set to null
- Ensure all amounts are numeric values (not strings)
- Return ONLY the JSON, no additional text or explanations`

func extractionPrompt(docType, text string) string {
	label := docType
	if label == "" {
		label = "unknown"
	}
	return extractionBase + focusByDocType[docType] + extractionSchema +
		"\n\nDocument Type: " + label + "\n\nDocument content:\n" + text
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not provided"
	}
	return s
}

func necessityPrompt(req NecessityRequest) string {
	items, _ := json.MarshalIndent(req.Items, "", "  ")
	return fmt.Sprintf(`You are a medical claim reviewer. Evaluate if the treatment was medically necessary based on the following claim information:

CLAIM DETAILS:
- Diagnosis: %s
- Symptoms: %s
- Treatment Summary: %s
- Patient Age: %s
- Patient Gender: %s
- Emergency Treatment: %t

TREATMENTS/SERVICES PROVIDED:
%s

PRESCRIPTION DETAILS:
%s

TEST RESULTS:
%s

Evaluate the following:
1. Does the diagnosis justify the treatments provided?
2. Are the prescribed medications appropriate for the diagnosis?
3. Are diagnostic tests relevant to the diagnosis?
4. Is the treatment following standard medical protocols?
5. Are there any red flags indicating unnecessary procedures?

Return ONLY a JSON object with this structure:
{
  "is_necessary": true/false,
  "reason": "Brief explanation of your assessment",
  "warnings": ["List of any concerns or warnings"],
  "confidence": 0.0-1.0
}`,
		orNotProvided(req.Diagnosis),
		orNotProvided(req.Symptoms),
		orNotProvided(req.TreatmentSummary),
		orNotProvided(req.PatientAge),
		orNotProvided(req.PatientGender),
		req.EmergencyTreatment,
		items,
		orNotProvided(req.PrescriptionDetails),
		orNotProvided(req.TestResults),
	)
}

func coveredTestPrompt(description string, coveredTests []string) string {
	return fmt.Sprintf(`Determine if the medical test description refers to one of the covered diagnostic tests.
Return only 'true' or 'false'.

Item: %q
Covered: [%s]
`, description, strings.Join(coveredTests, ", "))
}

// stripFences returns the body of the first fenced code block in s, or s
// itself when there is none.
func stripFences(s string) string {
	if _, after, ok := strings.Cut(s, "```json"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	if _, after, ok := strings.Cut(s, "```"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(s)
}
