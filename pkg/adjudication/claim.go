package adjudication

import (
	"strings"

	"github.com/claimwise/platform/pkg/extraction"
	"github.com/samber/lo"
)

// Claim is the merged view of every document submitted with a claim.
type Claim struct {
	ClaimID  string `json:"claim_id"`
	PolicyID string `json:"policy_id,omitempty"`
	MemberID string `json:"member_id,omitempty"`

	PatientName   string `json:"patient_name,omitempty"`
	PatientAge    string `json:"patient_age,omitempty"`
	PatientGender string `json:"patient_gender,omitempty"`
	PatientDOB    string `json:"patient_dob,omitempty"`
	EmployeeID    string `json:"employee_id,omitempty"`
	PolicyNumber  string `json:"policy_number,omitempty"`
	TreatmentDate string `json:"treatment_date,omitempty"`
	ClaimDate     string `json:"claim_date,omitempty"`

	// Items holds billable lines from medical and pharmacy bills.
	Items             []extraction.Item  `json:"items"`
	PrescriptionItems []extraction.Item  `json:"prescription_items,omitempty"`
	LabItems          []extraction.Item  `json:"lab_results_items,omitempty"`
	TotalAmount       float64            `json:"total_amount"`
	BillTotals        map[string]float64 `json:"bill_totals,omitempty"`

	HospitalName           string                     `json:"hospital_name,omitempty"`
	HospitalRegistration   string                     `json:"hospital_registration,omitempty"`
	HospitalAddress        string                     `json:"hospital_address,omitempty"`
	DoctorName             string                     `json:"doctor_name,omitempty"`
	DoctorRegistration     string                     `json:"doctor_registration,omitempty"`
	DoctorSpecialization   string                     `json:"doctor_specialization,omitempty"`
	Diagnosis              string                     `json:"diagnosis,omitempty"`
	DiagnosisCode          string                     `json:"diagnosis_code,omitempty"`
	Symptoms               string                     `json:"symptoms,omitempty"`
	PrescriptionDetails    string                     `json:"prescription_details,omitempty"`
	TestResults            string                     `json:"test_results,omitempty"`
	TreatmentSummary       string                     `json:"treatment_summary,omitempty"`
	PreAuthorizationNumber string                     `json:"pre_authorization_number,omitempty"`
	EmergencyTreatment     bool                       `json:"emergency_treatment"`
	FollowUpRequired       bool                       `json:"follow_up_required"`
	BillingDetails         *extraction.BillingDetails `json:"billing_details,omitempty"`

	DocumentTypes []string                        `json:"document_types_submitted"`
	Documents     map[string]*extraction.Document `json:"documents_data,omitempty"`
}

// Field returns a descriptive field by its snake_case name, "" when unknown.
func (c *Claim) Field(name string) string {
	switch name {
	case "patient_name":
		return c.PatientName
	case "patient_age":
		return c.PatientAge
	case "patient_gender":
		return c.PatientGender
	case "employee_id":
		return c.EmployeeID
	case "policy_number":
		return c.PolicyNumber
	case "treatment_date":
		return c.TreatmentDate
	case "hospital_name":
		return c.HospitalName
	case "hospital_registration":
		return c.HospitalRegistration
	case "hospital_address":
		return c.HospitalAddress
	case "doctor_name":
		return c.DoctorName
	case "doctor_registration":
		return c.DoctorRegistration
	case "doctor_specialization":
		return c.DoctorSpecialization
	case "diagnosis":
		return c.Diagnosis
	case "diagnosis_code":
		return c.DiagnosisCode
	case "pre_authorization_number":
		return c.PreAuthorizationNumber
	default:
		return ""
	}
}

// EffectiveTreatmentDate is the treatment date, or the claim date when the
// documents carry none.
func (c *Claim) EffectiveTreatmentDate() string {
	if c.TreatmentDate != "" {
		return c.TreatmentDate
	}
	return c.ClaimDate
}

func fillEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = strings.TrimSpace(v)
	}
}

func override(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Merge folds the data extracted from one document into the claim.
//
// Patient fields keep the first non-empty value. Only medical and pharmacy
// bills contribute billable items; prescription and lab lines are kept for
// reference. Each document type owns a set of fields it overrides: doctor and
// diagnosis details for prescriptions, hospital details for medical bills and
// test results for lab reports. The claim total is the sum of bill totals, or
// of billable items when no bill states a total.
func Merge(c *Claim, doc *extraction.Document, docType string) {
	if doc == nil {
		return
	}

	fillEmpty(&c.PatientName, doc.PatientName)
	fillEmpty(&c.PatientAge, string(doc.PatientAge))
	fillEmpty(&c.PatientGender, doc.PatientGender)
	fillEmpty(&c.PatientDOB, doc.PatientDOB)
	fillEmpty(&c.EmployeeID, string(doc.EmployeeID))
	fillEmpty(&c.PolicyNumber, string(doc.PolicyNumber))
	fillEmpty(&c.TreatmentDate, doc.TreatmentDate)
	fillEmpty(&c.ClaimDate, doc.ClaimDate)

	for _, item := range doc.Items {
		item.SourceDocument = docType
		switch docType {
		case extraction.DocPrescription:
			c.PrescriptionItems = append(c.PrescriptionItems, item)
		case extraction.DocLabResults:
			c.LabItems = append(c.LabItems, item)
		default:
			if item.Amount > 0 {
				c.Items = append(c.Items, item)
			}
		}
	}

	// Fields no document type owns are filled from whichever document has
	// them first.
	fillEmpty(&c.HospitalName, doc.HospitalName)
	fillEmpty(&c.HospitalRegistration, string(doc.HospitalRegistration))
	fillEmpty(&c.HospitalAddress, doc.HospitalAddress)
	fillEmpty(&c.DoctorName, doc.DoctorName)
	fillEmpty(&c.DoctorRegistration, string(doc.DoctorRegistration))
	fillEmpty(&c.DoctorSpecialization, doc.DoctorSpecialization)
	fillEmpty(&c.Diagnosis, doc.Diagnosis)
	fillEmpty(&c.DiagnosisCode, string(doc.DiagnosisCode))
	fillEmpty(&c.Symptoms, doc.Symptoms)
	fillEmpty(&c.TreatmentSummary, doc.TreatmentSummary)
	fillEmpty(&c.PreAuthorizationNumber, string(doc.PreAuthorizationNumber))
	fillEmpty(&c.PrescriptionDetails, doc.PrescriptionDetails)
	fillEmpty(&c.TestResults, doc.TestResults)
	c.EmergencyTreatment = c.EmergencyTreatment || bool(doc.EmergencyTreatment)
	c.FollowUpRequired = c.FollowUpRequired || bool(doc.FollowUpRequired)

	switch docType {
	case extraction.DocPrescription:
		override(&c.DoctorName, doc.DoctorName)
		override(&c.DoctorRegistration, string(doc.DoctorRegistration))
		override(&c.DoctorSpecialization, doc.DoctorSpecialization)
		override(&c.Diagnosis, doc.Diagnosis)
		override(&c.Symptoms, doc.Symptoms)
		override(&c.PrescriptionDetails, doc.PrescriptionDetails)
	case extraction.DocMedicalBill:
		override(&c.HospitalName, doc.HospitalName)
		override(&c.HospitalRegistration, string(doc.HospitalRegistration))
		override(&c.HospitalAddress, doc.HospitalAddress)
		if doc.BillingDetails != nil {
			c.BillingDetails = doc.BillingDetails
		}
	case extraction.DocLabResults:
		override(&c.TestResults, doc.TestResults)
	}

	if (docType == extraction.DocMedicalBill || docType == extraction.DocPharmacyBill) && doc.Total() > 0 {
		if c.BillTotals == nil {
			c.BillTotals = map[string]float64{}
		}
		c.BillTotals[docType] = doc.Total()
	}

	if len(c.BillTotals) > 0 {
		c.TotalAmount = lo.Sum(lo.Values(c.BillTotals))
	} else {
		c.TotalAmount = lo.SumBy(c.Items, func(item extraction.Item) float64 { return float64(item.Amount) })
	}

	if c.Documents == nil {
		c.Documents = map[string]*extraction.Document{}
	}
	c.Documents[docType] = doc
	if !lo.Contains(c.DocumentTypes, docType) {
		c.DocumentTypes = append(c.DocumentTypes, docType)
	}
}

// NecessityRequest extracts the clinical context used by the medical
// necessity review.
func (c *Claim) NecessityRequest() extraction.NecessityRequest {
	return extraction.NecessityRequest{
		Diagnosis:           c.Diagnosis,
		Symptoms:            c.Symptoms,
		TreatmentSummary:    c.TreatmentSummary,
		PatientAge:          c.PatientAge,
		PatientGender:       c.PatientGender,
		EmergencyTreatment:  c.EmergencyTreatment,
		Items:               c.Items,
		PrescriptionDetails: c.PrescriptionDetails,
		TestResults:         c.TestResults,
	}
}
