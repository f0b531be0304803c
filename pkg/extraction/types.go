package extraction

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Document types accepted by the claim endpoint.
const (
	DocPrescription = "prescription"
	DocMedicalBill  = "medical_bill"
	DocPharmacyBill = "pharmacy_bill"
	DocLabResults   = "lab_results"
)

// DocumentTypes lists the document types in merge order.
var DocumentTypes = []string{DocPrescription, DocMedicalBill, DocPharmacyBill, DocLabResults}

func IsDocumentType(docType string) bool {
	for _, t := range DocumentTypes {
		if t == docType {
			return true
		}
	}
	return false
}

// Amount is a rupee amount. Models sometimes answer with strings such as
// "₹1,200.00"; those decode to the numeric value and anything unparseable
// decodes to zero.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(parseAmount(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*a = 0
		return nil
	}
	*a = Amount(f)
	return nil
}

var (
	currencyMarker = regexp.MustCompile(`(?i)₹|\brs\.?|\binr\b`)
	amountToken    = regexp.MustCompile(`-?\s*(?:\d[\d,]*(?:\.\d+)?|\.\d+)`)
)

// parseAmount reads the first number in s. A minus sign before it, or an
// amount wrapped in parentheses, makes it negative.
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")

	token := amountToken.FindString(currencyMarker.ReplaceAllString(s, ""))
	if token == "" {
		return 0
	}
	if strings.HasPrefix(token, "-") {
		negative = true
	}
	digits := strings.NewReplacer("-", "", ",", "", " ", "", "\t", "").Replace(token)
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	if negative {
		return -f
	}
	return f
}

// Text accepts a JSON string, number or boolean and keeps its textual form.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	*t = Text(data)
	return nil
}

// Flag accepts true/false as booleans or strings.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.ToLower(string(bytes.TrimSpace(data))), `"`)
	*f = Flag(s == "true" || s == "yes" || s == "1")
	return nil
}

type Item struct {
	Description    string `json:"description"`
	Category       string `json:"category"`
	Amount         Amount `json:"amount"`
	Quantity       Amount `json:"quantity,omitempty"`
	UnitPrice      Amount `json:"unit_price,omitempty"`
	SourceDocument string `json:"source_document,omitempty"`
}

type BillingDetails struct {
	Subtotal Amount `json:"subtotal,omitempty"`
	Tax      Amount `json:"tax,omitempty"`
	Discount Amount `json:"discount,omitempty"`
}

// Document is the structured data read from one uploaded document.
type Document struct {
	PatientName            string          `json:"patient_name,omitempty"`
	PatientAge             Text            `json:"patient_age,omitempty"`
	PatientGender          string          `json:"patient_gender,omitempty"`
	PatientDOB             string          `json:"patient_dob,omitempty"`
	EmployeeID             Text            `json:"employee_id,omitempty"`
	PolicyNumber           Text            `json:"policy_number,omitempty"`
	TreatmentDate          string          `json:"treatment_date,omitempty"`
	DocumentType           string          `json:"document_type,omitempty"`
	Items                  []Item          `json:"items,omitempty"`
	TotalAmount            *Amount         `json:"total_amount,omitempty"`
	HospitalName           string          `json:"hospital_name,omitempty"`
	HospitalRegistration   Text            `json:"hospital_registration,omitempty"`
	HospitalAddress        string          `json:"hospital_address,omitempty"`
	DoctorName             string          `json:"doctor_name,omitempty"`
	DoctorRegistration     Text            `json:"doctor_registration,omitempty"`
	DoctorSpecialization   string          `json:"doctor_specialization,omitempty"`
	Diagnosis              string          `json:"diagnosis,omitempty"`
	DiagnosisCode          Text            `json:"diagnosis_code,omitempty"`
	Symptoms               string          `json:"symptoms,omitempty"`
	PrescriptionDetails    string          `json:"prescription_details,omitempty"`
	TestResults            string          `json:"test_results,omitempty"`
	TreatmentSummary       string          `json:"treatment_summary,omitempty"`
	PreAuthorizationNumber Text            `json:"pre_authorization_number,omitempty"`
	EmergencyTreatment     Flag            `json:"emergency_treatment,omitempty"`
	FollowUpRequired       Flag            `json:"follow_up_required,omitempty"`
	BillingDetails         *BillingDetails `json:"billing_details,omitempty"`
	ClaimDate              string          `json:"claim_date,omitempty"`
}

// Total returns the document total, zero when the document carries none.
func (d *Document) Total() float64 {
	if d.TotalAmount == nil {
		return 0
	}
	return float64(*d.TotalAmount)
}

// NecessityRequest carries the clinical context of a claim for review.
type NecessityRequest struct {
	Diagnosis           string
	Symptoms            string
	TreatmentSummary    string
	PatientAge          string
	PatientGender       string
	EmergencyTreatment  bool
	Items               []Item
	PrescriptionDetails string
	TestResults         string
}

type NecessityAssessment struct {
	IsNecessary bool     `json:"is_necessary"`
	Reason      string   `json:"reason"`
	Warnings    []string `json:"warnings"`
	Confidence  float64  `json:"confidence"`
}
