package claims

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions besides the decision values.
const (
	AuditCreated = "CREATED"
	AuditError   = "ERROR"
)

type Member struct {
	MemberID     string     `json:"member_id" gorm:"primaryKey;column:member_id"`
	PolicyID     string     `json:"policy_id" gorm:"column:policy_id;index"`
	EmployeeID   string     `json:"employee_id,omitempty" gorm:"column:employee_id;index"`
	MemberName   string     `json:"member_name" gorm:"column:member_name"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty" gorm:"column:date_of_birth;type:date"`
	Gender       string     `json:"gender,omitempty" gorm:"column:gender"`
	Relationship string     `json:"relationship,omitempty" gorm:"column:relationship"`
	Status       string     `json:"status" gorm:"column:status;default:active"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at"`
}

func (Member) TableName() string {
	return "covered_members"
}

type Claim struct {
	ClaimID       string     `json:"claim_id" gorm:"primaryKey;column:claim_id"`
	PolicyID      string     `json:"policy_id,omitempty" gorm:"column:policy_id;index"`
	MemberID      string     `json:"member_id,omitempty" gorm:"column:member_id;index"`
	PatientName   string     `json:"patient_name" gorm:"column:patient_name"`
	PatientAge    string     `json:"patient_age,omitempty" gorm:"column:patient_age"`
	PatientGender string     `json:"patient_gender,omitempty" gorm:"column:patient_gender"`
	PatientDOB    string     `json:"patient_dob,omitempty" gorm:"column:patient_dob"`
	EmployeeID    string     `json:"employee_id,omitempty" gorm:"column:employee_id"`
	TreatmentDate *time.Time `json:"treatment_date,omitempty" gorm:"column:treatment_date;type:date;index"`
	ClaimDate     time.Time  `json:"claim_date" gorm:"column:claim_date;type:date"`

	DocumentTypes      datatypes.JSONSlice[string] `json:"document_types" gorm:"column:document_types"`
	TotalClaimedAmount float64                     `json:"total_claimed_amount" gorm:"column:total_claimed_amount"`

	Diagnosis              string `json:"diagnosis,omitempty" gorm:"column:diagnosis"`
	DiagnosisCode          string `json:"diagnosis_code,omitempty" gorm:"column:diagnosis_code"`
	Symptoms               string `json:"symptoms,omitempty" gorm:"column:symptoms"`
	TreatmentSummary       string `json:"treatment_summary,omitempty" gorm:"column:treatment_summary"`
	EmergencyTreatment     bool   `json:"emergency_treatment" gorm:"column:emergency_treatment"`
	FollowUpRequired       bool   `json:"follow_up_required" gorm:"column:follow_up_required"`
	HospitalName           string `json:"hospital_name,omitempty" gorm:"column:hospital_name"`
	HospitalRegistration   string `json:"hospital_registration,omitempty" gorm:"column:hospital_registration"`
	HospitalAddress        string `json:"hospital_address,omitempty" gorm:"column:hospital_address"`
	DoctorName             string `json:"doctor_name,omitempty" gorm:"column:doctor_name"`
	DoctorRegistration     string `json:"doctor_registration,omitempty" gorm:"column:doctor_registration"`
	DoctorSpecialization   string `json:"doctor_specialization,omitempty" gorm:"column:doctor_specialization"`
	PreAuthorizationNumber string `json:"pre_authorization_number,omitempty" gorm:"column:pre_authorization_number"`

	ExtractedData datatypes.JSON `json:"extracted_data,omitempty" gorm:"column:extracted_data"`

	Decision         string     `json:"decision" gorm:"column:decision;index"`
	DecisionReason   string     `json:"decision_reason,omitempty" gorm:"column:decision_reason"`
	ApprovedAmount   float64    `json:"approved_amount" gorm:"column:approved_amount"`
	RejectedAmount   float64    `json:"rejected_amount" gorm:"column:rejected_amount"`
	CopayAmount      float64    `json:"copay_amount" gorm:"column:copay_amount"`
	PatientPayable   float64    `json:"patient_payable" gorm:"column:patient_payable"`
	InsurancePayable float64    `json:"insurance_payable" gorm:"column:insurance_payable"`
	ConfidenceScore  float64    `json:"confidence_score" gorm:"column:confidence_score"`
	FraudScore       float64    `json:"fraud_score" gorm:"column:fraud_score"`
	AdjudicationDate *time.Time `json:"adjudication_date,omitempty" gorm:"column:adjudication_date"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`

	Items []ClaimItem `json:"items,omitempty" gorm:"foreignKey:ClaimID;references:ClaimID"`
}

func (Claim) TableName() string {
	return "claims"
}

type ClaimItem struct {
	ID             uint    `json:"id" gorm:"primaryKey;column:id"`
	ClaimID        string  `json:"claim_id" gorm:"column:claim_id;index"`
	Description    string  `json:"description" gorm:"column:description"`
	Category       string  `json:"category" gorm:"column:category"`
	SourceDocument string  `json:"source_document,omitempty" gorm:"column:source_document"`
	Quantity       float64 `json:"quantity" gorm:"column:quantity;default:1"`
	UnitPrice      float64 `json:"unit_price,omitempty" gorm:"column:unit_price"`
	ClaimedAmount  float64 `json:"claimed_amount" gorm:"column:claimed_amount"`
	ApprovedAmount float64 `json:"approved_amount" gorm:"column:approved_amount"`
	RejectedAmount float64 `json:"rejected_amount" gorm:"column:rejected_amount"`
	CopayAmount    float64 `json:"copay_amount" gorm:"column:copay_amount"`
	// FinalApproved is what the claim decision actually pays for the item,
	// after any per-claim cap.
	FinalApproved    float64   `json:"final_approved_amount" gorm:"column:final_approved_amount"`
	Status           string    `json:"status" gorm:"column:status"`
	CoverageReason   string    `json:"coverage_reason" gorm:"column:coverage_reason"`
	SubLimitExceeded bool      `json:"sub_limit_exceeded" gorm:"column:sub_limit_exceeded"`
	CreatedAt        time.Time `json:"created_at" gorm:"column:created_at"`
}

func (ClaimItem) TableName() string {
	return "claim_items"
}

type AdjudicationIssue struct {
	ID              uint      `json:"id" gorm:"primaryKey;column:id"`
	ClaimID         string    `json:"claim_id" gorm:"column:claim_id;index"`
	IssueCode       string    `json:"issue_code" gorm:"column:issue_code"`
	Severity        string    `json:"severity" gorm:"column:severity"`
	Message         string    `json:"message" gorm:"column:message"`
	Step            string    `json:"step,omitempty" gorm:"column:step"`
	ItemDescription string    `json:"item_description,omitempty" gorm:"column:item_description"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at"`
}

func (AdjudicationIssue) TableName() string {
	return "adjudication_issues"
}

type FraudIndicator struct {
	ID            uint      `json:"id" gorm:"primaryKey;column:id"`
	ClaimID       string    `json:"claim_id" gorm:"column:claim_id;index"`
	IndicatorType string    `json:"indicator_type" gorm:"column:indicator_type"`
	Severity      string    `json:"severity" gorm:"column:severity"`
	Message       string    `json:"message" gorm:"column:message"`
	Score         float64   `json:"score" gorm:"column:score"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at"`
}

func (FraudIndicator) TableName() string {
	return "fraud_indicators"
}

type AuditEntry struct {
	ID          uint              `json:"id" gorm:"primaryKey;column:id"`
	ClaimID     string            `json:"claim_id" gorm:"column:claim_id;index"`
	Action      string            `json:"action" gorm:"column:action"`
	PerformedBy string            `json:"performed_by" gorm:"column:performed_by;default:system"`
	Details     datatypes.JSONMap `json:"details" gorm:"column:details"`
	CreatedAt   time.Time         `json:"created_at" gorm:"column:created_at"`
}

func (AuditEntry) TableName() string {
	return "audit_log"
}

type DocumentUpload struct {
	ID           string    `json:"id" gorm:"primaryKey;column:id"`
	ClaimID      string    `json:"claim_id" gorm:"column:claim_id;index"`
	DocumentType string    `json:"document_type" gorm:"column:document_type"`
	FileName     string    `json:"file_name" gorm:"column:file_name"`
	FileType     string    `json:"file_type" gorm:"column:file_type"`
	FileSize     int64     `json:"file_size" gorm:"column:file_size"`
	FilePath     string    `json:"file_path" gorm:"column:file_path"`
	StorageURL   string    `json:"storage_url,omitempty" gorm:"column:storage_url"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
}

func (DocumentUpload) TableName() string {
	return "document_uploads"
}

// Statistics aggregates claim outcomes over a filter.
type Statistics struct {
	TotalClaims       int64   `json:"total_claims" gorm:"column:total_claims"`
	ApprovedCount     int64   `json:"approved_count" gorm:"column:approved_count"`
	RejectedCount     int64   `json:"rejected_count" gorm:"column:rejected_count"`
	PartialCount      int64   `json:"partial_count" gorm:"column:partial_count"`
	ManualReviewCount int64   `json:"manual_review_count" gorm:"column:manual_review_count"`
	TotalClaimed      float64 `json:"total_claimed" gorm:"column:total_claimed"`
	TotalApproved     float64 `json:"total_approved" gorm:"column:total_approved"`
	AvgConfidence     float64 `json:"avg_confidence" gorm:"column:avg_confidence"`
	AvgFraudScore     float64 `json:"avg_fraud_score" gorm:"column:avg_fraud_score"`
}

type StatisticsFilter struct {
	PolicyID string
	From     *time.Time
	To       *time.Time
}

// ClaimDetail is a claim with everything recorded while adjudicating it.
type ClaimDetail struct {
	Claim
	Issues    []AdjudicationIssue `json:"issues"`
	Fraud     []FraudIndicator    `json:"fraud_indicators"`
	Audit     []AuditEntry        `json:"audit_log"`
	Documents []DocumentUpload    `json:"documents"`
}
