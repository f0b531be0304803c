package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DateLayout = "2006-01-02"

// Policy is the insurer's rule set for one group policy. Zero values mean
// "not configured"; the accessor methods supply defaults.
type Policy struct {
	PolicyID             string               `json:"policy_id" yaml:"policy_id"`
	PolicyName           string               `json:"policy_name" yaml:"policy_name"`
	PolicyNumber         string               `json:"policy_number,omitempty" yaml:"policy_number,omitempty"`
	EffectiveDate        string               `json:"effective_date" yaml:"effective_date"`
	PolicyEndDate        string               `json:"policy_end_date,omitempty" yaml:"policy_end_date,omitempty"`
	WaitingPeriods       WaitingPeriods       `json:"waiting_periods" yaml:"waiting_periods"`
	CoverageDetails      CoverageDetails      `json:"coverage_details" yaml:"coverage_details"`
	Exclusions           []string             `json:"exclusions,omitempty" yaml:"exclusions,omitempty"`
	ClaimRequirements    ClaimRequirements    `json:"claim_requirements" yaml:"claim_requirements"`
	MedicalNecessityRule MedicalNecessityRule `json:"medical_necessity_rules" yaml:"medical_necessity_rules"`
	FraudDetection       FraudDetection       `json:"fraud_detection" yaml:"fraud_detection"`
	AdjudicationRules    AdjudicationRules    `json:"adjudication_rules" yaml:"adjudication_rules"`
}

type WaitingPeriods struct {
	InitialWaiting int `json:"initial_waiting" yaml:"initial_waiting"`
}

type CoverageDetails struct {
	AnnualLimit         float64  `json:"annual_limit,omitempty" yaml:"annual_limit,omitempty"`
	PerClaimLimit       float64  `json:"per_claim_limit,omitempty" yaml:"per_claim_limit,omitempty"`
	ConsultationFees    Coverage `json:"consultation_fees" yaml:"consultation_fees"`
	DiagnosticTests     Coverage `json:"diagnostic_tests" yaml:"diagnostic_tests"`
	Pharmacy            Coverage `json:"pharmacy" yaml:"pharmacy"`
	Dental              Coverage `json:"dental" yaml:"dental"`
	Vision              Coverage `json:"vision" yaml:"vision"`
	AlternativeMedicine Coverage `json:"alternative_medicine" yaml:"alternative_medicine"`
}

// Coverage is one coverage section. Only the fields relevant to the section
// are set in practice.
type Coverage struct {
	Covered                  bool     `json:"covered" yaml:"covered"`
	SubLimit                 float64  `json:"sub_limit,omitempty" yaml:"sub_limit,omitempty"`
	CopayPercentage          float64  `json:"copay_percentage,omitempty" yaml:"copay_percentage,omitempty"`
	BrandedDrugsCopay        float64  `json:"branded_drugs_copay,omitempty" yaml:"branded_drugs_copay,omitempty"`
	CoveredTests             []string `json:"covered_tests,omitempty" yaml:"covered_tests,omitempty"`
	ProceduresCovered        []string `json:"procedures_covered,omitempty" yaml:"procedures_covered,omitempty"`
	CoveredTreatments        []string `json:"covered_treatments,omitempty" yaml:"covered_treatments,omitempty"`
	PreAuthorizationRequired bool     `json:"pre_authorization_required,omitempty" yaml:"pre_authorization_required,omitempty"`
}

type ClaimRequirements struct {
	RequiredDocumentTypes    []string `json:"required_document_types,omitempty" yaml:"required_document_types,omitempty"`
	MinimumClaimAmount       float64  `json:"minimum_claim_amount,omitempty" yaml:"minimum_claim_amount,omitempty"`
	SubmissionTimelineDays   int      `json:"submission_timeline_days,omitempty" yaml:"submission_timeline_days,omitempty"`
	DoctorRegistrationFormat string   `json:"doctor_registration_format,omitempty" yaml:"doctor_registration_format,omitempty"`
}

type MedicalNecessityRule struct {
	CosmeticKeywords     []string `json:"cosmetic_keywords,omitempty" yaml:"cosmetic_keywords,omitempty"`
	ExperimentalKeywords []string `json:"experimental_keywords,omitempty" yaml:"experimental_keywords,omitempty"`
}

type FraudDetection struct {
	HighValueThreshold    float64  `json:"high_value_threshold,omitempty" yaml:"high_value_threshold,omitempty"`
	CriticalFields        []string `json:"critical_fields,omitempty" yaml:"critical_fields,omitempty"`
	ManualReviewThreshold float64  `json:"manual_review_threshold,omitempty" yaml:"manual_review_threshold,omitempty"`
	FraudThreshold        float64  `json:"fraud_threshold,omitempty" yaml:"fraud_threshold,omitempty"`
}

type AdjudicationRules struct {
	ConfidenceThreshold float64           `json:"confidence_threshold,omitempty" yaml:"confidence_threshold,omitempty"`
	ConfidenceWeights   ConfidenceWeights `json:"confidence_weights" yaml:"confidence_weights"`
}

type ConfidenceWeights struct {
	MissingFieldPenalty float64 `json:"missing_field_penalty,omitempty" yaml:"missing_field_penalty,omitempty"`
	WarningPenalty      float64 `json:"warning_penalty,omitempty" yaml:"warning_penalty,omitempty"`
	FraudImpact         float64 `json:"fraud_impact,omitempty" yaml:"fraud_impact,omitempty"`
}

// Load reads a policy from a .json, .yaml or .yml file.
func Load(path string) (*Policy, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading policy %s: %w", path, err)
	}
	return Parse(content, filepath.Ext(path))
}

func Parse(content []byte, ext string) (*Policy, error) {
	var p Policy
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &p); err != nil {
			return nil, fmt.Errorf("decoding policy yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(content, &p); err != nil {
			return nil, fmt.Errorf("decoding policy json: %w", err)
		}
	}
	if _, err := p.EffectiveFrom(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Policy) EffectiveFrom() (time.Time, error) {
	t, err := time.Parse(DateLayout, p.EffectiveDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("policy %s: invalid effective_date %q: %w", p.PolicyID, p.EffectiveDate, err)
	}
	return t, nil
}

// EndsOn returns the policy end date; ok is false for open-ended policies.
func (p *Policy) EndsOn() (end time.Time, ok bool, err error) {
	if p.PolicyEndDate == "" {
		return time.Time{}, false, nil
	}
	end, err = time.Parse(DateLayout, p.PolicyEndDate)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("policy %s: invalid policy_end_date %q: %w", p.PolicyID, p.PolicyEndDate, err)
	}
	return end, true, nil
}

// Section returns the coverage section for a coverage key such as
// "consultation_fees".
func (c CoverageDetails) Section(key string) (Coverage, bool) {
	switch key {
	case "consultation_fees":
		return c.ConsultationFees, true
	case "diagnostic_tests":
		return c.DiagnosticTests, true
	case "pharmacy":
		return c.Pharmacy, true
	case "dental":
		return c.Dental, true
	case "vision":
		return c.Vision, true
	case "alternative_medicine":
		return c.AlternativeMedicine, true
	default:
		return Coverage{}, false
	}
}

func (p *Policy) RequiredDocumentTypes() []string {
	if len(p.ClaimRequirements.RequiredDocumentTypes) > 0 {
		return p.ClaimRequirements.RequiredDocumentTypes
	}
	return []string{"prescription", "medical_bill"}
}

func (p *Policy) DoctorRegistrationPattern() string {
	if p.ClaimRequirements.DoctorRegistrationFormat != "" {
		return p.ClaimRequirements.DoctorRegistrationFormat
	}
	return `^[A-Z]{2}/\d+/\d{4}$`
}

func (p *Policy) CosmeticKeywords() []string {
	if len(p.MedicalNecessityRule.CosmeticKeywords) > 0 {
		return p.MedicalNecessityRule.CosmeticKeywords
	}
	return []string{"whitening", "bleaching", "cosmetic", "aesthetic", "beauty"}
}

func (p *Policy) ExperimentalKeywords() []string {
	if len(p.MedicalNecessityRule.ExperimentalKeywords) > 0 {
		return p.MedicalNecessityRule.ExperimentalKeywords
	}
	return []string{"experimental", "investigational", "trial", "unproven"}
}

func (p *Policy) HighValueThreshold() float64 {
	return orDefault(p.FraudDetection.HighValueThreshold, 25000)
}

func (p *Policy) CriticalFields() []string {
	if len(p.FraudDetection.CriticalFields) > 0 {
		return p.FraudDetection.CriticalFields
	}
	return []string{"doctor_registration", "hospital_name"}
}

func (p *Policy) ManualReviewThreshold() float64 {
	return orDefault(p.FraudDetection.ManualReviewThreshold, 0.5)
}

func (p *Policy) FraudThreshold() float64 {
	return orDefault(p.FraudDetection.FraudThreshold, 0.7)
}

func (p *Policy) ConfidenceThreshold() float64 {
	return orDefault(p.AdjudicationRules.ConfidenceThreshold, 0.7)
}

func (p *Policy) MissingFieldPenalty() float64 {
	return orDefault(p.AdjudicationRules.ConfidenceWeights.MissingFieldPenalty, 0.1)
}

func (p *Policy) WarningPenalty() float64 {
	return orDefault(p.AdjudicationRules.ConfidenceWeights.WarningPenalty, 0.05)
}

func (p *Policy) FraudImpact() float64 {
	return orDefault(p.AdjudicationRules.ConfidenceWeights.FraudImpact, 0.3)
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
