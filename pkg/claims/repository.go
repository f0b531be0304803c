package claims

import (
	"context"
	"errors"
	"time"

	"github.com/claimwise/platform/pkg/adjudication"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("claim not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&Member{},
		&Claim{},
		&ClaimItem{},
		&AdjudicationIssue{},
		&FraudIndicator{},
		&AuditEntry{},
		&DocumentUpload{},
	)
}

func (r *Repository) GetMember(ctx context.Context, memberID string) (*Member, error) {
	var m Member
	result := r.db.WithContext(ctx).First(&m, "member_id = ?", memberID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &m, result.Error
}

func (r *Repository) GetMemberByEmployeeID(ctx context.Context, employeeID string) (*Member, error) {
	var m Member
	result := r.db.WithContext(ctx).First(&m, "employee_id = ?", employeeID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &m, result.Error
}

func (r *Repository) MemberExists(ctx context.Context, memberID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Member{}).Where("member_id = ?", memberID).Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateMember(ctx context.Context, m *Member) error {
	m.CreatedAt = time.Now().UTC()
	if m.Status == "" {
		m.Status = "active"
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *Repository) ClaimExists(ctx context.Context, claimID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Claim{}).Where("claim_id = ?", claimID).Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateClaim(ctx context.Context, c *Claim) error {
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	if c.Decision == "" {
		c.Decision = adjudication.DecisionPending
	}
	return r.db.WithContext(ctx).Omit("Items").Create(c).Error
}

func (r *Repository) CreateItems(ctx context.Context, items []ClaimItem) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range items {
		items[i].CreatedAt = now
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *Repository) CreateIssues(ctx context.Context, issues []AdjudicationIssue) error {
	if len(issues) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range issues {
		issues[i].CreatedAt = now
	}
	return r.db.WithContext(ctx).Create(&issues).Error
}

func (r *Repository) CreateFraudIndicators(ctx context.Context, indicators []FraudIndicator) error {
	if len(indicators) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range indicators {
		indicators[i].CreatedAt = now
	}
	return r.db.WithContext(ctx).Create(&indicators).Error
}

func (r *Repository) UpdateDecision(ctx context.Context, claimID string, d *adjudication.Decision) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&Claim{}).
		Where("claim_id = ?", claimID).
		Updates(map[string]interface{}{
			"decision":          d.Decision,
			"decision_reason":   d.Reason,
			"approved_amount":   d.ApprovedAmount,
			"rejected_amount":   d.Deductions.RejectedItems,
			"copay_amount":      d.Deductions.Copay,
			"patient_payable":   d.PatientPayable,
			"insurance_payable": d.InsurancePayable,
			"confidence_score":  d.ConfidenceScore,
			"fraud_score":       d.FraudScore,
			"adjudication_date": now,
			"updated_at":        now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) LogAudit(ctx context.Context, entry *AuditEntry) error {
	entry.CreatedAt = time.Now().UTC()
	if entry.PerformedBy == "" {
		entry.PerformedBy = "system"
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) CreateDocumentUpload(ctx context.Context, upload *DocumentUpload) error {
	upload.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(upload).Error
}

// GetClaim loads a claim with its items.
func (r *Repository) GetClaim(ctx context.Context, claimID string) (*Claim, error) {
	var c Claim
	result := r.db.WithContext(ctx).Preload("Items").First(&c, "claim_id = ?", claimID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &c, result.Error
}

func (r *Repository) ListIssues(ctx context.Context, claimID string) ([]AdjudicationIssue, error) {
	var issues []AdjudicationIssue
	err := r.db.WithContext(ctx).Where("claim_id = ?", claimID).Order("created_at, id").Find(&issues).Error
	return issues, err
}

func (r *Repository) ListFraudIndicators(ctx context.Context, claimID string) ([]FraudIndicator, error) {
	var out []FraudIndicator
	err := r.db.WithContext(ctx).Where("claim_id = ?", claimID).Order("id").Find(&out).Error
	return out, err
}

func (r *Repository) ListAudit(ctx context.Context, claimID string) ([]AuditEntry, error) {
	var entries []AuditEntry
	err := r.db.WithContext(ctx).Where("claim_id = ?", claimID).Order("created_at DESC, id DESC").Find(&entries).Error
	return entries, err
}

func (r *Repository) ListDocuments(ctx context.Context, claimID string) ([]DocumentUpload, error) {
	var docs []DocumentUpload
	err := r.db.WithContext(ctx).Where("claim_id = ?", claimID).Order("created_at").Find(&docs).Error
	return docs, err
}

// RecentClaims returns claims treated in the last days days, newest first.
func (r *Repository) RecentClaims(ctx context.Context, days, limit int) ([]Claim, error) {
	var out []Claim
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	err := r.db.WithContext(ctx).
		Where("treatment_date >= ?", cutoff.Format("2006-01-02")).
		Order("treatment_date DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *Repository) ClaimsByPolicy(ctx context.Context, policyID string, limit int) ([]Claim, error) {
	var out []Claim
	err := r.db.WithContext(ctx).
		Where("policy_id = ?", policyID).
		Order("treatment_date DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *Repository) Statistics(ctx context.Context, f StatisticsFilter) (*Statistics, error) {
	q := r.db.WithContext(ctx).Model(&Claim{}).Select(`
		COUNT(*) AS total_claims,
		COALESCE(SUM(CASE WHEN decision = 'APPROVED' THEN 1 ELSE 0 END), 0) AS approved_count,
		COALESCE(SUM(CASE WHEN decision = 'REJECTED' THEN 1 ELSE 0 END), 0) AS rejected_count,
		COALESCE(SUM(CASE WHEN decision = 'PARTIAL' THEN 1 ELSE 0 END), 0) AS partial_count,
		COALESCE(SUM(CASE WHEN decision = 'MANUAL_REVIEW' THEN 1 ELSE 0 END), 0) AS manual_review_count,
		COALESCE(SUM(total_claimed_amount), 0) AS total_claimed,
		COALESCE(SUM(approved_amount), 0) AS total_approved,
		COALESCE(AVG(confidence_score), 0) AS avg_confidence,
		COALESCE(AVG(fraud_score), 0) AS avg_fraud_score`)
	if f.PolicyID != "" {
		q = q.Where("policy_id = ?", f.PolicyID)
	}
	if f.From != nil {
		q = q.Where("treatment_date >= ?", f.From.Format("2006-01-02"))
	}
	if f.To != nil {
		q = q.Where("treatment_date <= ?", f.To.Format("2006-01-02"))
	}

	var stats Statistics
	if err := q.Scan(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

type categoryTotal struct {
	Category string  `gorm:"column:category"`
	Total    float64 `gorm:"column:total"`
}

// Utilization sums what a policy has paid on claims treated this calendar
// year, overall and per item category. Category usage counts the final,
// post-cap item amounts.
func (r *Repository) Utilization(ctx context.Context, policyID string) (*adjudication.Utilization, error) {
	now := time.Now().UTC()
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	yearEnd := time.Date(now.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	paid := []string{adjudication.DecisionApproved, adjudication.DecisionPartial}

	var totals struct {
		TotalApproved float64 `gorm:"column:total_approved"`
		TotalClaims   int64   `gorm:"column:total_claims"`
	}
	err := r.db.WithContext(ctx).Model(&Claim{}).
		Select("COALESCE(SUM(approved_amount), 0) AS total_approved, COUNT(*) AS total_claims").
		Where("policy_id = ? AND decision IN ? AND treatment_date >= ? AND treatment_date < ?", policyID, paid, yearStart, yearEnd).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	var categories []categoryTotal
	err = r.db.WithContext(ctx).Table("claim_items AS ci").
		Select("ci.category AS category, COALESCE(SUM(ci.final_approved_amount), 0) AS total").
		Joins("JOIN claims c ON c.claim_id = ci.claim_id").
		Where("c.policy_id = ? AND c.decision IN ? AND c.treatment_date >= ? AND c.treatment_date < ?", policyID, paid, yearStart, yearEnd).
		Group("ci.category").
		Scan(&categories).Error
	if err != nil {
		return nil, err
	}

	usage := make(map[string]float64, len(categories))
	for _, c := range categories {
		usage[c.Category] = c.Total
	}
	return &adjudication.Utilization{
		PolicyID:         policyID,
		TotalApprovedYTD: totals.TotalApproved,
		TotalClaims:      totals.TotalClaims,
		CategoryUsage:    usage,
	}, nil
}
