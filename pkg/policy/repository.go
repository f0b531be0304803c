package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("policy not found")

// Record is the persisted form of a policy. The full rule set lives in
// PolicyConfig; the other columns exist for querying.
type Record struct {
	PolicyID      string         `json:"policy_id" gorm:"primaryKey;column:policy_id"`
	PolicyName    string         `json:"policy_name" gorm:"column:policy_name"`
	EffectiveDate time.Time      `json:"effective_date" gorm:"column:effective_date;type:date"`
	PolicyConfig  datatypes.JSON `json:"policy_config" gorm:"column:policy_config"`
	ClaimsYTD     float64        `json:"claims_ytd" gorm:"column:claims_ytd;default:0"`
	CreatedAt     time.Time      `json:"created_at" gorm:"column:created_at"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"column:updated_at"`
}

func (Record) TableName() string {
	return "policies"
}

func (r *Record) Policy() (*Policy, error) {
	var p Policy
	if err := json.Unmarshal(r.PolicyConfig, &p); err != nil {
		return nil, fmt.Errorf("decoding policy_config for %s: %w", r.PolicyID, err)
	}
	return &p, nil
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Record{})
}

func (r *Repository) Get(ctx context.Context, policyID string) (*Record, error) {
	var rec Record
	result := r.db.WithContext(ctx).First(&rec, "policy_id = ?", policyID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, result.Error
}

// GetByNumber matches either the policy id or the policy_number stored in
// the policy document.
func (r *Repository) GetByNumber(ctx context.Context, number string) (*Record, error) {
	var rec Record
	result := r.db.WithContext(ctx).
		Where("policy_id = ? OR policy_config->>'policy_number' = ?", number, number).
		First(&rec)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, result.Error
}

func (r *Repository) Create(ctx context.Context, p *Policy) (*Record, error) {
	effective, err := p.EffectiveFrom()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding policy: %w", err)
	}
	rec := &Record{
		PolicyID:      p.PolicyID,
		PolicyName:    p.PolicyName,
		EffectiveDate: effective,
		PolicyConfig:  datatypes.JSON(raw),
		CreatedAt:     time.Now().UTC(),
	}
	rec.UpdatedAt = rec.CreatedAt
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *Repository) AddClaimsYTD(ctx context.Context, policyID string, amount float64) error {
	result := r.db.WithContext(ctx).Model(&Record{}).
		Where("policy_id = ?", policyID).
		Updates(map[string]interface{}{
			"claims_ytd": gorm.Expr("COALESCE(claims_ytd, 0) + ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
