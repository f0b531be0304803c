package ledger

import (
	"context"
	"time"

	"github.com/claimwise/platform/pkg/policy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry records that a claim's approved amount was added to its policy's
// year-to-date total.
type Entry struct {
	ClaimID   string    `json:"claim_id" gorm:"primaryKey;column:claim_id"`
	PolicyID  string    `json:"policy_id" gorm:"column:policy_id;index"`
	Amount    float64   `json:"amount" gorm:"column:amount"`
	Decision  string    `json:"decision" gorm:"column:decision"`
	AppliedAt time.Time `json:"applied_at" gorm:"column:applied_at"`
}

func (Entry) TableName() string {
	return "ledger_entries"
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Entry{})
}

// Apply adds the entry's amount to the policy once per claim. It reports
// false when the claim was already applied.
func (r *Repository) Apply(ctx context.Context, e Entry) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e.AppliedAt = time.Now().UTC()
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&e)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		if err := policy.NewRepository(tx).AddClaimsYTD(ctx, e.PolicyID, e.Amount); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}
