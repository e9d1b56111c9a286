package models

import (
	"context"
	"time"

	"github.com/edunexus/nexus_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScoreLedgerEntry records one reputation increment. Output only; the
// analytics side reads it, this core only appends.
type ScoreLedgerEntry struct {
	ID          int             `gorm:"primary_key" json:"id"`
	PrincipalId int             `gorm:"index;not null" json:"principal_id"`
	Dimension   ScoreDimension  `gorm:"size:30;not null" json:"dimension"`
	Delta       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"delta"`
	Reason      string          `gorm:"size:255;not null" json:"reason"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// ScoreSummary keeps the running total per (principal, dimension) so reads
// never have to fold the ledger. Updated in the same transaction as the
// ledger append.
type ScoreSummary struct {
	ID          int             `gorm:"primary_key" json:"id"`
	PrincipalId int             `gorm:"uniqueIndex:idx_score_dimension;not null" json:"principal_id"`
	Dimension   ScoreDimension  `gorm:"uniqueIndex:idx_score_dimension;size:30;not null" json:"dimension"`
	Total       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// AppendScoreTx appends one ledger entry and folds it into the summary,
// both inside the caller's transaction.
func AppendScoreTx(tx *gorm.DB, principalId int, dimension ScoreDimension, delta decimal.Decimal, reason string) error {

	entry := ScoreLedgerEntry{
		PrincipalId: principalId,
		Dimension:   dimension,
		Delta:       delta,
		Reason:      reason,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	summary := ScoreSummary{
		PrincipalId: principalId,
		Dimension:   dimension,
		Total:       delta,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "principal_id"}, {Name: "dimension"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total": gorm.Expr("total + ?", delta),
		}),
	}).Create(&summary).Error
}

// GetScoreSummary returns the running totals for a principal.
func GetScoreSummary(ctx context.Context, principalId int) ([]*ScoreSummary, error) {

	db := config.GetDB()
	var summaries []*ScoreSummary
	err := db.WithContext(ctx).
		Where("principal_id = ?", principalId).
		Order("dimension asc").
		Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}
