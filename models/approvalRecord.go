package models

import (
	"context"
	"time"

	"github.com/edunexus/nexus_backend/config"
	"github.com/edunexus/nexus_backend/utils"
	"gorm.io/gorm"
)

// ApprovalRecord is one immutable entry in the append-only decision log.
// Rows are only ever inserted; no code path updates or deletes them, and the
// full review history of an entity is reconstructable from this table alone.
type ApprovalRecord struct {
	ID              int            `gorm:"primary_key" json:"id"`
	EntityType      EntityType     `gorm:"size:30;index:idx_record_entity,priority:1;not null" json:"entity_type"`
	EntityId        int            `gorm:"index:idx_record_entity,priority:2;not null" json:"entity_id"`
	ActorId         int            `gorm:"index;not null" json:"actor_id"`
	ActorName       string         `gorm:"size:100" json:"actor_name"`
	Action          ApprovalAction `gorm:"size:20;not null" json:"action"`
	ResultingStatus ApprovalStatus `gorm:"size:20;not null" json:"resulting_status"`
	Comments        string         `gorm:"type:text" json:"comments"`
	CorrelationId   string         `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// AppendApprovalRecordTx inserts one record inside the transition's
// transaction so the decision and its log entry commit together.
func AppendApprovalRecordTx(tx *gorm.DB, record *ApprovalRecord) error {
	return tx.Create(record).Error
}

// ListApprovalRecords returns an entity's decision history, oldest first.
// The actor needs view_approval_history within the entity's scope unless
// they are a platform admin or the entity's stakeholder.
func ListApprovalRecords(ctx context.Context, actorId int, entity Reviewable) ([]*ApprovalRecord, error) {

	db := config.GetDB()
	actor, err := GetUserTx(db.WithContext(ctx), actorId)
	if err != nil {
		return nil, err
	}

	if !actor.IsPlatformAdmin() && actorId != entity.StakeholderID() {
		scopeId, scopeKind := entity.Scope()
		role, ok, err := ResolveEffectiveRole(ctx, actorId, scopeId, scopeKind)
		if err != nil {
			return nil, err
		}
		if !ok || !HasCapability(role, CapabilityViewApprovalHistory, scopeKind) {
			return nil, utils.ErrForbidden
		}
	}

	var records []*ApprovalRecord
	err = db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entity.ReviewableType(), entity.ReviewableID()).
		Order("id asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
