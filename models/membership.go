package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edunexus/nexus_backend/config"
	"github.com/edunexus/nexus_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrganizationalMembership assigns a scope-level role to a principal.
// One row per (principal, scope, kind); a re-assignment overwrites the row,
// so the latest assignment wins. Assignment history is not kept here --
// decision history lives in ApprovalRecord.
type OrganizationalMembership struct {
	ID          int       `gorm:"primary_key" json:"id"`
	PrincipalId int       `gorm:"uniqueIndex:idx_principal_scope;not null" json:"principal_id"`
	ScopeId     int       `gorm:"uniqueIndex:idx_principal_scope;not null" json:"scope_id"`
	ScopeKind   ScopeKind `gorm:"uniqueIndex:idx_principal_scope;size:20;not null" json:"scope_kind"`
	Role        Role      `gorm:"size:20;not null" json:"role"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMembership struct {
	PrincipalId int       `json:"principal_id" binding:"required"`
	ScopeId     int       `json:"scope_id" binding:"required"`
	ScopeKind   ScopeKind `json:"scope_kind" binding:"required"`
	Role        Role      `json:"role" binding:"required"`
}

/*
caches:
	Membership:$scopeKind:$scopeId:$principalId
*/

func membershipCacheKey(principalId int, scopeId int, scopeKind ScopeKind) string {
	return fmt.Sprintf("Membership:%s:%d:%d", scopeKind, scopeId, principalId)
}

func correlationIdOrEmpty(ctx context.Context) string {
	if v, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		return v
	}
	return ""
}

// ResolveEffectiveRole computes a principal's effective role within a scope.
// The scope's designated owner resolves to the kind's maximal role
// unconditionally; otherwise the current membership row decides. ok=false
// means no relationship exists -- absence is the caller's decision to treat
// as failure, never an error here.
func ResolveEffectiveRole(ctx context.Context, principalId int, scopeId int, scopeKind ScopeKind) (Role, bool, error) {

	var cached Role
	key := membershipCacheKey(principalId, scopeId, scopeKind)
	exists, err := config.GetRedisObject(key, &cached)
	if err != nil {
		return "", false, err
	}
	if exists {
		if cached == "" {
			return "", false, nil
		}
		return cached, true, nil
	}

	db := config.GetDB()
	role, ok, err := ResolveEffectiveRoleTx(db.WithContext(ctx), principalId, scopeId, scopeKind)
	if err != nil {
		return "", false, err
	}

	// Cache the outcome, including "no relationship", for the low-frequency
	// membership-edit workload. Invalidated on any assignment change.
	if err := config.SetRedisObject(key, role, 10*time.Minute); err != nil {
		return "", false, err
	}
	return role, ok, nil
}

// ResolveEffectiveRoleTx is the uncached resolver used inside transition
// transactions, so the audit trail reflects the transaction's own view.
func ResolveEffectiveRoleTx(tx *gorm.DB, principalId int, scopeId int, scopeKind ScopeKind) (Role, bool, error) {

	ownerId, err := scopeOwnerTx(tx, scopeId, scopeKind)
	if err != nil {
		return "", false, err
	}
	if ownerId == principalId {
		return MaximalRole(scopeKind), true, nil
	}

	var membership OrganizationalMembership
	err = tx.Where("principal_id = ? AND scope_id = ? AND scope_kind = ?",
		principalId, scopeId, scopeKind).Take(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return membership.Role, true, nil
}

// AssignMembership creates or replaces the (principal, scope) assignment.
// The actor needs manage_members within the scope (platform admins bypass)
// and cannot grant a role above their own.
func AssignMembership(ctx context.Context, actorId int, input *NewMembership) (*OrganizationalMembership, error) {

	if !ValidRole(input.Role, input.ScopeKind) {
		return nil, utils.NewValidationError("role", "role is not defined for this scope kind")
	}

	db := config.GetDB()
	actor, err := GetUserTx(db.WithContext(ctx), actorId)
	if err != nil {
		return nil, err
	}

	if !actor.IsPlatformAdmin() {
		actorRole, ok, err := ResolveEffectiveRoleTx(db.WithContext(ctx), actorId, input.ScopeId, input.ScopeKind)
		if err != nil {
			return nil, err
		}
		if !ok || !HasCapability(actorRole, CapabilityManageMembers, input.ScopeKind) {
			return nil, utils.ErrForbidden
		}
		if !HasAtLeast(actorRole, input.Role, input.ScopeKind) {
			return nil, utils.ErrForbidden
		}
	}

	if err := utils.ValidateResourceId[User](ctx, input.PrincipalId); err != nil {
		return nil, err
	}

	membership := OrganizationalMembership{
		PrincipalId: input.PrincipalId,
		ScopeId:     input.ScopeId,
		ScopeKind:   input.ScopeKind,
		Role:        input.Role,
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "principal_id"}, {Name: "scope_id"}, {Name: "scope_kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).Create(&membership).Error
		if err != nil {
			return err
		}
		return CreateNotificationEventTx(tx, &NotificationEvent{
			TargetPrincipalId: input.PrincipalId,
			Type:              NotificationTypeMembershipAssigned,
			Title:             "Role assigned",
			Message:           fmt.Sprintf("You are now %s of %s #%d.", input.Role, input.ScopeKind, input.ScopeId),
			PublishStatus:     OutboxPublishStatusPending,
			CorrelationId:     correlationIdOrEmpty(ctx),
		})
	})
	if err != nil {
		return nil, err
	}

	if err := config.RemoveRedisKey(membershipCacheKey(input.PrincipalId, input.ScopeId, input.ScopeKind)); err != nil {
		return nil, err
	}
	return &membership, nil
}

// RemoveMembership deletes the assignment. Same authorization as assigning.
func RemoveMembership(ctx context.Context, actorId int, principalId int, scopeId int, scopeKind ScopeKind) (bool, error) {

	db := config.GetDB()
	actor, err := GetUserTx(db.WithContext(ctx), actorId)
	if err != nil {
		return false, err
	}

	if !actor.IsPlatformAdmin() {
		actorRole, ok, err := ResolveEffectiveRoleTx(db.WithContext(ctx), actorId, scopeId, scopeKind)
		if err != nil {
			return false, err
		}
		if !ok || !HasCapability(actorRole, CapabilityManageMembers, scopeKind) {
			return false, utils.ErrForbidden
		}
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("principal_id = ? AND scope_id = ? AND scope_kind = ?", principalId, scopeId, scopeKind).
			Delete(&OrganizationalMembership{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return utils.ErrorRecordNotFound
		}
		return CreateNotificationEventTx(tx, &NotificationEvent{
			TargetPrincipalId: principalId,
			Type:              NotificationTypeMembershipRevoked,
			Title:             "Role revoked",
			Message:           fmt.Sprintf("Your role in %s #%d has been revoked.", scopeKind, scopeId),
			PublishStatus:     OutboxPublishStatusPending,
			CorrelationId:     correlationIdOrEmpty(ctx),
		})
	})
	if err != nil {
		return false, err
	}

	if err := config.RemoveRedisKey(membershipCacheKey(principalId, scopeId, scopeKind)); err != nil {
		return false, err
	}
	return true, nil
}
