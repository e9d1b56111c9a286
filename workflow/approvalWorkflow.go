package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/edunexus/nexus_backend/config"
	"github.com/edunexus/nexus_backend/models"
	"github.com/edunexus/nexus_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransitionInput carries one transition request. ExpectedStatus is the
// optimistic-concurrency token: the transition only applies if the stored
// state still matches it.
type TransitionInput struct {
	EntityType     models.EntityType
	EntityId       int
	Action         models.ApprovalAction
	ActorId        int
	ExpectedStatus models.ApprovalStatus
	Reason         string
	Comments       string
	// PublishImmediately flips the publish flag on approve where the
	// adapter allows it; ignored otherwise.
	PublishImmediately bool
}

// Transition drives one entity through one step of its review lifecycle.
// Preconditions are checked in order and fail fast with no mutation:
// expected-state token (Conflict), legality from the current state
// (InvalidTransition), actor authority (Forbidden), payload (Validation).
// The state mutation, the ApprovalRecord append, the notification event and
// any ledger increments commit in one transaction; any failure, side effects
// included, rolls the whole transition back.
func Transition(ctx context.Context, input TransitionInput) (*models.ApprovalRecord, error) {

	logger := config.GetLogger()

	desc, ok := DescriptorFor(input.EntityType)
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}

	db := config.GetDB()
	var record *models.ApprovalRecord

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		actor, err := models.GetUserTx(tx, input.ActorId)
		if err != nil {
			return err
		}

		entity, err := desc.Load(tx, input.EntityId)
		if err != nil {
			return err
		}

		target, err := validateTransition(desc, entity.CurrentApprovalStatus(), input)
		if err != nil {
			return err
		}

		if err := authorize(tx, desc, entity, actor, input.Action); err != nil {
			return err
		}

		if err := validatePayload(desc, input); err != nil {
			return err
		}

		updates := buildUpdates(desc, entity, actor, input, target)

		// Optimistic concurrency: the guard re-checks the expected state at
		// write time. A row we just loaded that no longer matches was
		// decided by a concurrent actor.
		result := tx.Table(desc.Table).
			Where("id = ? AND approval_status = ?", input.EntityId, input.ExpectedStatus).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return utils.ErrConflict
		}

		record = &models.ApprovalRecord{
			EntityType:      input.EntityType,
			EntityId:        input.EntityId,
			ActorId:         actor.ID,
			ActorName:       actor.Name,
			Action:          input.Action,
			ResultingStatus: target,
			Comments:        input.Comments,
			CorrelationId:   correlationIdFromContextOrNew(ctx),
		}
		if err := models.AppendApprovalRecordTx(tx, record); err != nil {
			return err
		}

		if err := applySideEffects(tx, desc, entity, input, record.CorrelationId); err != nil {
			config.LogError(logger, "approvalWorkflow.go", "Transition", "applySideEffects", input, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// validateTransition checks the expected-state token and action legality.
// Pure; no I/O.
func validateTransition(desc *EntityDescriptor, current models.ApprovalStatus, input TransitionInput) (models.ApprovalStatus, error) {
	if input.ExpectedStatus != current {
		return "", utils.ErrConflict
	}
	if current.IsTerminal() {
		return "", utils.ErrInvalidTransition
	}
	actions, ok := desc.Transitions[current]
	if !ok {
		return "", utils.ErrInvalidTransition
	}
	target, ok := actions[input.Action]
	if !ok {
		return "", utils.ErrInvalidTransition
	}
	return target, nil
}

// authorize applies precondition (c): platform admins bypass scope checks;
// everyone else needs the action's capability via their effective role in
// the entity's scope. The bypass is explicit here, never folded into the
// resolver, so the audit trail reflects which authority applied.
func authorize(tx *gorm.DB, desc *EntityDescriptor, entity models.Reviewable, actor *models.User, action models.ApprovalAction) error {
	if actor.IsPlatformAdmin() {
		return nil
	}
	scopeId, scopeKind := entity.Scope()
	role, ok, err := models.ResolveEffectiveRoleTx(tx, actor.ID, scopeId, scopeKind)
	if err != nil {
		return err
	}
	if !ok {
		return utils.ErrForbidden
	}
	capability, declared := desc.Capabilities[action]
	if !declared || !models.HasCapability(role, capability, scopeKind) {
		return utils.ErrForbidden
	}
	return nil
}

// validatePayload applies precondition (d). Pure; no I/O.
func validatePayload(desc *EntityDescriptor, input TransitionInput) error {
	for _, field := range desc.RequiredFields[input.Action] {
		switch field {
		case FieldReason:
			if strings.TrimSpace(input.Reason) == "" {
				return utils.NewValidationError(FieldReason, "a reason is required")
			}
		case FieldComments:
			if strings.TrimSpace(input.Comments) == "" {
				return utils.NewValidationError(FieldComments, "comments are required")
			}
		}
	}
	return nil
}

// buildUpdates assembles the column set for this transition: the approval
// status, the descriptor-declared reviewer fields, and the adapter cascade.
func buildUpdates(desc *EntityDescriptor, entity models.Reviewable, actor *models.User, input TransitionInput, target models.ApprovalStatus) map[string]interface{} {

	updates := map[string]interface{}{
		"approval_status": target,
	}
	if input.Comments != "" {
		updates["review_comments"] = input.Comments
	}

	switch input.Action {
	case models.ApprovalActionApprove:
		now := time.Now().UTC()
		updates["approved_by"] = actor.ID
		updates["approved_at"] = now
		if desc.AllowPublishOnApprove && input.PublishImmediately {
			updates["published"] = true
		}
	case models.ApprovalActionReject:
		updates["rejection_reason"] = input.Reason
	}

	for column, value := range desc.cascadeFor(entity, input.Action) {
		updates[column] = value
	}
	return updates
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// Approve moves an entity to APPROVED, with the adapter's operational
// cascade and any declared ledger awards.
func Approve(ctx context.Context, entityType models.EntityType, entityId int, actorId int, expected models.ApprovalStatus, comments string, publishImmediately bool) (*models.ApprovalRecord, error) {
	return Transition(ctx, TransitionInput{
		EntityType:         entityType,
		EntityId:           entityId,
		Action:             models.ApprovalActionApprove,
		ActorId:            actorId,
		ExpectedStatus:     expected,
		Comments:           comments,
		PublishImmediately: publishImmediately,
	})
}

// Reject moves an entity to REJECTED. The reason is mandatory and surfaces
// verbatim to the submitter.
func Reject(ctx context.Context, entityType models.EntityType, entityId int, actorId int, expected models.ApprovalStatus, reason string, comments string) (*models.ApprovalRecord, error) {
	return Transition(ctx, TransitionInput{
		EntityType:     entityType,
		EntityId:       entityId,
		Action:         models.ApprovalActionReject,
		ActorId:        actorId,
		ExpectedStatus: expected,
		Reason:         reason,
		Comments:       comments,
	})
}

// RequestChanges parks an entity in REQUIRE_CHANGES until resubmission.
func RequestChanges(ctx context.Context, entityType models.EntityType, entityId int, actorId int, expected models.ApprovalStatus, comments string) (*models.ApprovalRecord, error) {
	return Transition(ctx, TransitionInput{
		EntityType:     entityType,
		EntityId:       entityId,
		Action:         models.ApprovalActionRequestChanges,
		ActorId:        actorId,
		ExpectedStatus: expected,
		Comments:       comments,
	})
}

// StartReview claims an entity for review (PENDING -> UNDER_REVIEW).
func StartReview(ctx context.Context, entityType models.EntityType, entityId int, actorId int, expected models.ApprovalStatus) (*models.ApprovalRecord, error) {
	return Transition(ctx, TransitionInput{
		EntityType:     entityType,
		EntityId:       entityId,
		Action:         models.ApprovalActionStartReview,
		ActorId:        actorId,
		ExpectedStatus: expected,
	})
}

// Resubmit loops a REQUIRE_CHANGES entity back to PENDING.
func Resubmit(ctx context.Context, entityType models.EntityType, entityId int, actorId int, expected models.ApprovalStatus, comments string) (*models.ApprovalRecord, error) {
	return Transition(ctx, TransitionInput{
		EntityType:     entityType,
		EntityId:       entityId,
		Action:         models.ApprovalActionResubmit,
		ActorId:        actorId,
		ExpectedStatus: expected,
		Comments:       comments,
	})
}
