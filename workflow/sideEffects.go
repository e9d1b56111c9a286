package workflow

import (
	"fmt"
	"strings"

	"github.com/edunexus/nexus_backend/models"
	"github.com/edunexus/nexus_backend/utils"
	"gorm.io/gorm"
)

// applySideEffects bundles the secondary writes with the transition, inside
// the same transaction: exactly one notification to the entity's primary
// stakeholder, plus any ledger awards the adapter declares. An error here
// rolls the whole transition back; approvalStatus never changes without its
// effects.
func applySideEffects(tx *gorm.DB, desc *EntityDescriptor, entity models.Reviewable, input TransitionInput, correlationId string) error {

	event := buildNotification(desc, entity, input, correlationId)
	if err := models.CreateNotificationEventTx(tx, &event); err != nil {
		return &utils.SideEffectError{Op: "notification", Err: err}
	}

	reason := awardReason(desc.Type, entity.ReviewableID(), input.Action)
	for _, award := range desc.Awards[input.Action] {
		if err := models.AppendScoreTx(tx, entity.StakeholderID(), award.Dimension, award.Delta, reason); err != nil {
			return &utils.SideEffectError{Op: "score ledger", Err: err}
		}
	}
	return nil
}

// buildNotification derives the event deterministically from the entity
// type and action. The only per-call variation is the optional free-text
// comments/reason appended to the message.
func buildNotification(desc *EntityDescriptor, entity models.Reviewable, input TransitionInput, correlationId string) models.NotificationEvent {

	name := entity.DisplayName()
	kind := entityKindLabel(desc.Type)

	var notificationType models.NotificationType
	var title, message string
	switch input.Action {
	case models.ApprovalActionApprove:
		notificationType = models.NotificationTypeEntityApproved
		title = fmt.Sprintf("%s approved", kind)
		message = fmt.Sprintf("Your %s %q has been approved.", strings.ToLower(kind), name)
	case models.ApprovalActionReject:
		notificationType = models.NotificationTypeEntityRejected
		title = fmt.Sprintf("%s rejected", kind)
		message = fmt.Sprintf("Your %s %q has been rejected. Reason: %s", strings.ToLower(kind), name, input.Reason)
	case models.ApprovalActionRequestChanges:
		notificationType = models.NotificationTypeEntityNeedsChanges
		title = fmt.Sprintf("%s needs changes", kind)
		message = fmt.Sprintf("Your %s %q needs changes before review can continue.", strings.ToLower(kind), name)
	case models.ApprovalActionStartReview:
		notificationType = models.NotificationTypeEntityUnderReview
		title = fmt.Sprintf("%s under review", kind)
		message = fmt.Sprintf("Your %s %q is now under review.", strings.ToLower(kind), name)
	case models.ApprovalActionResubmit:
		notificationType = models.NotificationTypeEntityResubmitted
		title = fmt.Sprintf("%s resubmitted", kind)
		message = fmt.Sprintf("Your %s %q has been resubmitted for review.", strings.ToLower(kind), name)
	}

	if input.Comments != "" {
		message = fmt.Sprintf("%s Comments: %s", message, input.Comments)
	}

	return models.NotificationEvent{
		TargetPrincipalId: entity.StakeholderID(),
		Type:              notificationType,
		Title:             title,
		Message:           message,
		Link:              entityLink(desc.Type, entity.ReviewableID()),
		PublishStatus:     models.OutboxPublishStatusPending,
		CorrelationId:     correlationId,
	}
}

func entityKindLabel(entityType models.EntityType) string {
	switch entityType {
	case models.EntityTypeJob:
		return "Job posting"
	case models.EntityTypeProject:
		return "Project"
	case models.EntityTypeUniversity:
		return "Accreditation request"
	case models.EntityTypeVerificationRequest:
		return "Verification request"
	case models.EntityTypeGovernanceProposal:
		return "Governance proposal"
	}
	return string(entityType)
}

func entityLink(entityType models.EntityType, id int) string {
	switch entityType {
	case models.EntityTypeJob:
		return fmt.Sprintf("/jobs/%d", id)
	case models.EntityTypeProject:
		return fmt.Sprintf("/projects/%d", id)
	case models.EntityTypeUniversity:
		return fmt.Sprintf("/universities/%d", id)
	case models.EntityTypeVerificationRequest:
		return fmt.Sprintf("/verifications/%d", id)
	case models.EntityTypeGovernanceProposal:
		return fmt.Sprintf("/proposals/%d", id)
	}
	return fmt.Sprintf("/review/%d", id)
}

func awardReason(entityType models.EntityType, entityId int, action models.ApprovalAction) string {
	return fmt.Sprintf("%s#%d %s", entityType, entityId, action)
}
