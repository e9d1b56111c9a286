package workflow

import (
	"github.com/edunexus/nexus_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payload field names an action may require.
const (
	FieldReason   = "reason"
	FieldComments = "comments"
)

// CascadeSpec declares column updates applied alongside a transition, e.g.
// flipping the independent operational-status field. The engine never infers
// these; they come from the adapter or not at all.
type CascadeSpec map[string]interface{}

type ScoreAward struct {
	Dimension models.ScoreDimension
	Delta     decimal.Decimal
}

// EntityDescriptor is the declarative, logic-free configuration that feeds
// the generic engine for one entity kind.
type EntityDescriptor struct {
	Type          models.EntityType
	Table         string
	InitialStatus models.ApprovalStatus

	// Transitions[current][action] = target. Absence means illegal.
	// Terminal states have no outgoing edges.
	Transitions map[models.ApprovalStatus]map[models.ApprovalAction]models.ApprovalStatus

	// Capability required per action, checked against the entity's scope.
	Capabilities map[models.ApprovalAction]models.Capability

	// Payload fields required per action.
	RequiredFields map[models.ApprovalAction][]string

	// Operational-status cascade per action.
	Cascades map[models.ApprovalAction]CascadeSpec

	// CascadeFor lets an adapter vary the cascade by entity state (e.g. a
	// funding-seeking project activates into Funding). Falls back to
	// Cascades when nil.
	CascadeFor func(entity models.Reviewable, action models.ApprovalAction) CascadeSpec

	// Fixed-magnitude ledger increments per action, granted to the
	// entity's stakeholder.
	Awards map[models.ApprovalAction][]ScoreAward

	// AllowPublishOnApprove permits the publish flag flip when the caller
	// asks for it on an approve transition.
	AllowPublishOnApprove bool

	Load func(tx *gorm.DB, id int) (models.Reviewable, error)
}

// reviewTransitions is the canonical graph shared by every adapter:
// PENDING and UNDER_REVIEW accept decisions, REQUIRE_CHANGES loops back to
// PENDING on resubmission, APPROVED and REJECTED are terminal.
func reviewTransitions() map[models.ApprovalStatus]map[models.ApprovalAction]models.ApprovalStatus {
	return map[models.ApprovalStatus]map[models.ApprovalAction]models.ApprovalStatus{
		models.ApprovalStatusPending: {
			models.ApprovalActionStartReview:    models.ApprovalStatusUnderReview,
			models.ApprovalActionApprove:        models.ApprovalStatusApproved,
			models.ApprovalActionReject:         models.ApprovalStatusRejected,
			models.ApprovalActionRequestChanges: models.ApprovalStatusRequireChanges,
		},
		models.ApprovalStatusUnderReview: {
			models.ApprovalActionApprove:        models.ApprovalStatusApproved,
			models.ApprovalActionReject:         models.ApprovalStatusRejected,
			models.ApprovalActionRequestChanges: models.ApprovalStatusRequireChanges,
		},
		models.ApprovalStatusRequireChanges: {
			models.ApprovalActionResubmit: models.ApprovalStatusPending,
		},
	}
}

func reviewRequiredFields() map[models.ApprovalAction][]string {
	return map[models.ApprovalAction][]string{
		models.ApprovalActionReject:         {FieldReason},
		models.ApprovalActionRequestChanges: {FieldComments},
	}
}

func decisionCapabilities(decide models.Capability) map[models.ApprovalAction]models.Capability {
	return map[models.ApprovalAction]models.Capability{
		models.ApprovalActionStartReview:    models.CapabilityStartReview,
		models.ApprovalActionApprove:        decide,
		models.ApprovalActionReject:         decide,
		models.ApprovalActionRequestChanges: models.CapabilityRequestChanges,
		models.ApprovalActionResubmit:       models.CapabilityResubmitEntity,
	}
}

var jobDescriptor = EntityDescriptor{
	Type:           models.EntityTypeJob,
	Table:          "jobs",
	InitialStatus:  models.ApprovalStatusPending,
	Transitions:    reviewTransitions(),
	Capabilities:   decisionCapabilities(models.CapabilityApproveJob),
	RequiredFields: reviewRequiredFields(),
	Cascades: map[models.ApprovalAction]CascadeSpec{
		models.ApprovalActionApprove: {"status": models.JobStatusActive},
		models.ApprovalActionReject:  {"status": models.JobStatusClosed},
	},
	Load: models.LoadJobTx,
}

var projectCascades = map[models.ApprovalAction]CascadeSpec{
	models.ApprovalActionApprove:        {"status": models.ProjectStatusActive},
	models.ApprovalActionReject:         {"status": models.ProjectStatusCancelled},
	models.ApprovalActionRequestChanges: {"status": models.ProjectStatusOnHold},
}

var projectDescriptor = EntityDescriptor{
	Type:           models.EntityTypeProject,
	Table:          "projects",
	InitialStatus:  models.ApprovalStatusPending,
	Transitions:    reviewTransitions(),
	Capabilities:   decisionCapabilities(models.CapabilityApproveProject),
	RequiredFields: reviewRequiredFields(),
	Cascades:       projectCascades,
	CascadeFor: func(entity models.Reviewable, action models.ApprovalAction) CascadeSpec {
		if action == models.ApprovalActionApprove {
			if project, ok := entity.(models.Project); ok && project.SeekingFunding {
				return CascadeSpec{"status": models.ProjectStatusFunding}
			}
			return CascadeSpec{"status": models.ProjectStatusActive}
		}
		return projectCascades[action]
	},
	Awards: map[models.ApprovalAction][]ScoreAward{
		models.ApprovalActionApprove: {
			{Dimension: models.ScoreDimensionTotal, Delta: decimal.NewFromInt(100)},
			{Dimension: models.ScoreDimensionInnovation, Delta: decimal.NewFromInt(10)},
			{Dimension: models.ScoreDimensionExecution, Delta: decimal.NewFromInt(10)},
			{Dimension: models.ScoreDimensionCollaboration, Delta: decimal.NewFromInt(10)},
		},
	},
	AllowPublishOnApprove: true,
	Load:                  models.LoadProjectTx,
}

var universityDescriptor = EntityDescriptor{
	Type:           models.EntityTypeUniversity,
	Table:          "universities",
	InitialStatus:  models.ApprovalStatusPending,
	Transitions:    reviewTransitions(),
	Capabilities:   decisionCapabilities(models.CapabilityApproveUniversity),
	RequiredFields: reviewRequiredFields(),
	Load:           models.LoadUniversityTx,
}

var verificationRequestDescriptor = EntityDescriptor{
	Type:           models.EntityTypeVerificationRequest,
	Table:          "verification_requests",
	InitialStatus:  models.ApprovalStatusPending,
	Transitions:    reviewTransitions(),
	Capabilities:   decisionCapabilities(models.CapabilityReviewVerification),
	RequiredFields: reviewRequiredFields(),
	Load:           models.LoadVerificationRequestTx,
}

var governanceProposalDescriptor = EntityDescriptor{
	Type:           models.EntityTypeGovernanceProposal,
	Table:          "governance_proposals",
	InitialStatus:  models.ApprovalStatusPending,
	Transitions:    reviewTransitions(),
	Capabilities:   decisionCapabilities(models.CapabilityDecideProposal),
	RequiredFields: reviewRequiredFields(),
	Load:           models.LoadGovernanceProposalTx,
}

var descriptors = map[models.EntityType]*EntityDescriptor{
	models.EntityTypeJob:                 &jobDescriptor,
	models.EntityTypeProject:             &projectDescriptor,
	models.EntityTypeUniversity:          &universityDescriptor,
	models.EntityTypeVerificationRequest: &verificationRequestDescriptor,
	models.EntityTypeGovernanceProposal:  &governanceProposalDescriptor,
}

func DescriptorFor(entityType models.EntityType) (*EntityDescriptor, bool) {
	d, ok := descriptors[entityType]
	return d, ok
}

func (d *EntityDescriptor) cascadeFor(entity models.Reviewable, action models.ApprovalAction) CascadeSpec {
	if d.CascadeFor != nil {
		return d.CascadeFor(entity, action)
	}
	return d.Cascades[action]
}
