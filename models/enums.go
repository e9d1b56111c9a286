package models

// GlobalRole is the platform-wide role carried by a verified principal.
// PlatformAdmin bypasses scope checks; callers check it explicitly so audit
// logs stay accurate about which authority applied.
type GlobalRole string

const (
	GlobalRolePlatformAdmin GlobalRole = "PlatformAdmin"
	GlobalRoleUser          GlobalRole = "User"
)

// ScopeKind names the organizational container a role is assigned within.
type ScopeKind string

const (
	ScopeKindOrganization ScopeKind = "Organization"
	ScopeKindProject      ScopeKind = "Project"
)

// Role is a scope-level role. Each scope kind uses its own subset with its
// own total order; comparing roles across scope kinds is undefined.
type Role string

const (
	RoleOwner       Role = "Owner"
	RoleAdmin       Role = "Admin"
	RoleModerator   Role = "Moderator"
	RoleRecruiter   Role = "Recruiter"
	RoleMaintainer  Role = "Maintainer"
	RoleContributor Role = "Contributor"
	RoleMember      Role = "Member"
	RoleViewer      Role = "Viewer"
)

// Capability is a named permission granted to a role by the policy table.
type Capability string

const (
	CapabilityApproveJob          Capability = "approve_job"
	CapabilityApproveProject      Capability = "approve_project"
	CapabilityApproveUniversity   Capability = "approve_university"
	CapabilityReviewVerification  Capability = "review_verification"
	CapabilityDecideProposal      Capability = "decide_proposal"
	CapabilityStartReview         Capability = "start_review"
	CapabilityRequestChanges      Capability = "request_changes"
	CapabilityResubmitEntity      Capability = "resubmit_entity"
	CapabilityManageMembers       Capability = "manage_members"
	CapabilityViewApprovalHistory Capability = "view_approval_history"
)

// EntityType identifies a reviewable entity kind.
type EntityType string

const (
	EntityTypeJob                 EntityType = "Job"
	EntityTypeProject             EntityType = "Project"
	EntityTypeUniversity          EntityType = "University"
	EntityTypeVerificationRequest EntityType = "VerificationRequest"
	EntityTypeGovernanceProposal  EntityType = "GovernanceProposal"
)

// ApprovalStatus is the review-outcome axis. Each entity type uses a subset.
type ApprovalStatus string

const (
	ApprovalStatusDraft          ApprovalStatus = "DRAFT"
	ApprovalStatusPending        ApprovalStatus = "PENDING"
	ApprovalStatusUnderReview    ApprovalStatus = "UNDER_REVIEW"
	ApprovalStatusRequireChanges ApprovalStatus = "REQUIRE_CHANGES"
	ApprovalStatusApproved       ApprovalStatus = "APPROVED"
	ApprovalStatusRejected       ApprovalStatus = "REJECTED"
)

// IsTerminal reports whether no further transition may leave this status.
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// ApprovalAction is a transition request against a reviewable entity.
type ApprovalAction string

const (
	ApprovalActionStartReview    ApprovalAction = "START_REVIEW"
	ApprovalActionApprove        ApprovalAction = "APPROVE"
	ApprovalActionReject         ApprovalAction = "REJECT"
	ApprovalActionRequestChanges ApprovalAction = "REQUEST_CHANGES"
	ApprovalActionResubmit       ApprovalAction = "RESUBMIT"
)

// JobStatus is the operational axis of a job posting, independent from its
// approval status.
type JobStatus string

const (
	JobStatusDraft  JobStatus = "Draft"
	JobStatusActive JobStatus = "Active"
	JobStatusClosed JobStatus = "Closed"
)

// ProjectStatus is the operational axis of a student project.
type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "Draft"
	ProjectStatusActive    ProjectStatus = "Active"
	ProjectStatusFunding   ProjectStatus = "Funding"
	ProjectStatusOnHold    ProjectStatus = "OnHold"
	ProjectStatusCancelled ProjectStatus = "Cancelled"
)

// NotificationType labels a notification event for the delivery system.
type NotificationType string

const (
	NotificationTypeEntityApproved       NotificationType = "ENTITY_APPROVED"
	NotificationTypeEntityRejected       NotificationType = "ENTITY_REJECTED"
	NotificationTypeEntityUnderReview    NotificationType = "ENTITY_UNDER_REVIEW"
	NotificationTypeEntityNeedsChanges   NotificationType = "ENTITY_NEEDS_CHANGES"
	NotificationTypeEntityResubmitted    NotificationType = "ENTITY_RESUBMITTED"
	NotificationTypeMembershipAssigned   NotificationType = "MEMBERSHIP_ASSIGNED"
	NotificationTypeMembershipRevoked    NotificationType = "MEMBERSHIP_REVOKED"
)

// ScoreDimension names a reputation-ledger dimension.
type ScoreDimension string

const (
	ScoreDimensionTotal         ScoreDimension = "total"
	ScoreDimensionInnovation    ScoreDimension = "innovation"
	ScoreDimensionExecution     ScoreDimension = "execution"
	ScoreDimensionCollaboration ScoreDimension = "collaboration"
)
