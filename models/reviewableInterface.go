package models

// Reviewable is the generic shape the approval engine works against. Every
// entity kind that moves through the review pipeline implements it.
type Reviewable interface {
	ReviewableID() int
	ReviewableType() EntityType
	CurrentApprovalStatus() ApprovalStatus
	// Scope returns the organizational container the entity is reviewed
	// within; roles are resolved against it.
	Scope() (scopeId int, scopeKind ScopeKind)
	// StakeholderID is the principal notified of (and, where declared,
	// awarded for) decisions on this entity.
	StakeholderID() int
	DisplayName() string
}
