package models

// Static role -> capability policy, one table per scope kind. Every
// authorization decision in this codebase goes through CapabilitiesFor /
// HasCapability / HasAtLeast; there are no per-call-site role lists.
//
// Capability grants are NOT monotone in rank. resubmit_entity is a
// submitter-side capability (Recruiter/Member loop their own entity back to
// PENDING); Moderator is reviewer-side and deliberately does not hold it.
// Rank (HasAtLeast) only governs membership grants.

var organizationPolicy = map[Role][]Capability{
	RoleOwner: {
		CapabilityApproveJob, CapabilityApproveUniversity, CapabilityReviewVerification,
		CapabilityDecideProposal, CapabilityStartReview, CapabilityRequestChanges,
		CapabilityResubmitEntity, CapabilityManageMembers, CapabilityViewApprovalHistory,
	},
	RoleAdmin: {
		CapabilityApproveJob, CapabilityApproveUniversity, CapabilityReviewVerification,
		CapabilityDecideProposal, CapabilityStartReview, CapabilityRequestChanges,
		CapabilityResubmitEntity, CapabilityManageMembers, CapabilityViewApprovalHistory,
	},
	RoleModerator: {
		CapabilityStartReview, CapabilityRequestChanges, CapabilityReviewVerification,
		CapabilityViewApprovalHistory,
	},
	RoleRecruiter: {
		CapabilityResubmitEntity, CapabilityViewApprovalHistory,
	},
	RoleMember: {
		CapabilityResubmitEntity, CapabilityViewApprovalHistory,
	},
	RoleViewer: {
		CapabilityViewApprovalHistory,
	},
}

var projectPolicy = map[Role][]Capability{
	RoleOwner: {
		CapabilityApproveProject, CapabilityStartReview, CapabilityRequestChanges,
		CapabilityResubmitEntity, CapabilityManageMembers, CapabilityViewApprovalHistory,
	},
	RoleMaintainer: {
		CapabilityApproveProject, CapabilityStartReview, CapabilityRequestChanges,
		CapabilityResubmitEntity, CapabilityViewApprovalHistory,
	},
	RoleContributor: {
		CapabilityResubmitEntity, CapabilityViewApprovalHistory,
	},
	RoleMember: {
		CapabilityViewApprovalHistory,
	},
	RoleViewer: {
		CapabilityViewApprovalHistory,
	},
}

// Fixed total order per scope kind. Higher rank outranks lower; comparison
// across scope kinds is undefined and callers must not mix them.
var organizationRoleRank = map[Role]int{
	RoleOwner:     5,
	RoleAdmin:     4,
	RoleModerator: 3,
	RoleRecruiter: 2,
	RoleMember:    1,
	RoleViewer:    0,
}

var projectRoleRank = map[Role]int{
	RoleOwner:       4,
	RoleMaintainer:  3,
	RoleContributor: 2,
	RoleMember:      1,
	RoleViewer:      0,
}

func policyTable(scopeKind ScopeKind) map[Role][]Capability {
	switch scopeKind {
	case ScopeKindOrganization:
		return organizationPolicy
	case ScopeKindProject:
		return projectPolicy
	}
	return nil
}

func roleRank(scopeKind ScopeKind) map[Role]int {
	switch scopeKind {
	case ScopeKindOrganization:
		return organizationRoleRank
	case ScopeKindProject:
		return projectRoleRank
	}
	return nil
}

// MaximalRole returns the top of the scope kind's role order. It is what a
// scope's designated owner resolves to, membership rows or not. Unknown
// kinds yield the empty role, which holds no capabilities.
func MaximalRole(scopeKind ScopeKind) Role {
	ranks := roleRank(scopeKind)
	var top Role
	best := -1
	for role, rank := range ranks {
		if rank > best {
			best = rank
			top = role
		}
	}
	return top
}

// CapabilitiesFor returns the capability set granted to a role within a
// scope kind. Unknown roles and kinds yield the empty set: fail closed.
func CapabilitiesFor(role Role, scopeKind ScopeKind) map[Capability]bool {
	caps := make(map[Capability]bool)
	table := policyTable(scopeKind)
	if table == nil {
		return caps
	}
	for _, c := range table[role] {
		caps[c] = true
	}
	return caps
}

// HasCapability reports whether the role grants the capability within the
// scope kind. Pure and deterministic; no I/O.
func HasCapability(role Role, capability Capability, scopeKind ScopeKind) bool {
	table := policyTable(scopeKind)
	if table == nil {
		return false
	}
	for _, c := range table[role] {
		if c == capability {
			return true
		}
	}
	return false
}

// HasAtLeast reports whether role meets threshold (inclusive) on the scope
// kind's total order. Roles not defined for the kind compare as false.
func HasAtLeast(role Role, threshold Role, scopeKind ScopeKind) bool {
	ranks := roleRank(scopeKind)
	if ranks == nil {
		return false
	}
	r, ok := ranks[role]
	if !ok {
		return false
	}
	t, ok := ranks[threshold]
	if !ok {
		return false
	}
	return r >= t
}

// ValidRole reports whether the role participates in the scope kind's order.
func ValidRole(role Role, scopeKind ScopeKind) bool {
	ranks := roleRank(scopeKind)
	if ranks == nil {
		return false
	}
	_, ok := ranks[role]
	return ok
}
