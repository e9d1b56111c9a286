package models

import (
	"context"
	"errors"
	"time"

	"github.com/edunexus/nexus_backend/config"
	"github.com/edunexus/nexus_backend/utils"
	"gorm.io/gorm"
)

// GovernanceProposal moves through the generic review pipeline like a
// verification request; heterogeneous review subjects share one engine.
type GovernanceProposal struct {
	ID              int            `gorm:"primary_key" json:"id"`
	OrganizationId  int            `gorm:"index;not null" json:"organization_id" binding:"required"`
	ProposedById    int            `gorm:"index;not null" json:"proposed_by_id"`
	Title           string         `gorm:"size:255;not null" json:"title" binding:"required"`
	Summary         string         `gorm:"type:text" json:"summary"`
	ApprovalStatus  ApprovalStatus `gorm:"size:20;not null;default:PENDING" json:"approval_status"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason"`
	ReviewComments  string         `gorm:"type:text" json:"review_comments"`
	ApprovedBy      *int           `json:"approved_by"`
	ApprovedAt      *time.Time     `json:"approved_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g GovernanceProposal) ReviewableID() int                     { return g.ID }
func (g GovernanceProposal) ReviewableType() EntityType            { return EntityTypeGovernanceProposal }
func (g GovernanceProposal) CurrentApprovalStatus() ApprovalStatus { return g.ApprovalStatus }
func (g GovernanceProposal) Scope() (int, ScopeKind) {
	return g.OrganizationId, ScopeKindOrganization
}
func (g GovernanceProposal) StakeholderID() int  { return g.ProposedById }
func (g GovernanceProposal) DisplayName() string { return g.Title }

type NewGovernanceProposal struct {
	OrganizationId int    `json:"organization_id" binding:"required"`
	Title          string `json:"title" binding:"required"`
	Summary        string `json:"summary"`
}

func CreateGovernanceProposal(ctx context.Context, input *NewGovernanceProposal) (*GovernanceProposal, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, utils.ErrUnauthorized
	}
	if err := utils.ValidateResourceId[Organization](ctx, input.OrganizationId); err != nil {
		return nil, err
	}

	proposal := GovernanceProposal{
		OrganizationId: input.OrganizationId,
		ProposedById:   userId,
		Title:          input.Title,
		Summary:        input.Summary,
		ApprovalStatus: ApprovalStatusPending,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&proposal).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

func LoadGovernanceProposalTx(tx *gorm.DB, id int) (Reviewable, error) {
	var proposal GovernanceProposal
	if err := tx.First(&proposal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return proposal, nil
}
