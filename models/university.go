package models

import (
	"context"
	"errors"
	"time"

	"github.com/edunexus/nexus_backend/config"
	"github.com/edunexus/nexus_backend/utils"
	"gorm.io/gorm"
)

// University is an accreditation submission reviewed within the submitting
// organization's scope. Accreditation has no operational cascade and no
// ledger effects; the approval status is the whole story.
type University struct {
	ID              int            `gorm:"primary_key" json:"id"`
	OrganizationId  int            `gorm:"index;not null" json:"organization_id" binding:"required"`
	SubmittedById   int            `gorm:"index;not null" json:"submitted_by_id"`
	Name            string         `gorm:"size:255;not null" json:"name" binding:"required"`
	Country         string         `gorm:"size:100" json:"country"`
	ApprovalStatus  ApprovalStatus `gorm:"size:20;not null;default:PENDING" json:"approval_status"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason"`
	ReviewComments  string         `gorm:"type:text" json:"review_comments"`
	ApprovedBy      *int           `json:"approved_by"`
	ApprovedAt      *time.Time     `json:"approved_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u University) ReviewableID() int                     { return u.ID }
func (u University) ReviewableType() EntityType            { return EntityTypeUniversity }
func (u University) CurrentApprovalStatus() ApprovalStatus { return u.ApprovalStatus }
func (u University) Scope() (int, ScopeKind)               { return u.OrganizationId, ScopeKindOrganization }
func (u University) StakeholderID() int                    { return u.SubmittedById }
func (u University) DisplayName() string                   { return u.Name }

type NewUniversity struct {
	OrganizationId int    `json:"organization_id" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Country        string `json:"country"`
}

func CreateUniversity(ctx context.Context, input *NewUniversity) (*University, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, utils.ErrUnauthorized
	}
	if err := utils.ValidateResourceId[Organization](ctx, input.OrganizationId); err != nil {
		return nil, err
	}

	university := University{
		OrganizationId: input.OrganizationId,
		SubmittedById:  userId,
		Name:           input.Name,
		Country:        input.Country,
		ApprovalStatus: ApprovalStatusPending,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&university).Error; err != nil {
		return nil, err
	}
	return &university, nil
}

func LoadUniversityTx(tx *gorm.DB, id int) (Reviewable, error) {
	var university University
	if err := tx.First(&university, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return university, nil
}
