package models

import (
	"context"
	"errors"
	"time"

	"github.com/edunexus/nexus_backend/config"
	"github.com/edunexus/nexus_backend/utils"
	"gorm.io/gorm"
)

// VerificationRequest asks for identity or credential verification of some
// subject. The generic review pipeline is reused verbatim: no cascade, no
// ledger effects.
type VerificationRequest struct {
	ID              int            `gorm:"primary_key" json:"id"`
	OrganizationId  int            `gorm:"index;not null" json:"organization_id" binding:"required"`
	RequestedById   int            `gorm:"index;not null" json:"requested_by_id"`
	SubjectType     string         `gorm:"size:50;not null" json:"subject_type" binding:"required"`
	SubjectId       int            `gorm:"not null" json:"subject_id" binding:"required"`
	Details         string         `gorm:"type:text" json:"details"`
	ApprovalStatus  ApprovalStatus `gorm:"size:20;not null;default:PENDING" json:"approval_status"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason"`
	ReviewComments  string         `gorm:"type:text" json:"review_comments"`
	ApprovedBy      *int           `json:"approved_by"`
	ApprovedAt      *time.Time     `json:"approved_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (v VerificationRequest) ReviewableID() int                     { return v.ID }
func (v VerificationRequest) ReviewableType() EntityType            { return EntityTypeVerificationRequest }
func (v VerificationRequest) CurrentApprovalStatus() ApprovalStatus { return v.ApprovalStatus }
func (v VerificationRequest) Scope() (int, ScopeKind) {
	return v.OrganizationId, ScopeKindOrganization
}
func (v VerificationRequest) StakeholderID() int  { return v.RequestedById }
func (v VerificationRequest) DisplayName() string { return v.SubjectType }

type NewVerificationRequest struct {
	OrganizationId int    `json:"organization_id" binding:"required"`
	SubjectType    string `json:"subject_type" binding:"required"`
	SubjectId      int    `json:"subject_id" binding:"required"`
	Details        string `json:"details"`
}

func CreateVerificationRequest(ctx context.Context, input *NewVerificationRequest) (*VerificationRequest, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, utils.ErrUnauthorized
	}
	if err := utils.ValidateResourceId[Organization](ctx, input.OrganizationId); err != nil {
		return nil, err
	}

	request := VerificationRequest{
		OrganizationId: input.OrganizationId,
		RequestedById:  userId,
		SubjectType:    input.SubjectType,
		SubjectId:      input.SubjectId,
		Details:        input.Details,
		ApprovalStatus: ApprovalStatusPending,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func LoadVerificationRequestTx(tx *gorm.DB, id int) (Reviewable, error) {
	var request VerificationRequest
	if err := tx.First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return request, nil
}
