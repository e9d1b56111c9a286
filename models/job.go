package models

import (
	"context"
	"errors"
	"time"

	"github.com/edunexus/nexus_backend/config"
	"github.com/edunexus/nexus_backend/utils"
	"gorm.io/gorm"
)

// Job is a posting reviewed within its employer organization's scope.
// ApprovalStatus (review outcome) and Status (operational) are independent
// axes; the approve/reject cascade is declared by the job adapter, never
// inferred from one another.
type Job struct {
	ID              int            `gorm:"primary_key" json:"id"`
	OrganizationId  int            `gorm:"index;not null" json:"organization_id" binding:"required"`
	PostedById      int            `gorm:"index;not null" json:"posted_by_id"`
	Title           string         `gorm:"size:255;not null" json:"title" binding:"required"`
	Description     string         `gorm:"type:text" json:"description"`
	ApprovalStatus  ApprovalStatus `gorm:"size:20;not null;default:PENDING" json:"approval_status"`
	Status          JobStatus      `gorm:"size:20;not null;default:Draft" json:"status"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason"`
	ReviewComments  string         `gorm:"type:text" json:"review_comments"`
	ApprovedBy      *int           `json:"approved_by"`
	ApprovedAt      *time.Time     `json:"approved_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (j Job) ReviewableID() int                     { return j.ID }
func (j Job) ReviewableType() EntityType            { return EntityTypeJob }
func (j Job) CurrentApprovalStatus() ApprovalStatus { return j.ApprovalStatus }
func (j Job) Scope() (int, ScopeKind)               { return j.OrganizationId, ScopeKindOrganization }
func (j Job) StakeholderID() int                    { return j.PostedById }
func (j Job) DisplayName() string                   { return j.Title }

type NewJob struct {
	OrganizationId int    `json:"organization_id" binding:"required"`
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description"`
}

func CreateJob(ctx context.Context, input *NewJob) (*Job, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, utils.ErrUnauthorized
	}
	if err := utils.ValidateResourceId[Organization](ctx, input.OrganizationId); err != nil {
		return nil, err
	}

	job := Job{
		OrganizationId: input.OrganizationId,
		PostedById:     userId,
		Title:          input.Title,
		Description:    input.Description,
		ApprovalStatus: ApprovalStatusPending,
		Status:         JobStatusDraft,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func GetJob(ctx context.Context, id int) (*Job, error) {

	db := config.GetDB()
	var job Job
	if err := db.WithContext(ctx).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &job, nil
}

func LoadJobTx(tx *gorm.DB, id int) (Reviewable, error) {
	var job Job
	if err := tx.First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return job, nil
}
