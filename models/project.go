package models

import (
	"context"
	"errors"
	"time"

	"github.com/edunexus/nexus_backend/config"
	"github.com/edunexus/nexus_backend/utils"
	"gorm.io/gorm"
)

// Project is a student project. It is both a reviewable entity and a scope
// of kind Project: maintainers and contributors hold roles within it.
type Project struct {
	ID              int            `gorm:"primary_key" json:"id"`
	OwnerId         int            `gorm:"index;not null" json:"owner_id"`
	Name            string         `gorm:"size:255;not null" json:"name" binding:"required"`
	Summary         string         `gorm:"type:text" json:"summary"`
	SeekingFunding  bool           `gorm:"not null;default:false" json:"seeking_funding"`
	Published       bool           `gorm:"not null;default:false" json:"published"`
	ApprovalStatus  ApprovalStatus `gorm:"size:20;not null;default:PENDING" json:"approval_status"`
	Status          ProjectStatus  `gorm:"size:20;not null;default:Draft" json:"status"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason"`
	ReviewComments  string         `gorm:"type:text" json:"review_comments"`
	ApprovedBy      *int           `json:"approved_by"`
	ApprovedAt      *time.Time     `json:"approved_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p Project) ReviewableID() int                     { return p.ID }
func (p Project) ReviewableType() EntityType            { return EntityTypeProject }
func (p Project) CurrentApprovalStatus() ApprovalStatus { return p.ApprovalStatus }
func (p Project) Scope() (int, ScopeKind)               { return p.ID, ScopeKindProject }
func (p Project) StakeholderID() int                    { return p.OwnerId }
func (p Project) DisplayName() string                   { return p.Name }

type NewProject struct {
	Name           string `json:"name" binding:"required"`
	Summary        string `json:"summary"`
	SeekingFunding bool   `json:"seeking_funding"`
}

func CreateProject(ctx context.Context, input *NewProject) (*Project, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, utils.ErrUnauthorized
	}

	project := Project{
		OwnerId:        userId,
		Name:           input.Name,
		Summary:        input.Summary,
		SeekingFunding: input.SeekingFunding,
		ApprovalStatus: ApprovalStatusPending,
		Status:         ProjectStatusDraft,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func GetProject(ctx context.Context, id int) (*Project, error) {

	db := config.GetDB()
	var project Project
	if err := db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &project, nil
}

func LoadProjectTx(tx *gorm.DB, id int) (Reviewable, error) {
	var project Project
	if err := tx.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return project, nil
}
