package models

import (
	"context"
	"errors"
	"time"

	"github.com/edunexus/nexus_backend/config"
	"github.com/edunexus/nexus_backend/utils"
	"gorm.io/gorm"
)

// OrganizationKind distinguishes employer, university and investor orgs.
// It has no bearing on authorization; scope rules are identical.
type OrganizationKind string

const (
	OrganizationKindEmployer   OrganizationKind = "Employer"
	OrganizationKindUniversity OrganizationKind = "University"
	OrganizationKindInvestor   OrganizationKind = "Investor"
)

// Organization is a scope of kind Organization. OwnerId is the designated
// owner; ownership is never represented as a membership row.
type Organization struct {
	ID        int              `gorm:"primary_key" json:"id"`
	Name      string           `gorm:"size:255;not null" json:"name" binding:"required"`
	Kind      OrganizationKind `gorm:"size:20;not null" json:"kind"`
	OwnerId   int              `gorm:"index;not null" json:"owner_id"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOrganization struct {
	Name    string           `json:"name" binding:"required"`
	Kind    OrganizationKind `json:"kind" binding:"required"`
	OwnerId int              `json:"owner_id" binding:"required"`
}

func CreateOrganization(ctx context.Context, input *NewOrganization) (*Organization, error) {

	org := Organization{
		Name:    input.Name,
		Kind:    input.Kind,
		OwnerId: input.OwnerId,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func GetOrganization(ctx context.Context, id int) (*Organization, error) {

	db := config.GetDB()
	var org Organization
	if err := db.WithContext(ctx).First(&org, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &org, nil
}

// scopeOwnerTx resolves the designated owner of a scope. Returns
// ErrorRecordNotFound when the scope itself does not exist.
func scopeOwnerTx(tx *gorm.DB, scopeId int, scopeKind ScopeKind) (int, error) {
	switch scopeKind {
	case ScopeKindOrganization:
		var org Organization
		if err := tx.Select("id", "owner_id").First(&org, scopeId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, utils.ErrorRecordNotFound
			}
			return 0, err
		}
		return org.OwnerId, nil
	case ScopeKindProject:
		var project Project
		if err := tx.Select("id", "owner_id").First(&project, scopeId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, utils.ErrorRecordNotFound
			}
			return 0, err
		}
		return project.OwnerId, nil
	}
	return 0, errors.New("unknown scope kind")
}
