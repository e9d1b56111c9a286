package models

import (
	"context"
	"errors"
	"time"

	"github.com/edunexus/nexus_backend/config"
	"github.com/edunexus/nexus_backend/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is a principal: an authenticated actor. GlobalRole is platform-wide;
// scope-level roles live in OrganizationalMembership.
type User struct {
	ID         int        `gorm:"primary_key" json:"id"`
	Username   string     `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Name       string     `gorm:"size:100;not null" json:"name" binding:"required"`
	Email      *string    `gorm:"size:100;unique" json:"email"`
	Password   string     `gorm:"size:255;not null" json:"password"`
	GlobalRole GlobalRole `gorm:"type:enum('PlatformAdmin','User');default:User" json:"global_role"`
	IsActive   *bool      `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username   string     `json:"username" binding:"required"`
	Name       string     `json:"name" binding:"required"`
	Email      string     `json:"email"`
	Password   string     `json:"password" binding:"required"`
	GlobalRole GlobalRole `json:"global_role"`
	IsActive   *bool      `json:"is_active" binding:"required"`
}

/*
caches:
	User:$username
*/

func (user User) IsPlatformAdmin() bool {
	return user.GlobalRole == GlobalRolePlatformAdmin
}

func (result *User) PrepareGive() {
	result.Password = ""
}

type LoginInfo struct {
	Token      string `json:"token"`
	Name       string `json:"name"`
	GlobalRole string `json:"global_role"`
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {

	db := config.GetDB()
	var result LoginInfo

	user := User{}

	// get User info
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return &result, err
	}
	if !exists {
		err = db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error
		if err != nil {
			return &result, errors.New("invalid username or password")
		}
	}

	// check login credentials
	err = utils.ComparePassword(user.Password, password)
	if err != nil && err == bcrypt.ErrMismatchedHashAndPassword {
		return &result, errors.New("invalid username or password")
	}

	isActive := *user.IsActive
	if !isActive {
		return &result, errors.New("user is disabled")
	}

	token, err := utils.JwtGenerate(user.ID, string(user.GlobalRole))
	if err != nil {
		return &result, err
	}
	result.Token = token
	result.Name = user.Name
	result.GlobalRole = string(user.GlobalRole)

	// session cache: token -> username, TTL matched to the JWT lifespan
	if err := config.SetRedisObject("Token:"+token, user.Username, utils.TokenLifespan()); err != nil {
		return nil, err
	}
	// add new token to the user's tokens set
	if err := config.AddRedisSet("Tokens:"+user.Username, token); err != nil {
		return nil, err
	}
	if !exists {
		_ = config.SetRedisObject("User:"+username, user, 10*time.Minute)
	}

	return &result, nil
}

// destroy current session
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || username == "" {
		return false, errors.New("user not found")
	}
	if err := config.RemoveRedisKey("Token:" + token); err != nil {
		return false, err
	}
	if err := config.RemoveRedisSetMember("Tokens:"+username, token); err != nil {
		return false, err
	}
	return true, nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	globalRole := input.GlobalRole
	if globalRole == "" {
		globalRole = GlobalRoleUser
	}

	var email *string
	if input.Email != "" {
		email = &input.Email
	}

	user := User{
		Username:   input.Username,
		Name:       input.Name,
		Email:      email,
		Password:   string(hashed),
		GlobalRole: globalRole,
		IsActive:   input.IsActive,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {

	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserTx fetches a principal inside the caller's transaction. A missing
// row maps to Unauthorized: no verified principal exists for the id.
func GetUserTx(tx *gorm.DB, id int) (*User, error) {
	var user User
	if err := tx.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrUnauthorized
		}
		return nil, err
	}
	return &user, nil
}
