// seed-admin creates or updates the platform admin user (username: nexusAdmin).
// Platform admins bypass scope-level role checks on every review action.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/edunexus/nexus_backend/config"
	"github.com/edunexus/nexus_backend/models"
	"github.com/edunexus/nexus_backend/utils"
	"gorm.io/gorm"
)

const (
	adminUsername = "nexusAdmin"
	adminName     = "Nexus Admin"
)

func main() {
	ctx := context.Background()

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "SEED_ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)
	active := true

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("username = ?", adminUsername).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			Username:   adminUsername,
			Name:       adminName,
			Password:   hashedStr,
			GlobalRole: models.GlobalRolePlatformAdmin,
			IsActive:   &active,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created platform admin %q (id=%d)\n", adminUsername, u.ID)
		return
	}

	err = db.WithContext(ctx).Model(&models.User{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
		"password":    hashedStr,
		"global_role": models.GlobalRolePlatformAdmin,
		"is_active":   true,
	}).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}

	// Stale login caches would serve the old password hash.
	_ = config.RemoveRedisKey("User:" + adminUsername)

	fmt.Printf("updated platform admin %q (id=%d)\n", adminUsername, existing.ID)
}
