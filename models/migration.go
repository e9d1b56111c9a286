package models

import (
	"log"

	"github.com/edunexus/nexus_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{}, &Organization{}, &OrganizationalMembership{},
		&Job{}, &Project{}, &University{}, &VerificationRequest{}, &GovernanceProposal{},
		&ApprovalRecord{},
		&NotificationEvent{},
		&ScoreLedgerEntry{}, &ScoreSummary{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
