package models

import (
	"log"

	"github.com/admiralorbiter/VMS-sub007/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&School{}, &Organization{}, &Volunteer{},
		&Affiliation{}, &Event{}, &Student{}, &Teacher{},
		&Participation{},
		&SyncRun{}, &ImportError{}, &ValidationResult{}, &QualityScore{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
