package models

import "gorm.io/gorm"

// AutoMigrate creates or updates the schema for every persistence model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&SubscriptionModel{},
		&SessionModel{},
		&ApplicationModel{},
	)
}
