// Package models holds the database persistence models. They are the
// anti-corruption layer between the domain aggregates and gorm.
package models

import "time"

// UserModel represents the database persistence model for users. The
// primary key is the federated identity id.
type UserModel struct {
	ID        string `gorm:"primarykey;size:64"`
	Email     string `gorm:"not null;size:255;index"`
	Role      string `gorm:"size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return "users"
}
