package models

import "time"

// ApplicationModel represents the database persistence model for the
// stream application registry.
type ApplicationModel struct {
	ID        string `gorm:"primarykey;size:64"`
	RemoteRef string `gorm:"not null;size:128"`
	Name      string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (ApplicationModel) TableName() string {
	return "applications"
}
