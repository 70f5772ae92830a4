package models

import "time"

// SubscriptionModel represents the database persistence model for
// subscription grants. (UserID, CreatedAtMilli) is the composite key the
// rest of the system addresses a subscription by.
type SubscriptionModel struct {
	ID                uint   `gorm:"primarykey"`
	UserID            string `gorm:"not null;size:64;uniqueIndex:idx_user_created,priority:1"`
	CreatedAtMilli    int64  `gorm:"not null;uniqueIndex:idx_user_created,priority:2"`
	ApplicationID     string `gorm:"not null;size:64"`
	Name              string `gorm:"size:255"`
	Description       string `gorm:"size:1024"`
	PerSessionLimitMs int64  `gorm:"not null"`
	TotalRemainingMs  int64  `gorm:"not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}
