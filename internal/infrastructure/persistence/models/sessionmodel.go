package models

import "time"

// SessionModel represents the database persistence model for sessions.
// EndedAtMilli and Expired together form the reconciler's scan predicate:
// a session with neither set is still open.
type SessionModel struct {
	ID                         uint   `gorm:"primarykey"`
	UserID                     string `gorm:"not null;size:64;uniqueIndex:idx_user_session_created,priority:1"`
	CreatedAtMilli             int64  `gorm:"not null;uniqueIndex:idx_user_session_created,priority:2"`
	SubscriptionCreatedAtMilli int64  `gorm:"not null"`
	Email                      string `gorm:"size:255"`
	ApplicationID              string `gorm:"not null;size:64"`
	ApplicationName            string `gorm:"size:255"`
	RemoteSessionID            string `gorm:"not null;size:128;index"`
	State                      string `gorm:"not null;size:20"`
	PerSessionLimitMs          int64  `gorm:"not null"`
	StartedAtMilli             *int64
	EndedAtMilli               *int64 `gorm:"index:idx_open,priority:1"`
	EntitlementURL             string `gorm:"size:2048"`
	EntitlementValidMs         int64
	Expired                    bool `gorm:"not null;default:false;index:idx_open,priority:2"`
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// TableName specifies the table name for GORM
func (SessionModel) TableName() string {
	return "sessions"
}
