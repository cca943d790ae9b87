package models

import "time"

// RevokedToken records a logged-out access token until it would have expired
// anyway. Shared by every instance through the database.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;type:varchar(128)" json:"jti"`
	UserID    string    `gorm:"index;type:varchar(64)" json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	RevokedAt time.Time `gorm:"autoCreateTime" json:"revoked_at"`
}
