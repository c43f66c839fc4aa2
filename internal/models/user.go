package models

import "time"

// User is an account holder. AuthSubject is the opaque identity assigned by
// the external auth collaborator; this service never interprets it.
type User struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	DisplayName string `gorm:"size:128;not null"`
	AuthSubject string `gorm:"size:256;uniqueIndex"`
	APIUsage    int    `gorm:"not null;default:0"`
	UsageLimit  int    `gorm:"not null;default:100"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// QuotaExhausted reports whether the user has consumed their generation
// allowance. APIUsage only moves through quota.Increment and quota.ResetAll,
// never through direct field writes.
func (u *User) QuotaExhausted() bool {
	return u.APIUsage >= u.UsageLimit
}
