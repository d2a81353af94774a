package models

import "time"

// User is the account record. Usernames and emails are stored lowercase so
// uniqueness is effectively case-insensitive.
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"size:50;unique;not null;index"`
	Email     string `gorm:"size:254;unique;not null;index"`
	Password  string `gorm:"not null"` // bcrypt hash
	Active    bool   `gorm:"not null;default:false"`
	Staff     bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
