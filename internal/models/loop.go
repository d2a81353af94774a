package models

import "time"

// Loop is one logged work session. Owned by exactly one user; deleting the
// user cascades to their loops.
type Loop struct {
	ID       uint      `gorm:"primaryKey"`
	Title    string    `gorm:"size:100;not null"`
	Date     time.Time `gorm:"not null;index"`
	NumLoops int       `gorm:"not null;default:1"`
	Money    int       `gorm:"not null"`
	Notes    string

	CaddyID uint `gorm:"not null;index"`
	Owner   User `gorm:"foreignKey:CaddyID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
