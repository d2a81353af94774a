package models

import "time"

// CaddyMaster is the supervisory counterpart of Caddy. Same nullable user
// link so master records outlive their account.
type CaddyMaster struct {
	ID             uint    `gorm:"primaryKey"`
	UserID         *uint   `gorm:"uniqueIndex"`
	User           *User   `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	EmailValidated bool    `gorm:"not null;default:false"`
	ChangeEmail    *string `gorm:"size:254"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CaddyShack is a dated grouping of caddies under one caddy master.
// GolferGroups holds free-form JSON as entered by the master.
type CaddyShack struct {
	ID            uint        `gorm:"primaryKey"`
	Title         string      `gorm:"size:100;not null"`
	Date          time.Time   `gorm:"not null;index"`
	CaddyMasterID uint        `gorm:"not null;index"`
	CaddyMaster   CaddyMaster `gorm:"foreignKey:CaddyMasterID;constraint:OnDelete:CASCADE"`
	Caddys        []Caddy     `gorm:"many2many:caddy_shack_caddys"`
	GolferGroups  string      `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
