package models

import "time"

// Caddy extends a User with loop tracking and the social graph. UserID is
// nullable: the profile survives account deletion (SET NULL), preserving
// historical loop data.
type Caddy struct {
	ID     uint  `gorm:"primaryKey"`
	UserID *uint `gorm:"uniqueIndex"`
	User   *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`

	// Cached sum of NumLoops over this caddy's loops. Maintained by relative
	// updates on create/delete, never recomputed from the ledger.
	LoopCount int `gorm:"not null;default:0"`

	ActivationKey  string `gorm:"size:255;index"`
	EmailValidated bool   `gorm:"not null;default:false"`

	// Pending email change: the new address is parked here until the key sent
	// to it is clicked, then it is promoted onto the User record.
	ChangeEmail    *string `gorm:"size:254"`
	ChangeEmailKey *string `gorm:"size:255;index"`

	// Directed follow relation; "A follows B" does not imply the reverse.
	Friends []Caddy `gorm:"many2many:follow_edges;joinForeignKey:FromCaddyID;joinReferences:ToCaddyID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FollowEdge is the join row behind Caddy.Friends, mapped explicitly so the
// reverse (followers) lookup can query it directly.
type FollowEdge struct {
	ID          uint `gorm:"primaryKey"`
	FromCaddyID uint `gorm:"not null;index:idx_follow_pair,unique"`
	ToCaddyID   uint `gorm:"not null;index:idx_follow_pair,unique;index:idx_follow_target"`
	CreatedAt   time.Time
}

func (FollowEdge) TableName() string { return "follow_edges" }
