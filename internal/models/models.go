package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GadgetStatus string

const (
	StatusAvailable      GadgetStatus = "Available"
	StatusDeployed       GadgetStatus = "Deployed"
	StatusDestroyed      GadgetStatus = "Destroyed"
	StatusDecommissioned GadgetStatus = "Decommissioned"
)

var GadgetStatuses = []GadgetStatus{
	StatusAvailable,
	StatusDeployed,
	StatusDestroyed,
	StatusDecommissioned,
}

// ParseGadgetStatus reports whether s names one of the known statuses.
func ParseGadgetStatus(s string) (GadgetStatus, bool) {
	for _, st := range GadgetStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Terminal statuses never change again.
func (s GadgetStatus) Terminal() bool {
	return s == StatusDestroyed || s == StatusDecommissioned
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"                    json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"  json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null"              json:"-"`
	CreatedAt    time.Time `json:"-"`
}

type Gadget struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey"                          json:"id"`
	OwnerID          uuid.UUID    `gorm:"type:uuid;index;not null"                      json:"ownerId"`
	Owner            *User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"  json:"-"`
	Name             string       `gorm:"type:varchar(128);uniqueIndex;not null"        json:"name"`
	Status           GadgetStatus `gorm:"type:varchar(32);not null;check:chk_gadgets_status,status IN ('Available','Deployed','Destroyed','Decommissioned')" json:"status"`
	DecommissionedAt *time.Time   `json:"decommissionedAt"`
	CreatedAt        time.Time    `json:"-"`
	UpdatedAt        time.Time    `json:"-"`
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                          json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"                      json:"user_id"`
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"  json:"-"`
	Token     string    `gorm:"type:text;not null"                            json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (g *Gadget) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{&User{}, &Gadget{}, &RefreshToken{}}
}
