package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor role constants
const (
	RoleAgent      = "agent"
	RoleSubadmin   = "subadmin"
	RoleCA         = "ca"
	RoleSuperadmin = "superadmin"
)

type User struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string     `gorm:"not null" json:"name"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	Role        string     `gorm:"not null;default:agent;index" json:"role"` // agent, subadmin, ca, superadmin
	Mobile      string     `json:"mobile,omitempty"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// Actor returns the workflow actor value for this user
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// IsValidRole checks if the role is one of the four workflow roles
func IsValidRole(role string) bool {
	switch role {
	case RoleAgent, RoleSubadmin, RoleCA, RoleSuperadmin:
		return true
	}
	return false
}
