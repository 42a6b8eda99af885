package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User describes an authenticated platform principal.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`

	// Role is fixed at creation; only the super admin user operation may change it.
	Role     Role `gorm:"type:varchar(20);not null;index" json:"role"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	// CustomPermissions stores the per-admin permission overlay as raw JSON.
	// A malformed payload degrades to the role's base permission set.
	CustomPermissions datatypes.JSON `json:"custom_permissions,omitempty"`

	Network       *Network            `gorm:"foreignKey:AdminUserID" json:"network,omitempty"`
	Memberships   []NetworkMembership `gorm:"foreignKey:MemberUserID" json:"-"`
	Subscriptions []UserSubscription  `gorm:"foreignKey:UserID" json:"-"`
	Sessions      []Session           `gorm:"foreignKey:UserID" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `json:"last_login_ip"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
