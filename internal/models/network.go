package models

import "time"

// Network is the administrative tenant boundary owned by a single admin user.
type Network struct {
	BaseModel

	AdminUserID string `gorm:"type:uuid;uniqueIndex;not null" json:"admin_user_id"`
	Admin       *User  `gorm:"foreignKey:AdminUserID" json:"admin,omitempty"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
}

// MemberKind identifies the profile type a membership covers.
type MemberKind string

const (
	MemberKindPatient   MemberKind = "patient"
	MemberKindDoctor    MemberKind = "doctor"
	MemberKindAttendant MemberKind = "attendant"
)

// NetworkMembership places a non-admin principal inside an admin's network.
// member_user_id is unique on its own: a principal belongs to at most one
// network, regardless of which admin owns it.
type NetworkMembership struct {
	BaseModel

	AdminUserID  string     `gorm:"type:uuid;not null;index" json:"admin_user_id"`
	MemberUserID string     `gorm:"type:uuid;not null;uniqueIndex" json:"member_user_id"`
	MemberKind   MemberKind `gorm:"type:varchar(20);not null" json:"member_kind"`
	JoinedAt     time.Time  `gorm:"not null" json:"joined_at"`

	Admin  *User `gorm:"foreignKey:AdminUserID" json:"-"`
	Member *User `gorm:"foreignKey:MemberUserID" json:"-"`
}
