package models

import "time"

// SubscriptionPlan defines the purchasable allowances. Nil bounds mean unlimited.
type SubscriptionPlan struct {
	BaseModel

	Name         string `gorm:"uniqueIndex;not null" json:"name"`
	Description  string `json:"description"`
	PriceCents   int    `gorm:"not null" json:"price_cents"`
	DurationDays int    `gorm:"not null;default:30" json:"duration_days"`

	MaxConsultations *int `json:"max_consultations"`
	MaxFamilyMembers *int `json:"max_family_members"`

	IsActive bool `gorm:"default:true" json:"is_active"`
}

// UserSubscription is one principal's instantiation of a plan. At most one row
// per user has IsActive set; counters mutate only through the quota ledger.
type UserSubscription struct {
	BaseModel

	UserID string            `gorm:"type:uuid;not null;index:idx_user_active,priority:1" json:"user_id"`
	User   *User             `gorm:"foreignKey:UserID" json:"-"`
	PlanID string            `gorm:"type:uuid;not null" json:"plan_id"`
	Plan   *SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`

	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`
	IsActive  bool      `gorm:"not null;default:false;index:idx_user_active,priority:2" json:"is_active"`

	ConsultationsUsed int `gorm:"not null;default:0" json:"consultations_used"`
	FamilyMembersUsed int `gorm:"not null;default:0" json:"family_members_used"`
	LabTestsUsed      int `gorm:"not null;default:0" json:"lab_tests_used"`
	PrescriptionsUsed int `gorm:"not null;default:0" json:"prescriptions_used"`
	AIReportsUsed     int `gorm:"not null;default:0" json:"ai_reports_used"`
}

// Expired reports whether the subscription's end date has passed. Expiry is
// evaluated at read time; rows are not swept.
func (s *UserSubscription) Expired(now time.Time) bool {
	return now.After(s.EndDate)
}
