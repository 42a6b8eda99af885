package models

import "time"

// PatientProfile holds clinical directory data for a patient principal.
type PatientProfile struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	DateOfBirth      *time.Time `json:"date_of_birth"`
	Gender           string     `json:"gender"`
	BloodGroup       string     `json:"blood_group"`
	Address          string     `json:"address"`
	EmergencyContact string     `json:"emergency_contact"`
	MedicalHistory   string     `json:"medical_history"`
}

// DoctorProfile holds directory data for a doctor principal.
type DoctorProfile struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Specialization  string `json:"specialization"`
	LicenseNumber   string `gorm:"index" json:"license_number"`
	Qualification   string `json:"qualification"`
	ExperienceYears int    `json:"experience_years"`
}

// AttendantProfile holds directory data for an attendant principal.
type AttendantProfile struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Qualification string `json:"qualification"`
	ShiftStart    string `json:"shift_start"`
	ShiftEnd      string `json:"shift_end"`
}
