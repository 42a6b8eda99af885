package database

import (
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/carenethq/carenet/internal/models"
	"github.com/carenethq/carenet/pkg/crypto"
	"github.com/carenethq/carenet/pkg/logger"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Network{},
		&models.NetworkMembership{},
		&models.PatientProfile{},
		&models.DoctorProfile{},
		&models.AttendantProfile{},
		&models.SubscriptionPlan{},
		&models.UserSubscription{},
		&models.Session{},
		&models.AuditLog{},
		&models.CacheEntry{},
	)
}

func intPtr(v int) *int { return &v }

// SeedData populates the default subscription plans and the root super admin.
func SeedData(db *gorm.DB) error {
	plans := []models.SubscriptionPlan{
		{
			Name:             "Basic Care",
			Description:      "Entry plan for individual patients",
			PriceCents:       49900,
			DurationDays:     30,
			MaxConsultations: intPtr(5),
			MaxFamilyMembers: intPtr(1),
			IsActive:         true,
		},
		{
			Name:             "Family Care",
			Description:      "Shared plan covering family members",
			PriceCents:       129900,
			DurationDays:     30,
			MaxConsultations: intPtr(15),
			MaxFamilyMembers: intPtr(5),
			IsActive:         true,
		},
		{
			Name:             "Premium Care",
			Description:      "Unrestricted consultations",
			PriceCents:       299900,
			DurationDays:     30,
			MaxConsultations: nil,
			MaxFamilyMembers: intPtr(10),
			IsActive:         true,
		},
	}

	for _, plan := range plans {
		if err := db.Where(models.SubscriptionPlan{Name: plan.Name}).
			Attrs(plan).
			FirstOrCreate(&models.SubscriptionPlan{}).Error; err != nil {
			return err
		}
	}

	return seedRootSuperAdmin(db)
}

// seedRootSuperAdmin creates the bootstrap SUPER_ADMIN account the first time
// the schema is provisioned. The password comes from CARENET_ROOT_PASSWORD and
// must be rotated after first sign-in.
func seedRootSuperAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleSuperAdmin).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := strings.TrimSpace(os.Getenv("CARENET_ROOT_PASSWORD"))
	if password == "" {
		logger.WithModule("database").Warn("no super admin exists and CARENET_ROOT_PASSWORD is unset; skipping root bootstrap")
		return nil
	}

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	root := models.User{
		Email:     "root@carenet.local",
		Password:  hashed,
		FirstName: "Root",
		LastName:  "Administrator",
		Role:      models.RoleSuperAdmin,
		IsActive:  true,
	}
	return db.Create(&root).Error
}
