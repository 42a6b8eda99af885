package quota

import (
	"math"

	"github.com/carenethq/carenet/internal/models"
)

// Derived-bound multipliers applied to the plan's consultation allowance.
// These are defined exactly once; every bound resolution goes through BoundFor.
const (
	labTestMultiplier      = 0.8
	prescriptionMultiplier = 1.5
	aiReportMultiplier     = 0.6
)

// BoundFor resolves the usage bound for a service type under the given plan.
// A nil return means unlimited. Consultations and family members read their
// bound directly from the plan; lab tests, prescriptions and AI reports derive
// theirs from the consultation bound, floored to an integer.
//
// A zero or absent consultation bound yields a zero derived bound: derived
// services then permit no usage at all, they never become unlimited.
func BoundFor(plan *models.SubscriptionPlan, service ServiceType) *int {
	if plan == nil {
		zero := 0
		return &zero
	}

	switch service {
	case ServiceConsultation:
		return copyBound(plan.MaxConsultations)
	case ServiceFamilyMember:
		return copyBound(plan.MaxFamilyMembers)
	case ServiceLabTest:
		return derivedBound(plan.MaxConsultations, labTestMultiplier)
	case ServicePrescription:
		return derivedBound(plan.MaxConsultations, prescriptionMultiplier)
	case ServiceAIReport:
		return derivedBound(plan.MaxConsultations, aiReportMultiplier)
	default:
		zero := 0
		return &zero
	}
}

func derivedBound(consultations *int, multiplier float64) *int {
	if consultations == nil || *consultations <= 0 {
		zero := 0
		return &zero
	}

	derived := int(math.Floor(float64(*consultations) * multiplier))
	return &derived
}

func copyBound(bound *int) *int {
	if bound == nil {
		return nil
	}
	cpy := *bound
	return &cpy
}

// UsageOf reads the counter tracking the given service type.
func UsageOf(sub *models.UserSubscription, service ServiceType) int {
	if sub == nil {
		return 0
	}

	switch service {
	case ServiceConsultation:
		return sub.ConsultationsUsed
	case ServiceFamilyMember:
		return sub.FamilyMembersUsed
	case ServiceLabTest:
		return sub.LabTestsUsed
	case ServicePrescription:
		return sub.PrescriptionsUsed
	case ServiceAIReport:
		return sub.AIReportsUsed
	default:
		return 0
	}
}
