package quota

import (
	"fmt"
	"strings"
)

// ServiceType enumerates the subscription benefits tracked by the ledger.
type ServiceType string

const (
	ServiceConsultation ServiceType = "consultation"
	ServiceFamilyMember ServiceType = "family_member"
	ServiceLabTest      ServiceType = "lab_test"
	ServicePrescription ServiceType = "prescription"
	ServiceAIReport     ServiceType = "ai_report"
)

// ServiceTypes lists every tracked service type.
var ServiceTypes = []ServiceType{
	ServiceConsultation,
	ServiceFamilyMember,
	ServiceLabTest,
	ServicePrescription,
	ServiceAIReport,
}

// ParseServiceType normalises a raw service type string.
func ParseServiceType(raw string) (ServiceType, error) {
	candidate := ServiceType(strings.ToLower(strings.TrimSpace(raw)))
	for _, service := range ServiceTypes {
		if service == candidate {
			return service, nil
		}
	}
	return "", fmt.Errorf("quota: unknown service type %q", raw)
}

// usageColumn maps a service type onto its counter column. The ledger updates
// these columns exclusively; nothing else writes them.
func usageColumn(service ServiceType) (string, error) {
	switch service {
	case ServiceConsultation:
		return "consultations_used", nil
	case ServiceFamilyMember:
		return "family_members_used", nil
	case ServiceLabTest:
		return "lab_tests_used", nil
	case ServicePrescription:
		return "prescriptions_used", nil
	case ServiceAIReport:
		return "ai_reports_used", nil
	default:
		return "", fmt.Errorf("quota: unknown service type %q", service)
	}
}
