package permissions

import "github.com/carenethq/carenet/internal/models"

// Capability-style permission identifiers used across route handlers.
const (
	ViewOwnRecords      = "view_own_records"
	BookConsultation    = "book_consultation"
	ManageFamilyMembers = "manage_family_members"
	ViewPrescriptions   = "view_prescriptions"
	ViewLabTests        = "view_lab_tests"
	RequestAIReport     = "request_ai_report"

	ViewAssignedPatients = "view_assigned_patients"
	ManageConsultations  = "manage_consultations"
	WritePrescriptions   = "write_prescriptions"
	OrderLabTests        = "order_lab_tests"
	ViewSchedule         = "view_schedule"

	RecordVitals       = "record_vitals"
	ManageAppointments = "manage_appointments"

	ViewAlerts         = "view_alerts"
	ManageAlerts       = "manage_alerts"
	ViewLiveMonitoring = "view_live_monitoring"
	DispatchResponse   = "dispatch_response"

	ManageNetwork       = "manage_network"
	ManageUsers         = "manage_users"
	ViewReports         = "view_reports"
	ManageSubscriptions = "manage_subscriptions"
	AssignDoctors       = "assign_doctors"

	ManageAdmins  = "manage_admins"
	ManagePlans   = "manage_plans"
	ViewAuditLogs = "view_audit_logs"
	ManageSystem  = "manage_system"
)

// baseTable maps every role to its fixed base permission set. The table is
// total: each of the six roles has a non-empty entry.
var baseTable = map[models.Role][]string{
	models.RolePatient: {
		ViewOwnRecords,
		BookConsultation,
		ManageFamilyMembers,
		ViewPrescriptions,
		ViewLabTests,
		RequestAIReport,
	},
	models.RoleDoctor: {
		ViewAssignedPatients,
		ManageConsultations,
		WritePrescriptions,
		OrderLabTests,
		ViewSchedule,
	},
	models.RoleAttendant: {
		ViewAssignedPatients,
		RecordVitals,
		ManageAppointments,
		ViewSchedule,
	},
	models.RoleControlRoom: {
		ViewAlerts,
		ManageAlerts,
		ViewLiveMonitoring,
		DispatchResponse,
	},
	models.RoleAdmin: {
		ManageNetwork,
		ManageUsers,
		ViewReports,
		ManageSubscriptions,
		AssignDoctors,
	},
	models.RoleSuperAdmin: {
		ManageNetwork,
		ManageUsers,
		ViewReports,
		ManageSubscriptions,
		AssignDoctors,
		ManageAdmins,
		ManagePlans,
		ViewAuditLogs,
		ManageSystem,
	},
}

// BaseSet returns a copy of the role's fixed permission set.
func BaseSet(role models.Role) []string {
	base, ok := baseTable[role]
	if !ok {
		return nil
	}
	out := make([]string, len(base))
	copy(out, base)
	return out
}
