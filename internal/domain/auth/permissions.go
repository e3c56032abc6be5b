package auth

const (
	RoleAdmin    = "admin"
	RoleHR       = "hr"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

const (
	PermEmployeesRead  = "company.employees.read"
	PermEmployeesWrite = "company.employees.write"
	PermTeamsRead      = "company.teams.read"
	PermTeamsWrite     = "company.teams.write"
	PermLeaveRead      = "leave.read"
	PermLeaveWrite     = "leave.write"
	PermLeaveApprove   = "leave.approve"
	PermLeaveAdmin     = "leave.admin"
	PermBalanceAdjust  = "leave.balance.adjust"
	PermJobsRun        = "jobs.run"
	PermReportsRead    = "reports.read"
	PermAuditRead      = "audit.read"
	PermSettingsWrite  = "company.settings.write"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermEmployeesRead,
		PermTeamsRead,
		PermLeaveRead,
		PermLeaveWrite,
	},
	RoleManager: {
		PermEmployeesRead,
		PermTeamsRead,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermReportsRead,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermTeamsRead,
		PermTeamsWrite,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermLeaveAdmin,
		PermBalanceAdjust,
		PermJobsRun,
		PermReportsRead,
		PermAuditRead,
		PermSettingsWrite,
	},
}

// HasPermission resolves a role to its grants; admin holds everything.
func HasPermission(roleName, permission string) bool {
	if roleName == RoleAdmin {
		return true
	}
	for _, p := range RolePermissions[roleName] {
		if p == permission {
			return true
		}
	}
	return false
}
