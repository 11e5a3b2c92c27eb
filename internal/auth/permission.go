package auth

// Scopes referenced by tokens and route policy.
const (
	ScopeTeamRoleRead   = "team:role:read"
	ScopeTeamRoleManage = "team:role:manage"
	ScopeTeamRoleDelete = "team:role:delete"

	ScopeDeviceRead       = "team:device:read"
	ScopeDeviceManage     = "team:device:manage"
	ScopeDeviceDataRead   = "team:device_data:read"
	ScopeDeviceDataExport = "team:device_data:export"
)

// Permission describes a grantable scope.
type Permission struct {
	Scope       string
	Title       string
	Description string
}

var (
	// PermissionTeamRoleRead allows viewing roles and their grants.
	PermissionTeamRoleRead = Permission{
		Scope:       ScopeTeamRoleRead,
		Title:       "Read team roles",
		Description: "View roles and their permissions within a team.",
	}
	// PermissionTeamRoleManage allows creating and updating roles.
	PermissionTeamRoleManage = Permission{
		Scope:       ScopeTeamRoleManage,
		Title:       "Manage team roles",
		Description: "Create and update roles and their permissions within a team.",
	}
	// PermissionTeamRoleDelete allows deleting roles.
	PermissionTeamRoleDelete = Permission{
		Scope:       ScopeTeamRoleDelete,
		Title:       "Delete team roles",
		Description: "Delete roles from a team.",
	}
)

// TeamRolePermissions lists the role-management permission set granted
// to owner roles by the seed.
func TeamRolePermissions() []Permission {
	return []Permission{
		PermissionTeamRoleRead,
		PermissionTeamRoleManage,
		PermissionTeamRoleDelete,
	}
}
