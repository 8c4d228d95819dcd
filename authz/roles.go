package authz

// Role is the closed set of roles a user can hold. Authorization decisions
// go through the permission map below rather than per-endpoint role checks.
type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

type Permission string

const (
	PermProfileRead    Permission = "profile:read"
	PermProfileWrite   Permission = "profile:write"
	PermEventRead      Permission = "event:read"
	PermEventWrite     Permission = "event:write"
	PermRegistration   Permission = "registration:write"
	PermUserManagement Permission = "user:manage"
)

var rolePermissions = map[Role][]Permission{
	RoleUser: {
		PermProfileRead,
		PermProfileWrite,
		PermEventRead,
		PermRegistration,
	},
	RoleOrganizer: {
		PermProfileRead,
		PermProfileWrite,
		PermEventRead,
		PermEventWrite,
		PermRegistration,
	},
	RoleAdmin: {
		PermProfileRead,
		PermProfileWrite,
		PermEventRead,
		PermEventWrite,
		PermRegistration,
		PermUserManagement,
	},
}

// Permissions returns the permission set for a role; unknown roles hold
// no permissions.
func Permissions(role Role) []Permission {
	return rolePermissions[role]
}

func Can(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
