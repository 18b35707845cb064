package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	// RoleOperator uploads exports and runs reconciliations.
	RoleOperator = "operator"
	// RoleAnalyst reads run summaries.
	RoleAnalyst = "analyst"
	// RoleAdmin manages one client's rates and runs.
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
	// RoleSupport may act on any client but only where a route opts in.
	RoleSupport = "support" // hidden role
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RoleSupport }

// IsCrossClient reports roles allowed to name a client other than their token's.
func IsCrossClient(role string) bool { return IsSuperAdmin(role) || IsHiddenRole(role) }
