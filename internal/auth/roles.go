package auth

// TeamRoleOwner is the built-in role granted every permission in its
// team without explicit links.
const TeamRoleOwner = "Owner"

// IsOwner reports whether a role name is the built-in owner role.
func IsOwner(role string) bool {
	return role == TeamRoleOwner
}

// HasScope reports whether the identity may perform an action guarded
// by the required scope. Owners pass every check, other roles need the
// scope granted in their token.
func HasScope(role string, scopes []string, required string) bool {
	if required == "" {
		return true
	}
	if IsOwner(role) {
		return true
	}
	for _, scope := range scopes {
		if scope == required {
			return true
		}
	}
	return false
}
