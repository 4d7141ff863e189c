package middleware

import "github.com/dfierro/tavola-api/models"

// roleGroups maps each role to the event groups its connections may join.
// Kept as a lookup table so group access rules live in one place.
var roleGroups = map[string][]string{
	models.RoleAdmin:   {"admin", "kitchen", "waiter", "cashier"},
	models.RoleManager: {"admin", "kitchen", "waiter", "cashier"},
	models.RoleWaiter:  {"waiter"},
	models.RoleKitchen: {"kitchen"},
	models.RoleCashier: {"cashier"},
}

// GroupsForRole returns the role-group names a caller with the given role
// may join. Table groups are open to every authenticated role.
func GroupsForRole(role string) []string {
	groups := roleGroups[role]
	out := make([]string, len(groups))
	copy(out, groups)
	return out
}

// CanJoinGroup reports whether the given role may join the named role group
func CanJoinGroup(role, group string) bool {
	for _, g := range roleGroups[role] {
		if g == group {
			return true
		}
	}
	return false
}
