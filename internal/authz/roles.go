package authz

import "github.com/golang-jwt/jwt/v5"

const (
	RoleMember  = 10
	RoleManager = 20
	RoleAudit   = 30
	RoleFinance = 40
	RoleAdmin   = 50
)

// Claims is the JWT payload issued on login.
type Claims struct {
	UserID int64 `json:"user_id"`
	RoleID int   `json:"role_id"`
	jwt.RegisteredClaims
}

func IsKnownRole(roleID int) bool {
	switch roleID {
	case RoleMember, RoleManager, RoleAudit, RoleFinance, RoleAdmin:
		return true
	}
	return false
}

// CanPlan reports whether the role may change schedules, allocations and budgets.
func CanPlan(roleID int) bool {
	return roleID == RoleManager || roleID == RoleAdmin
}

// CanSeeMoney reports whether the role may read budgets and billing exports.
func CanSeeMoney(roleID int) bool {
	return roleID == RoleManager || roleID == RoleFinance || roleID == RoleAudit || roleID == RoleAdmin
}

func IsReadOnly(roleID int) bool {
	return roleID == RoleAudit
}
