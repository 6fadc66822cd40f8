package models

// Role is the marketplace role carried by an authenticated caller.
type Role string

const (
	RoleSeller       Role = "seller"
	RoleBuyer        Role = "buyer"
	RoleAmbassador   Role = "ambassador"
	RoleTrustManager Role = "trust_manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSeller, RoleBuyer, RoleAmbassador, RoleTrustManager:
		return true
	}
	return false
}

// Principal identifies the caller of a request.
type Principal struct {
	UserID uint `json:"user_id"`
	Role   Role `json:"role"`
}

func (p Principal) Is(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
