package domain

type Role string

const (
	RoleCandidate Role = "CANDIDATE"
	RoleEmployer  Role = "EMPLOYER"
	RoleStaff     Role = "STAFF"
	RoleAdmin     Role = "ADMIN"
	RoleSystem    Role = "SYSTEM"
)

// Actor is the already-authenticated caller of a workflow operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SystemActor performs policy-driven transitions (expiry sweeps, auto-cancel).
var SystemActor = Actor{ID: "system", Role: RoleSystem}

func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin || a.Role == RoleSystem
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

func (r Role) Valid() bool {
	switch r {
	case RoleCandidate, RoleEmployer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Contact is the delivery address book entry for an actor.
type Contact struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}
