package identity

import "context"

// Role is an actor's assigned role.
type Role string

const (
	RoleDoctor     Role = "doctor"
	RoleNurse      Role = "nurse"
	RolePharmacist Role = "pharmacist"
	RoleLabTech    Role = "lab_tech"
	RoleAuditor    Role = "auditor"
	RoleAdminDB    Role = "admin_db"
	RoleETLService Role = "etl_service"
	RolePatient    Role = "patient"
)

// Roles lists every role in the enumeration, in reference-data order.
var Roles = []Role{
	RoleDoctor,
	RoleNurse,
	RolePharmacist,
	RoleLabTech,
	RoleAuditor,
	RoleAdminDB,
	RoleETLService,
	RolePatient,
}

// ParseRole returns the Role named by s and whether it belongs to the
// enumeration.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return Role(s), false
}

// Valid reports whether r is a member of the enumeration.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// String returns the role name, or "unassigned" for the empty role.
func (r Role) String() string {
	if r == "" {
		return "unassigned"
	}
	return string(r)
}

// Identity is a resolved actor.
type Identity struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
}

// Store resolves actor names to identities.
type Store interface {
	// Resolve returns the active identity named username, or ErrNotFound.
	Resolve(ctx context.Context, username string) (*Identity, error)
}

// PasswordUpdater is implemented by stores that can replace a stored hash.
type PasswordUpdater interface {
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
}
