package domain

// Role enumerates the actors that participate in a damage ticket.
type Role string

const (
	RoleTenant        Role = "TENANT"
	RoleOwner         Role = "OWNER"
	RoleObjectOwner   Role = "OBJECT_OWNER"
	RolePropertyAdmin Role = "PROPERTY_ADMIN"
	RoleJanitor       Role = "JANITOR"
	RoleCompany       Role = "COMPANY"
	RoleCompanyUser   Role = "COMPANY_USER"
	RoleAdmin         Role = "ADMIN"
	RoleGuest         Role = "GUEST"
)

// StakeholderRoles are the roles that can author a damage report and act as
// the responsible party on the stakeholder side of the negotiation.
var StakeholderRoles = []Role{
	RoleTenant,
	RoleOwner,
	RoleObjectOwner,
	RolePropertyAdmin,
	RoleJanitor,
}

// roleSortRank orders roles for administrator fallback resolution: when a
// responsibility cannot be placed on the acting role, it moves up this order.
var roleSortRank = map[Role]int{
	RoleTenant:        10,
	RoleJanitor:       20,
	RoleOwner:         30,
	RoleObjectOwner:   40,
	RolePropertyAdmin: 50,
	RoleCompanyUser:   60,
	RoleCompany:       70,
	RoleAdmin:         80,
	RoleGuest:         90,
}

// SortRank returns the fixed ordering rank for a role. Unknown roles sort last.
func (r Role) SortRank() int {
	if rank, ok := roleSortRank[r]; ok {
		return rank
	}
	return 100
}

// IsStakeholder reports whether the role sits on the stakeholder side of the
// ticket lifecycle (as opposed to a repair company or an administrator).
func (r Role) IsStakeholder() bool {
	for _, role := range StakeholderRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsCompany reports whether the role belongs to a repair company.
func (r Role) IsCompany() bool {
	return r == RoleCompany || r == RoleCompanyUser
}

// HasAdministratorFallback reports whether a user acting in this role may
// delegate responsibility to a configured administrator.
func (r Role) HasAdministratorFallback() bool {
	switch r {
	case RoleOwner, RoleObjectOwner, RoleTenant, RoleJanitor:
		return true
	}
	return false
}
