package domain

import "time"

// User is any authenticated actor: stakeholder, company contact, or admin.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	// AdministratorID points at the delegate who handles notifications for
	// this user; used by the role-fallback rule for owners, object owners,
	// tenants and janitors.
	AdministratorID *string
	CompanyID       *string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Company is a repair company that receives damage requests.
type Company struct {
	ID            string
	Name          string
	Email         string
	ContactUserID *string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Apartment is the rental unit a damage is reported against. The stakeholder
// user ids resolve routed responsibility per role.
type Apartment struct {
	ID              string
	ObjectID        string
	Label           string
	TenantUserID    *string
	OwnerUserID     *string
	JanitorUserID   *string
	PropertyAdminID *string
	CreatedAt       time.Time
}

// StakeholderFor returns the apartment user acting in the given role, if any.
func (a *Apartment) StakeholderFor(role Role) *string {
	switch role {
	case RoleTenant:
		return a.TenantUserID
	case RoleOwner, RoleObjectOwner:
		return a.OwnerUserID
	case RoleJanitor:
		return a.JanitorUserID
	case RolePropertyAdmin:
		return a.PropertyAdminID
	}
	return nil
}
