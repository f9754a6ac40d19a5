package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleTenantAdmin = "tenantAdmin"
	RoleManager     = "manager"
	RoleUser        = "user"

	MembershipStatusActive    = "active"
	MembershipStatusInvited   = "invited"
	MembershipStatusSuspended = "suspended"
)

// Membership binds a user to a tenant. At most one exists per (user, tenant).
type Membership struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Role      string    `json:"role" db:"role"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Caller is the authenticated user as reported by the upstream authenticator.
type Caller struct {
	UserID uuid.UUID
	Email  string
}

// TenantContext is the resolved identity every tenant-scoped operation runs under.
// TenantID always comes from an active membership, never from client input.
type TenantContext struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Email    string
	Role     string
}

func (tc TenantContext) HasRole(roles ...string) bool {
	for _, r := range roles {
		if tc.Role == r {
			return true
		}
	}
	return false
}
