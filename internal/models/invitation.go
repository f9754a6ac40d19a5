package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
	InvitationStatusExpired  = "expired"
	InvitationStatusRevoked  = "revoked"
	InvitationStatusRejected = "rejected"
)

type Invitation struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Email     string    `json:"email" db:"email"`
	Role      string    `json:"role" db:"role"`
	Token     string    `json:"invite_token,omitempty" db:"invite_token"`
	InvitedBy uuid.UUID `json:"invited_by" db:"invited_by"`
	Status    string    `json:"status" db:"status"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (i *Invitation) ExpiredAt(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
