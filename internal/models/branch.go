package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BranchStatusActive = "active"
	BranchStatusClosed = "closed"
)

type Branch struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	Location  string    `json:"location" db:"location"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
