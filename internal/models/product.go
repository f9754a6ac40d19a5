package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

type Product struct {
	ID           uuid.UUID           `json:"id" db:"id"`
	TenantID     uuid.UUID           `json:"tenant_id" db:"tenant_id"`
	Name         string              `json:"name" db:"name"`
	SellingPrice decimal.Decimal     `json:"selling_price" db:"selling_price"`
	CostPrice    decimal.NullDecimal `json:"cost_price" db:"cost_price"`
	Unit         string              `json:"unit" db:"unit"`
	Category     string              `json:"category" db:"category"`
	Status       string              `json:"status" db:"status"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}
