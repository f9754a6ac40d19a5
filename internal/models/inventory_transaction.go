package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeAdd    TransactionType = "ADD"
	TransactionTypeRemove TransactionType = "REMOVE"
	TransactionTypeAdjust TransactionType = "ADJUST"
	TransactionTypeSale   TransactionType = "SALE"
	// TransactionTypeReturn credits stock back. No operation produces it yet.
	TransactionTypeReturn TransactionType = "RETURN"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeAdd, TransactionTypeRemove, TransactionTypeAdjust, TransactionTypeSale, TransactionTypeReturn:
		return true
	}
	return false
}

// SignedDelta converts a stored transaction quantity into the change it applied to
// the inventory snapshot. SALE and REMOVE store the magnitude; ADJUST stores the delta.
func (t TransactionType) SignedDelta(quantity int) int {
	switch t {
	case TransactionTypeSale, TransactionTypeRemove:
		return -quantity
	default:
		return quantity
	}
}

// InventoryTransaction is an append-only audit record. Rows are never updated or deleted.
type InventoryTransaction struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	TenantID  uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	BranchID  uuid.UUID       `json:"branch_id" db:"branch_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Type      TransactionType `json:"type" db:"type"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UserID    uuid.UUID       `json:"user_id" db:"user_id"`
	Note      string          `json:"note,omitempty" db:"note"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// TransactionFilter holds the query criteria for listing inventory transactions.
type TransactionFilter struct {
	BranchID  *uuid.UUID       `json:"branch_id,omitempty"`
	ProductID *uuid.UUID       `json:"product_id,omitempty"`
	Type      *TransactionType `json:"type,omitempty"`
	From      *time.Time       `json:"from,omitempty"`  // inclusive
	Until     *time.Time       `json:"until,omitempty"` // exclusive
	Limit     int              `json:"limit,omitempty"`
	Offset    int              `json:"offset,omitempty"`
}
