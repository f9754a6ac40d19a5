package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerKey identifies one inventory row.
type LedgerKey struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	BranchID  uuid.UUID `json:"branch_id"`
	ProductID uuid.UUID `json:"product_id"`
}

func (k LedgerKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.TenantID, k.BranchID, k.ProductID)
}

// Inventory is the quantity snapshot for one ledger key. Quantity is derived from
// the key's inventory transactions and is only written by the ledger.
type Inventory struct {
	ID           uuid.UUID           `json:"id" db:"id"`
	TenantID     uuid.UUID           `json:"tenant_id" db:"tenant_id"`
	BranchID     uuid.UUID           `json:"branch_id" db:"branch_id"`
	ProductID    uuid.UUID           `json:"product_id" db:"product_id"`
	Quantity     int                 `json:"quantity" db:"quantity"`
	SellingPrice decimal.Decimal     `json:"selling_price" db:"selling_price"`
	CostPrice    decimal.NullDecimal `json:"cost_price" db:"cost_price"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

func (i *Inventory) Key() LedgerKey {
	return LedgerKey{TenantID: i.TenantID, BranchID: i.BranchID, ProductID: i.ProductID}
}

// LowStockItem is an inventory row at or below the alert threshold.
type LowStockItem struct {
	BranchID    uuid.UUID `json:"branch_id"`
	BranchName  string    `json:"branch_name"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
}

// LedgerDrift reports a key whose snapshot no longer matches its transaction log.
type LedgerDrift struct {
	BranchID       uuid.UUID `json:"branch_id"`
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	TransactionSum int       `json:"transaction_sum"`
}
