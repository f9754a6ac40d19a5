package repositories

import (
	"context"
	"errors"

	"stockledger/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InventoryRepository interface {
	WithTx(tx DBTX) InventoryRepository
	UpsertIncrement(ctx context.Context, inventory *models.Inventory) (*models.Inventory, error)
	Get(ctx context.Context, key models.LedgerKey) (*models.Inventory, error)
	GetForUpdate(ctx context.Context, key models.LedgerKey) (*models.Inventory, error)
	Decrement(ctx context.Context, key models.LedgerKey, quantity int) (*models.Inventory, error)
	SetQuantity(ctx context.Context, key models.LedgerKey, quantity int) (*models.Inventory, error)
	ListByBranch(ctx context.Context, tenantID, branchID uuid.UUID, limit, offset int) ([]*models.Inventory, int64, error)
	ListLowStock(ctx context.Context, tenantID uuid.UUID, threshold int) ([]models.LowStockItem, error)
	CountLowStock(ctx context.Context, tenantID uuid.UUID, threshold int) (int64, error)
}

type inventoryRepo struct {
	db DBTX
}

func NewInventoryRepo(db DBTX) InventoryRepository {
	return &inventoryRepo{db: db}
}

func (r *inventoryRepo) WithTx(tx DBTX) InventoryRepository {
	return &inventoryRepo{db: tx}
}

const inventoryColumns = `id, tenant_id, branch_id, product_id, quantity, selling_price, cost_price, created_at, updated_at`

// UpsertIncrement creates the row for the key with inventory.Quantity, or adds
// inventory.Quantity to the existing row. Prices are only taken on insert.
func (r *inventoryRepo) UpsertIncrement(ctx context.Context, inventory *models.Inventory) (*models.Inventory, error) {
	query := `
		INSERT INTO inventory (id, tenant_id, branch_id, product_id, quantity, selling_price, cost_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (tenant_id, branch_id, product_id)
		DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING ` + inventoryColumns
	return scanInventory(r.db.QueryRow(ctx, query,
		inventory.ID, inventory.TenantID, inventory.BranchID, inventory.ProductID,
		inventory.Quantity, inventory.SellingPrice, inventory.CostPrice,
	))
}

func (r *inventoryRepo) Get(ctx context.Context, key models.LedgerKey) (*models.Inventory, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE tenant_id = $1 AND branch_id = $2 AND product_id = $3`
	return nilOnNoRows(scanInventory(r.db.QueryRow(ctx, query, key.TenantID, key.BranchID, key.ProductID)))
}

// GetForUpdate locks the row for the rest of the transaction. Returns nil when absent.
func (r *inventoryRepo) GetForUpdate(ctx context.Context, key models.LedgerKey) (*models.Inventory, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory WHERE tenant_id = $1 AND branch_id = $2 AND product_id = $3 FOR UPDATE`
	return nilOnNoRows(scanInventory(r.db.QueryRow(ctx, query, key.TenantID, key.BranchID, key.ProductID)))
}

// Decrement subtracts quantity only if enough stock remains. Returns nil when the
// row is missing or the guard rejected the update.
func (r *inventoryRepo) Decrement(ctx context.Context, key models.LedgerKey, quantity int) (*models.Inventory, error) {
	query := `
		UPDATE inventory
		SET quantity = quantity - $4, updated_at = NOW()
		WHERE tenant_id = $1 AND branch_id = $2 AND product_id = $3 AND quantity >= $4
		RETURNING ` + inventoryColumns
	return nilOnNoRows(scanInventory(r.db.QueryRow(ctx, query, key.TenantID, key.BranchID, key.ProductID, quantity)))
}

func (r *inventoryRepo) SetQuantity(ctx context.Context, key models.LedgerKey, quantity int) (*models.Inventory, error) {
	query := `
		UPDATE inventory
		SET quantity = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND branch_id = $2 AND product_id = $3
		RETURNING ` + inventoryColumns
	return nilOnNoRows(scanInventory(r.db.QueryRow(ctx, query, key.TenantID, key.BranchID, key.ProductID, quantity)))
}

// ListByBranch returns one page of the branch's inventory, most recently changed
// first, with the total number of rows.
func (r *inventoryRepo) ListByBranch(ctx context.Context, tenantID, branchID uuid.UUID, limit, offset int) ([]*models.Inventory, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM inventory WHERE tenant_id = $1 AND branch_id = $2`
	if err := r.db.QueryRow(ctx, countQuery, tenantID, branchID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + inventoryColumns + `
		FROM inventory
		WHERE tenant_id = $1 AND branch_id = $2
		ORDER BY updated_at DESC, id
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, branchID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var inventories []*models.Inventory
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, 0, err
		}
		inventories = append(inventories, inv)
	}
	return inventories, total, rows.Err()
}

// lowStockFrom selects the tenant's rows at or below the threshold whose branch
// is open and whose product is active. ListLowStock and CountLowStock share it so
// the count always matches the listed items.
const lowStockFrom = `
		FROM inventory i
		JOIN branches b ON b.id = i.branch_id AND b.tenant_id = i.tenant_id
		JOIN products p ON p.id = i.product_id AND p.tenant_id = i.tenant_id
		WHERE i.tenant_id = $1 AND i.quantity <= $2 AND b.status = 'active' AND p.status = 'active'`

func (r *inventoryRepo) ListLowStock(ctx context.Context, tenantID uuid.UUID, threshold int) ([]models.LowStockItem, error) {
	query := `SELECT i.branch_id, b.name, i.product_id, p.name, i.quantity` + lowStockFrom + `
		ORDER BY i.quantity ASC, p.name ASC`
	rows, err := r.db.Query(ctx, query, tenantID, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.LowStockItem
	for rows.Next() {
		var item models.LowStockItem
		if err := rows.Scan(&item.BranchID, &item.BranchName, &item.ProductID, &item.ProductName, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *inventoryRepo) CountLowStock(ctx context.Context, tenantID uuid.UUID, threshold int) (int64, error) {
	query := `SELECT COUNT(*)` + lowStockFrom
	var count int64
	if err := r.db.QueryRow(ctx, query, tenantID, threshold).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanInventory(row pgx.Row) (*models.Inventory, error) {
	inv := &models.Inventory{}
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.BranchID, &inv.ProductID, &inv.Quantity,
		&inv.SellingPrice, &inv.CostPrice, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func nilOnNoRows[T any](v *T, err error) (*T, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}
