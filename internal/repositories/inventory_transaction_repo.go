package repositories

import (
	"context"
	"fmt"
	"strings"

	"stockledger/internal/models"

	"github.com/google/uuid"
)

type InventoryTransactionRepository interface {
	WithTx(tx DBTX) InventoryTransactionRepository
	Create(ctx context.Context, txn *models.InventoryTransaction) error
	List(ctx context.Context, tenantID uuid.UUID, filter models.TransactionFilter) ([]*models.InventoryTransaction, int64, error)
	FindDrift(ctx context.Context, tenantID uuid.UUID) ([]models.LedgerDrift, error)
}

type inventoryTransactionRepo struct {
	db DBTX
}

func NewInventoryTransactionRepo(db DBTX) InventoryTransactionRepository {
	return &inventoryTransactionRepo{db: db}
}

func (r *inventoryTransactionRepo) WithTx(tx DBTX) InventoryTransactionRepository {
	return &inventoryTransactionRepo{db: tx}
}

func (r *inventoryTransactionRepo) Create(ctx context.Context, txn *models.InventoryTransaction) error {
	query := `
		INSERT INTO inventory_transactions (id, tenant_id, branch_id, product_id, type, quantity, user_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query,
		txn.ID, txn.TenantID, txn.BranchID, txn.ProductID, string(txn.Type), txn.Quantity, txn.UserID, txn.Note,
	).Scan(&txn.CreatedAt)
}

// List returns one page of the tenant's transactions, newest first, with the
// total number of matches.
func (r *inventoryTransactionRepo) List(ctx context.Context, tenantID uuid.UUID, filter models.TransactionFilter) ([]*models.InventoryTransaction, int64, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	argIndex := 2

	if filter.BranchID != nil {
		where = append(where, fmt.Sprintf("branch_id = $%d", argIndex))
		args = append(args, *filter.BranchID)
		argIndex++
	}
	if filter.ProductID != nil {
		where = append(where, fmt.Sprintf("product_id = $%d", argIndex))
		args = append(args, *filter.ProductID)
		argIndex++
	}
	if filter.Type != nil {
		where = append(where, fmt.Sprintf("type = $%d", argIndex))
		args = append(args, string(*filter.Type))
		argIndex++
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.From)
		argIndex++
	}
	if filter.Until != nil {
		where = append(where, fmt.Sprintf("created_at < $%d", argIndex))
		args = append(args, *filter.Until)
		argIndex++
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM inventory_transactions WHERE " + whereClause
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, tenant_id, branch_id, product_id, type, quantity, user_id, note, created_at
		FROM inventory_transactions
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txns []*models.InventoryTransaction
	for rows.Next() {
		t := &models.InventoryTransaction{}
		var txType string
		if err := rows.Scan(&t.ID, &t.TenantID, &t.BranchID, &t.ProductID, &txType, &t.Quantity, &t.UserID, &t.Note, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		t.Type = models.TransactionType(txType)
		txns = append(txns, t)
	}
	return txns, total, rows.Err()
}

// FindDrift lists every inventory row of the tenant whose quantity differs from
// the signed sum of its transactions.
func (r *inventoryTransactionRepo) FindDrift(ctx context.Context, tenantID uuid.UUID) ([]models.LedgerDrift, error) {
	query := `
		SELECT i.branch_id, i.product_id, i.quantity, COALESCE(t.total, 0)::int
		FROM inventory i
		LEFT JOIN (
			SELECT branch_id, product_id,
				SUM(CASE WHEN type IN ('SALE', 'REMOVE') THEN -quantity ELSE quantity END) AS total
			FROM inventory_transactions
			WHERE tenant_id = $1
			GROUP BY branch_id, product_id
		) t ON t.branch_id = i.branch_id AND t.product_id = i.product_id
		WHERE i.tenant_id = $1 AND i.quantity <> COALESCE(t.total, 0)
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drifts []models.LedgerDrift
	for rows.Next() {
		var d models.LedgerDrift
		if err := rows.Scan(&d.BranchID, &d.ProductID, &d.Quantity, &d.TransactionSum); err != nil {
			return nil, err
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}
