package repositories

import (
	"context"
	"errors"

	"stockledger/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProductRepository interface {
	WithTx(tx DBTX) ProductRepository
	Create(ctx context.Context, product *models.Product) error
	FindActive(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error)
}

type productRepo struct {
	db DBTX
}

func NewProductRepo(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) WithTx(tx DBTX) ProductRepository {
	return &productRepo{db: tx}
}

const productColumns = `id, tenant_id, name, selling_price, cost_price, unit, category, status, created_at, updated_at`

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, tenant_id, name, selling_price, cost_price, unit, category, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		product.ID, product.TenantID, product.Name, product.SellingPrice, product.CostPrice,
		product.Unit, product.Category, product.Status,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
}

// FindActive returns the product only when it belongs to the tenant and is active, nil otherwise.
func (r *productRepo) FindActive(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND id = $2 AND status = 'active' FOR SHARE`
	product, err := scanProduct(r.db.QueryRow(ctx, query, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return product, err
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.SellingPrice, &p.CostPrice, &p.Unit, &p.Category, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
