package repositories

import (
	"context"

	"stockledger/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TenantRepository interface {
	WithTx(tx DBTX) TenantRepository
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Tenant, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Tenant, error)
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

type tenantRepo struct {
	db DBTX
}

func NewTenantRepo(db DBTX) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) WithTx(tx DBTX) TenantRepository {
	return &tenantRepo{db: tx}
}

const tenantColumns = `id, name, owner_id, plan, status, created_at, updated_at`

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, owner_id, plan, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, tenant.ID, tenant.Name, tenant.OwnerID, tenant.Plan, tenant.Status).
		Scan(&tenant.CreatedAt, &tenant.UpdatedAt)
}

// GetByID returns nil when the tenant does not exist.
func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return nilOnNoRows(scanTenant(r.db.QueryRow(ctx, query, id)))
}

// UpdateName returns nil when the tenant does not exist.
func (r *tenantRepo) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Tenant, error) {
	query := `UPDATE tenants SET name = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + tenantColumns
	return nilOnNoRows(scanTenant(r.db.QueryRow(ctx, query, id, name)))
}

// UpdateStatus returns nil when the tenant does not exist.
func (r *tenantRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Tenant, error) {
	query := `UPDATE tenants SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + tenantColumns
	return nilOnNoRows(scanTenant(r.db.QueryRow(ctx, query, id, status)))
}

func (r *tenantRepo) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM tenants WHERE status = 'active' ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	t := &models.Tenant{}
	if err := row.Scan(&t.ID, &t.Name, &t.OwnerID, &t.Plan, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}
