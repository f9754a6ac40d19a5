package repositories

import (
	"context"

	"stockledger/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BranchRepository interface {
	WithTx(tx DBTX) BranchRepository
	Create(ctx context.Context, branch *models.Branch) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Branch, error)
	FindActive(ctx context.Context, tenantID, id uuid.UUID) (*models.Branch, error)
}

type branchRepo struct {
	db DBTX
}

func NewBranchRepo(db DBTX) BranchRepository {
	return &branchRepo{db: db}
}

func (r *branchRepo) WithTx(tx DBTX) BranchRepository {
	return &branchRepo{db: tx}
}

func (r *branchRepo) Create(ctx context.Context, branch *models.Branch) error {
	query := `
		INSERT INTO branches (id, tenant_id, name, location, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query, branch.ID, branch.TenantID, branch.Name, branch.Location, branch.Status).
		Scan(&branch.CreatedAt, &branch.UpdatedAt)
}

// GetByID returns the tenant's branch whatever its status, or nil when it does not exist.
func (r *branchRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Branch, error) {
	query := `
		SELECT id, tenant_id, name, location, status, created_at, updated_at
		FROM branches
		WHERE tenant_id = $1 AND id = $2
	`
	return nilOnNoRows(scanBranch(r.db.QueryRow(ctx, query, tenantID, id)))
}

// FindActive returns the branch only when it belongs to the tenant and is open,
// and nil otherwise. The row is share-locked so it cannot be closed while the
// calling transaction is in flight.
func (r *branchRepo) FindActive(ctx context.Context, tenantID, id uuid.UUID) (*models.Branch, error) {
	query := `
		SELECT id, tenant_id, name, location, status, created_at, updated_at
		FROM branches
		WHERE tenant_id = $1 AND id = $2 AND status = 'active'
		FOR SHARE
	`
	return nilOnNoRows(scanBranch(r.db.QueryRow(ctx, query, tenantID, id)))
}

func scanBranch(row pgx.Row) (*models.Branch, error) {
	branch := &models.Branch{}
	err := row.Scan(&branch.ID, &branch.TenantID, &branch.Name, &branch.Location, &branch.Status, &branch.CreatedAt, &branch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return branch, nil
}
