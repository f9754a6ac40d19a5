package repositories

import (
	"context"

	"stockledger/internal/common"
	"stockledger/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type MembershipRepository interface {
	WithTx(tx DBTX) MembershipRepository
	Create(ctx context.Context, membership *models.Membership) error
	FindActive(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error)
	Exists(ctx context.Context, tenantID, userID uuid.UUID) (bool, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Membership, error)
}

type membershipRepo struct {
	db DBTX
}

func NewMembershipRepo(db DBTX) MembershipRepository {
	return &membershipRepo{db: db}
}

func (r *membershipRepo) WithTx(tx DBTX) MembershipRepository {
	return &membershipRepo{db: tx}
}

// Create inserts the membership. A second membership for the same (user, tenant)
// fails with ErrDuplicateMembership.
func (r *membershipRepo) Create(ctx context.Context, membership *models.Membership) error {
	query := `
		INSERT INTO memberships (id, tenant_id, user_id, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, membership.ID, membership.TenantID, membership.UserID, membership.Role, membership.Status).
		Scan(&membership.CreatedAt, &membership.UpdatedAt)
	if isUniqueViolation(err) {
		return common.ErrDuplicateMembership.Wrap(err)
	}
	return err
}

// FindActive returns nil when the user has no active membership in the tenant.
func (r *membershipRepo) FindActive(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT m.id, m.tenant_id, m.user_id, m.role, m.status, m.created_at, m.updated_at
		FROM memberships m
		JOIN tenants t ON t.id = m.tenant_id
		WHERE m.tenant_id = $1 AND m.user_id = $2 AND m.status = 'active' AND t.status = 'active'
	`
	return nilOnNoRows(scanMembership(r.db.QueryRow(ctx, query, tenantID, userID)))
}

func (r *membershipRepo) Exists(ctx context.Context, tenantID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM memberships WHERE tenant_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, tenantID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *membershipRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Membership, error) {
	query := `
		SELECT id, tenant_id, user_id, role, status, created_at, updated_at
		FROM memberships
		WHERE tenant_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func scanMembership(row pgx.Row) (*models.Membership, error) {
	m := &models.Membership{}
	if err := row.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}
