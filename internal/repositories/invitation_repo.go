package repositories

import (
	"context"
	"time"

	"stockledger/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type InvitationRepository interface {
	WithTx(tx DBTX) InvitationRepository
	Create(ctx context.Context, invitation *models.Invitation) error
	HasPending(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
	GetPendingByTokenForUpdate(ctx context.Context, token string) (*models.Invitation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	RejectByToken(ctx context.Context, token, email string) (bool, error)
	Revoke(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	ListPending(ctx context.Context, tenantID uuid.UUID) ([]*models.Invitation, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type invitationRepo struct {
	db DBTX
}

func NewInvitationRepo(db DBTX) InvitationRepository {
	return &invitationRepo{db: db}
}

func (r *invitationRepo) WithTx(tx DBTX) InvitationRepository {
	return &invitationRepo{db: tx}
}

const invitationColumns = `id, tenant_id, email, role, invite_token, invited_by, status, expires_at, created_at, updated_at`

func (r *invitationRepo) Create(ctx context.Context, inv *models.Invitation) error {
	query := `
		INSERT INTO invitations (id, tenant_id, email, role, invite_token, invited_by, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		inv.ID, inv.TenantID, inv.Email, inv.Role, inv.Token, inv.InvitedBy, inv.Status, inv.ExpiresAt,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
}

func (r *invitationRepo) HasPending(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM invitations WHERE tenant_id = $1 AND email = $2 AND status = 'pending')`
	var exists bool
	if err := r.db.QueryRow(ctx, query, tenantID, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// GetPendingByTokenForUpdate locks a pending invitation. Returns nil when none matches.
func (r *invitationRepo) GetPendingByTokenForUpdate(ctx context.Context, token string) (*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE invite_token = $1 AND status = 'pending' FOR UPDATE`
	return nilOnNoRows(scanInvitation(r.db.QueryRow(ctx, query, token)))
}

func (r *invitationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE invitations SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, status)
	return err
}

func (r *invitationRepo) RejectByToken(ctx context.Context, token, email string) (bool, error) {
	query := `
		UPDATE invitations SET status = 'rejected', updated_at = NOW()
		WHERE invite_token = $1 AND email = $2 AND status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query, token, email)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *invitationRepo) Revoke(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	query := `
		UPDATE invitations SET status = 'revoked', updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query, tenantID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *invitationRepo) ListPending(ctx context.Context, tenantID uuid.UUID) ([]*models.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE tenant_id = $1 AND status = 'pending' ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// ExpireOverdue marks every pending invitation whose expiry has passed as expired.
func (r *invitationRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE invitations SET status = 'expired', updated_at = NOW() WHERE status = 'pending' AND expires_at <= $1`
	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanInvitation(row pgx.Row) (*models.Invitation, error) {
	inv := &models.Invitation{}
	err := row.Scan(&inv.ID, &inv.TenantID, &inv.Email, &inv.Role, &inv.Token, &inv.InvitedBy,
		&inv.Status, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}
