package services

import (
	"context"
	"fmt"

	"stockledger/internal/common"
	"stockledger/internal/models"
	"stockledger/internal/repositories"

	"github.com/google/uuid"
)

// RBACService resolves who a caller is inside a tenant.
type RBACService interface {
	ResolveTenantContext(ctx context.Context, caller models.Caller, tenantID uuid.UUID) (models.TenantContext, error)
	Authorize(tc models.TenantContext, roles ...string) error
}

type rbacService struct {
	membershipRepo repositories.MembershipRepository
}

func NewRBACService(membershipRepo repositories.MembershipRepository) RBACService {
	return &rbacService{membershipRepo: membershipRepo}
}

// ResolveTenantContext requires an active membership of the caller in an active
// tenant. The returned context carries the membership's tenant and role.
func (s *rbacService) ResolveTenantContext(ctx context.Context, caller models.Caller, tenantID uuid.UUID) (models.TenantContext, error) {
	membership, err := s.membershipRepo.FindActive(ctx, tenantID, caller.UserID)
	if err != nil {
		return models.TenantContext{}, fmt.Errorf("find membership: %w", err)
	}
	if membership == nil {
		return models.TenantContext{}, common.ErrNotMember
	}

	return models.TenantContext{
		TenantID: membership.TenantID,
		UserID:   membership.UserID,
		Email:    caller.Email,
		Role:     membership.Role,
	}, nil
}

func (s *rbacService) Authorize(tc models.TenantContext, roles ...string) error {
	if len(roles) == 0 || tc.HasRole(roles...) {
		return nil
	}
	return common.ErrInsufficientRole
}
