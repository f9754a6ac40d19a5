package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"stockledger/internal/common"
	"stockledger/internal/models"
	"stockledger/internal/repositories"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultInvitationTTL = 7 * 24 * time.Hour

type InviteRequest struct {
	TenantID  uuid.UUID `json:"-"`
	InvitedBy uuid.UUID `json:"-"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

type AcceptInvitationRequest struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"-"`
	Email  string    `json:"-"`
}

type MembershipService interface {
	Invite(ctx context.Context, req *InviteRequest) (*models.Invitation, error)
	Accept(ctx context.Context, req *AcceptInvitationRequest) (*models.Membership, error)
	Reject(ctx context.Context, token string, caller models.Caller) error
	Revoke(ctx context.Context, tenantID, invitationID uuid.UUID) error
	ListPending(ctx context.Context, tenantID uuid.UUID) ([]*models.Invitation, error)
	ListMembers(ctx context.Context, tenantID uuid.UUID) ([]*models.Membership, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

type MembershipOptions struct {
	InvitationTTL time.Duration
	Now           func() time.Time
	NewToken      func() (string, error)
}

type membershipService struct {
	txm            repositories.TxManager
	invitationRepo repositories.InvitationRepository
	membershipRepo repositories.MembershipRepository
	logger         *zap.Logger
	tracer         trace.Tracer
	ttl            time.Duration
	now            func() time.Time
	newToken       func() (string, error)
}

func NewMembershipService(txm repositories.TxManager, invitationRepo repositories.InvitationRepository, membershipRepo repositories.MembershipRepository, logger *zap.Logger, opts MembershipOptions) MembershipService {
	if opts.InvitationTTL <= 0 {
		opts.InvitationTTL = defaultInvitationTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewToken == nil {
		opts.NewToken = generateInviteToken
	}
	return &membershipService{
		txm:            txm,
		invitationRepo: invitationRepo,
		membershipRepo: membershipRepo,
		logger:         logger,
		tracer:         otel.Tracer("stockledger/memberships"),
		ttl:            opts.InvitationTTL,
		now:            opts.Now,
		newToken:       opts.NewToken,
	}
}

// generateInviteToken returns 32 random bytes, hex encoded.
func generateInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Invite creates a pending invitation. The duplicate check is a plain read, so two
// concurrent invites for the same address can both succeed.
func (s *membershipService) Invite(ctx context.Context, req *InviteRequest) (*models.Invitation, error) {
	req.Email = normalizeEmail(req.Email)

	err := validation.ValidateStruct(req,
		validation.Field(&req.TenantID, validation.By(requiredUUID)),
		validation.Field(&req.InvitedBy, validation.By(requiredUUID)),
		validation.Field(&req.Email, validation.Required),
		validation.Field(&req.Role, validation.Required),
	)
	if err != nil {
		return nil, common.ErrMissingFields.Wrap(err)
	}
	if err := validation.Validate(req.Email, is.Email); err != nil {
		return nil, common.ErrInvalidEmail.Wrap(err)
	}
	if req.Role != models.RoleManager && req.Role != models.RoleUser {
		return nil, common.ErrInvalidRole
	}

	pending, err := s.invitationRepo.HasPending(ctx, req.TenantID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check pending invitation: %w", err)
	}
	if pending {
		return nil, common.ErrDuplicateInvitation
	}

	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate invite token: %w", err)
	}

	invitation := &models.Invitation{
		ID:        uuid.New(),
		TenantID:  req.TenantID,
		Email:     req.Email,
		Role:      req.Role,
		Token:     token,
		InvitedBy: req.InvitedBy,
		Status:    models.InvitationStatusPending,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	if err := s.invitationRepo.Create(ctx, invitation); err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	s.logger.Info("invitation created",
		zap.String("tenant_id", invitation.TenantID.String()),
		zap.String("invitation_id", invitation.ID.String()),
		zap.String("role", invitation.Role))
	return invitation, nil
}

// Accept turns a pending invitation into an active membership. An expired
// invitation is marked expired and that change is committed even though the
// accept itself fails.
func (s *membershipService) Accept(ctx context.Context, req *AcceptInvitationRequest) (*models.Membership, error) {
	req.Token = strings.TrimSpace(req.Token)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Token, validation.Required),
		validation.Field(&req.UserID, validation.By(requiredUUID)),
		validation.Field(&req.Email, validation.Required),
	)
	if err != nil {
		return nil, common.ErrMissingFields.Wrap(err)
	}

	ctx, span := s.tracer.Start(ctx, "invitation.accept", trace.WithAttributes(
		attribute.String("user.id", req.UserID.String()),
	))
	defer span.End()

	var (
		membership *models.Membership
		expired    bool
	)
	err = s.txm.WithinTx(ctx, func(tx pgx.Tx) error {
		invitations := s.invitationRepo.WithTx(tx)

		invitation, err := invitations.GetPendingByTokenForUpdate(ctx, req.Token)
		if err != nil {
			return fmt.Errorf("load invitation: %w", err)
		}
		if invitation == nil {
			return common.ErrInvitationNotFound
		}
		if invitation.Email != req.Email {
			return common.ErrInvitationEmailMismatch
		}

		if invitation.ExpiredAt(s.now()) {
			if err := invitations.UpdateStatus(ctx, invitation.ID, models.InvitationStatusExpired); err != nil {
				return fmt.Errorf("expire invitation: %w", err)
			}
			expired = true
			return nil
		}

		memberships := s.membershipRepo.WithTx(tx)
		exists, err := memberships.Exists(ctx, invitation.TenantID, req.UserID)
		if err != nil {
			return fmt.Errorf("check membership: %w", err)
		}
		if exists {
			return common.ErrDuplicateMembership
		}

		membership = &models.Membership{
			ID:       uuid.New(),
			TenantID: invitation.TenantID,
			UserID:   req.UserID,
			Role:     invitation.Role,
			Status:   models.MembershipStatusActive,
		}
		if err := memberships.Create(ctx, membership); err != nil {
			return fmt.Errorf("create membership: %w", err)
		}
		if err := invitations.UpdateStatus(ctx, invitation.ID, models.InvitationStatusAccepted); err != nil {
			return fmt.Errorf("accept invitation: %w", err)
		}
		return nil
	})
	if err == nil && expired {
		err = common.ErrInvitationExpired
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.logger.Info("invitation accepted",
		zap.String("tenant_id", membership.TenantID.String()),
		zap.String("user_id", membership.UserID.String()),
		zap.String("role", membership.Role))
	return membership, nil
}

func (s *membershipService) Reject(ctx context.Context, token string, caller models.Caller) error {
	token = strings.TrimSpace(token)
	if token == "" || caller.Email == "" {
		return common.ErrMissingFields
	}

	ok, err := s.invitationRepo.RejectByToken(ctx, token, caller.Email)
	if err != nil {
		return fmt.Errorf("reject invitation: %w", err)
	}
	if !ok {
		return common.ErrInvitationNotFound
	}
	return nil
}

func (s *membershipService) Revoke(ctx context.Context, tenantID, invitationID uuid.UUID) error {
	ok, err := s.invitationRepo.Revoke(ctx, tenantID, invitationID)
	if err != nil {
		return fmt.Errorf("revoke invitation: %w", err)
	}
	if !ok {
		return common.ErrInvitationNotFound
	}
	return nil
}

func (s *membershipService) ListPending(ctx context.Context, tenantID uuid.UUID) ([]*models.Invitation, error) {
	invitations, err := s.invitationRepo.ListPending(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list pending invitations: %w", err)
	}
	if invitations == nil {
		invitations = []*models.Invitation{}
	}
	return invitations, nil
}

func (s *membershipService) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]*models.Membership, error) {
	members, err := s.membershipRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	if members == nil {
		members = []*models.Membership{}
	}
	return members, nil
}

// ExpireOverdue marks every pending invitation past its expiry as expired.
func (s *membershipService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.invitationRepo.ExpireOverdue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire invitations: %w", err)
	}
	return n, nil
}
