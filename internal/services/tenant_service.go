package services

import (
	"context"
	"fmt"
	"strings"

	"stockledger/internal/common"
	"stockledger/internal/models"
	"stockledger/internal/repositories"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type TenantService interface {
	Create(ctx context.Context, req *CreateTenantRequest) (*TenantWithMembership, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (*models.Tenant, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*models.Tenant, error)
}

type CreateTenantRequest struct {
	Name    string    `json:"tenant_name"`
	Plan    string    `json:"plan"`
	OwnerID uuid.UUID `json:"-"`
}

func (r *CreateTenantRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Plan = strings.TrimSpace(r.Plan)
	if r.Plan == "" {
		r.Plan = models.PlanFree
	}
}

func (r CreateTenantRequest) validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.OwnerID, validation.By(requiredUUID)),
	)
	if err != nil {
		return common.ErrMissingFields.Wrap(err)
	}
	if err := validation.Validate(r.Plan, validation.In(models.PlanFree, models.PlanPro, models.PlanEnterprise)); err != nil {
		return common.ErrInvalidPlan.Wrap(err)
	}
	return nil
}

type TenantWithMembership struct {
	Tenant     *models.Tenant     `json:"tenant"`
	Membership *models.Membership `json:"membership"`
}

type tenantService struct {
	txm            repositories.TxManager
	tenantRepo     repositories.TenantRepository
	membershipRepo repositories.MembershipRepository
	logger         *zap.Logger
	tracer         trace.Tracer
}

func NewTenantService(txm repositories.TxManager, tenantRepo repositories.TenantRepository, membershipRepo repositories.MembershipRepository, logger *zap.Logger) TenantService {
	return &tenantService{
		txm:            txm,
		tenantRepo:     tenantRepo,
		membershipRepo: membershipRepo,
		logger:         logger,
		tracer:         otel.Tracer("stockledger/tenants"),
	}
}

// Create inserts the tenant and its founding tenantAdmin membership in one
// transaction. Neither row exists unless both do.
func (s *tenantService) Create(ctx context.Context, req *CreateTenantRequest) (*TenantWithMembership, error) {
	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "tenant.create", trace.WithAttributes(
		attribute.String("user.id", req.OwnerID.String()),
		attribute.String("tenant.plan", req.Plan),
	))
	defer span.End()

	tenant := &models.Tenant{
		ID:      uuid.New(),
		Name:    req.Name,
		OwnerID: req.OwnerID,
		Plan:    req.Plan,
		Status:  models.TenantStatusActive,
	}
	membership := &models.Membership{
		ID:       uuid.New(),
		TenantID: tenant.ID,
		UserID:   req.OwnerID,
		Role:     models.RoleTenantAdmin,
		Status:   models.MembershipStatusActive,
	}

	err := s.txm.WithinTx(ctx, func(tx pgx.Tx) error {
		if err := s.tenantRepo.WithTx(tx).Create(ctx, tenant); err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}
		if err := s.membershipRepo.WithTx(tx).Create(ctx, membership); err != nil {
			return fmt.Errorf("create admin membership: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.logger.Info("tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("owner_id", tenant.OwnerID.String()),
		zap.String("plan", tenant.Plan))
	return &TenantWithMembership{Tenant: tenant, Membership: membership}, nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	if tenant == nil {
		return nil, common.ErrTenantNotFound
	}
	return tenant, nil
}

func (s *tenantService) Rename(ctx context.Context, id uuid.UUID, name string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)
	if err := validation.Validate(name, validation.Required, validation.Length(2, 100)); err != nil {
		return nil, common.ErrMissingFields.Wrap(err)
	}

	tenant, err := s.tenantRepo.UpdateName(ctx, id, name)
	if err != nil {
		return nil, fmt.Errorf("rename tenant: %w", err)
	}
	if tenant == nil {
		return nil, common.ErrTenantNotFound
	}
	return tenant, nil
}

func (s *tenantService) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*models.Tenant, error) {
	if err := validation.Validate(status, validation.Required, validation.In(models.TenantStatusActive, models.TenantStatusSuspended)); err != nil {
		return nil, common.ErrInvalidTenantStatus.Wrap(err)
	}

	tenant, err := s.tenantRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("change tenant status: %w", err)
	}
	if tenant == nil {
		return nil, common.ErrTenantNotFound
	}

	s.logger.Info("tenant status changed", zap.String("tenant_id", id.String()), zap.String("status", status))
	return tenant, nil
}
