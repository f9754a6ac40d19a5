package jobs

import (
	"context"
	"fmt"

	"stockledger/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantLister lists the tenants background jobs iterate over.
type TenantLister interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

type LowStockLister interface {
	ListLowStock(ctx context.Context, tenantID uuid.UUID, threshold int) ([]models.LowStockItem, error)
}

type InventoryAlertService struct {
	tenants   TenantLister
	inventory LowStockLister
	threshold int
	logger    *zap.Logger
}

type InventoryAlert struct {
	TenantID     uuid.UUID
	BranchID     uuid.UUID
	BranchName   string
	ProductID    uuid.UUID
	ProductName  string
	CurrentStock int
	Threshold    int
}

func NewInventoryAlertService(tenants TenantLister, inventory LowStockLister, threshold int, logger *zap.Logger) *InventoryAlertService {
	return &InventoryAlertService{
		tenants:   tenants,
		inventory: inventory,
		threshold: threshold,
		logger:    logger,
	}
}

// CheckLowStock returns one alert per open branch and active product at or below the threshold.
func (a *InventoryAlertService) CheckLowStock(ctx context.Context, tenantID uuid.UUID) ([]InventoryAlert, error) {
	items, err := a.inventory.ListLowStock(ctx, tenantID, a.threshold)
	if err != nil {
		return nil, fmt.Errorf("list low stock for tenant %s: %w", tenantID, err)
	}

	alerts := make([]InventoryAlert, 0, len(items))
	for _, item := range items {
		alerts = append(alerts, InventoryAlert{
			TenantID:     tenantID,
			BranchID:     item.BranchID,
			BranchName:   item.BranchName,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			CurrentStock: item.Quantity,
			Threshold:    a.threshold,
		})
	}
	return alerts, nil
}

func (a *InventoryAlertService) LogLowStockAlerts(alerts []InventoryAlert) {
	for _, alert := range alerts {
		a.logger.Warn("low stock",
			zap.String("tenant_id", alert.TenantID.String()),
			zap.String("branch", alert.BranchName),
			zap.String("product", alert.ProductName),
			zap.Int("quantity", alert.CurrentStock),
			zap.Int("threshold", alert.Threshold))
	}
}

// CheckAllTenants runs the low stock check for every active tenant. A failing
// tenant is logged and skipped.
func (a *InventoryAlertService) CheckAllTenants(ctx context.Context) error {
	tenantIDs, err := a.tenants.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}

	total := 0
	for _, tenantID := range tenantIDs {
		alerts, err := a.CheckLowStock(ctx, tenantID)
		if err != nil {
			a.logger.Error("low stock check failed", zap.String("tenant_id", tenantID.String()), zap.Error(err))
			continue
		}
		a.LogLowStockAlerts(alerts)
		total += len(alerts)
	}

	a.logger.Info("low stock check completed", zap.Int("tenants", len(tenantIDs)), zap.Int("alerts", total))
	return nil
}
