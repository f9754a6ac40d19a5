package jobs

import (
	"context"
	"fmt"

	"stockledger/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LedgerReconciler interface {
	Reconcile(ctx context.Context, tenantID uuid.UUID) ([]models.LedgerDrift, error)
}

// ReconciliationJob compares every inventory snapshot with the sum of its
// transactions and reports keys where they differ.
type ReconciliationJob struct {
	tenants TenantLister
	ledger  LedgerReconciler
	logger  *zap.Logger
}

func NewReconciliationJob(tenants TenantLister, ledger LedgerReconciler, logger *zap.Logger) *ReconciliationJob {
	return &ReconciliationJob{tenants: tenants, ledger: ledger, logger: logger}
}

// Run returns the number of drifting keys found across all active tenants.
func (j *ReconciliationJob) Run(ctx context.Context) (int, error) {
	tenantIDs, err := j.tenants.ListActiveIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tenants: %w", err)
	}

	drifting := 0
	for _, tenantID := range tenantIDs {
		drifts, err := j.ledger.Reconcile(ctx, tenantID)
		if err != nil {
			j.logger.Error("reconciliation failed", zap.String("tenant_id", tenantID.String()), zap.Error(err))
			continue
		}
		for _, d := range drifts {
			j.logger.Error("ledger drift",
				zap.String("tenant_id", tenantID.String()),
				zap.String("branch_id", d.BranchID.String()),
				zap.String("product_id", d.ProductID.String()),
				zap.Int("quantity", d.Quantity),
				zap.Int("transaction_sum", d.TransactionSum))
		}
		drifting += len(drifts)
	}

	j.logger.Info("reconciliation completed", zap.Int("tenants", len(tenantIDs)), zap.Int("drifting_keys", drifting))
	return drifting, nil
}
