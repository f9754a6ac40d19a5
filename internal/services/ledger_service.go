package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockledger/internal/caching"
	"stockledger/internal/common"
	"stockledger/internal/events"
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

// StockOperation is the input of one ledger mutation. The tenant and user come
// from the caller's resolved membership.
type StockOperation struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	BranchID  uuid.UUID `json:"branch_id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Quantity  *int      `json:"quantity"`
	Note      string    `json:"note"`
}

func (op StockOperation) key() models.LedgerKey {
	return models.LedgerKey{TenantID: op.TenantID, BranchID: op.BranchID, ProductID: op.ProductID}
}

// validate checks the input shape. It runs before any storage access.
func (op StockOperation) validate(txType models.TransactionType) error {
	err := validation.ValidateStruct(&op,
		validation.Field(&op.TenantID, validation.By(requiredUUID)),
		validation.Field(&op.BranchID, validation.By(requiredUUID)),
		validation.Field(&op.ProductID, validation.By(requiredUUID)),
		validation.Field(&op.UserID, validation.By(requiredUUID)),
		validation.Field(&op.Quantity, validation.NotNil),
	)
	if err != nil {
		return common.ErrMissingFields.Wrap(err)
	}

	quantity := *op.Quantity
	if txType == models.TransactionTypeAdjust {
		if quantity < 0 {
			return common.ErrNegativeAdjustTarget
		}
		if strings.TrimSpace(op.Note) == "" {
			return common.ErrAdjustmentNoteRequired
		}
		return nil
	}
	if quantity <= 0 {
		return common.ErrInvalidQuantity
	}
	return nil
}

func requiredUUID(value interface{}) error {
	if id, ok := value.(uuid.UUID); !ok || id == uuid.Nil {
		return errors.New("cannot be blank")
	}
	return nil
}

type TransactionPage struct {
	Transactions []*models.InventoryTransaction `json:"transactions"`
	Total        int64                          `json:"total"`
	Limit        int                            `json:"limit"`
	Offset       int                            `json:"offset"`
}

type InventoryPage struct {
	Inventory []*models.Inventory `json:"inventory"`
	Total     int64               `json:"total"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

type LowStockReport struct {
	Threshold int                   `json:"threshold"`
	Count     int64                 `json:"count"`
	Items     []models.LowStockItem `json:"items,omitempty"`
}

// LedgerService owns every mutation of inventory quantities. Each operation reads
// and writes one ledger key inside a single transaction and appends exactly one
// inventory transaction, so the snapshot always equals the sum of its deltas.
type LedgerService interface {
	Add(ctx context.Context, op StockOperation) (*models.Inventory, error)
	Sale(ctx context.Context, op StockOperation) (*models.Inventory, error)
	Remove(ctx context.Context, op StockOperation) (*models.Inventory, error)
	Adjust(ctx context.Context, op StockOperation) (*models.Inventory, error)
	Apply(ctx context.Context, txType models.TransactionType, op StockOperation) (*models.Inventory, error)

	GetInventory(ctx context.Context, key models.LedgerKey) (*models.Inventory, error)
	ListBranchInventory(ctx context.Context, tenantID, branchID uuid.UUID, limit, offset int) (*InventoryPage, error)
	ListTransactions(ctx context.Context, tenantID uuid.UUID, filter models.TransactionFilter) (*TransactionPage, error)
	LowStock(ctx context.Context, tenantID uuid.UUID, withItems bool) (*LowStockReport, error)
	Reconcile(ctx context.Context, tenantID uuid.UUID) ([]models.LedgerDrift, error)
}

type LedgerOptions struct {
	CacheTTL          time.Duration
	LowStockThreshold int
}

type ledgerService struct {
	txm          repositories.TxManager
	branches     repositories.BranchRepository
	products     repositories.ProductRepository
	inventory    repositories.InventoryRepository
	transactions repositories.InventoryTransactionRepository
	cache        caching.CacheService
	publisher    events.Publisher
	logger       *zap.Logger
	tracer       trace.Tracer
	opts         LedgerOptions
}

func NewLedgerService(
	txm repositories.TxManager,
	branches repositories.BranchRepository,
	products repositories.ProductRepository,
	inventory repositories.InventoryRepository,
	transactions repositories.InventoryTransactionRepository,
	cache caching.CacheService,
	publisher events.Publisher,
	logger *zap.Logger,
	opts LedgerOptions,
) LedgerService {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &ledgerService{
		txm:          txm,
		branches:     branches,
		products:     products,
		inventory:    inventory,
		transactions: transactions,
		cache:        cache,
		publisher:    publisher,
		logger:       logger,
		tracer:       otel.Tracer("stockledger/ledger"),
		opts:         opts,
	}
}

func (s *ledgerService) Add(ctx context.Context, op StockOperation) (*models.Inventory, error) {
	return s.Apply(ctx, models.TransactionTypeAdd, op)
}

func (s *ledgerService) Sale(ctx context.Context, op StockOperation) (*models.Inventory, error) {
	return s.Apply(ctx, models.TransactionTypeSale, op)
}

func (s *ledgerService) Remove(ctx context.Context, op StockOperation) (*models.Inventory, error) {
	return s.Apply(ctx, models.TransactionTypeRemove, op)
}

func (s *ledgerService) Adjust(ctx context.Context, op StockOperation) (*models.Inventory, error) {
	return s.Apply(ctx, models.TransactionTypeAdjust, op)
}

// Apply runs one ledger operation. RETURN has no operation and is rejected like
// any unknown type.
func (s *ledgerService) Apply(ctx context.Context, txType models.TransactionType, op StockOperation) (*models.Inventory, error) {
	switch txType {
	case models.TransactionTypeAdd, models.TransactionTypeSale, models.TransactionTypeRemove, models.TransactionTypeAdjust:
	default:
		return nil, common.ErrInvalidTransactionType
	}
	if err := op.validate(txType); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "ledger."+strings.ToLower(string(txType)), trace.WithAttributes(
		attribute.String("tenant.id", op.TenantID.String()),
		attribute.String("branch.id", op.BranchID.String()),
		attribute.String("product.id", op.ProductID.String()),
		attribute.Int("ledger.quantity", *op.Quantity),
	))
	defer span.End()

	var (
		updated *models.Inventory
		record  *models.InventoryTransaction
	)
	err := s.txm.WithinTx(ctx, func(tx pgx.Tx) error {
		product, err := s.checkScope(ctx, tx, op.key())
		if err != nil {
			return err
		}

		updated, record, err = s.mutate(ctx, tx, txType, product, op)
		if err != nil {
			return err
		}

		if err := s.transactions.WithTx(tx).Create(ctx, record); err != nil {
			return fmt.Errorf("record inventory transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("ledger.quantity_after", updated.Quantity))
	span.SetStatus(codes.Ok, "committed")
	s.afterCommit(ctx, updated, record)
	return updated, nil
}

// checkScope requires an open branch and an active product under the tenant.
func (s *ledgerService) checkScope(ctx context.Context, tx pgx.Tx, key models.LedgerKey) (*models.Product, error) {
	branch, err := s.branches.WithTx(tx).FindActive(ctx, key.TenantID, key.BranchID)
	if err != nil {
		return nil, fmt.Errorf("find branch: %w", err)
	}
	if branch == nil {
		return nil, common.ErrInvalidBranch
	}

	product, err := s.products.WithTx(tx).FindActive(ctx, key.TenantID, key.ProductID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if product == nil {
		return nil, common.ErrInvalidProduct
	}
	return product, nil
}

func (s *ledgerService) mutate(ctx context.Context, tx pgx.Tx, txType models.TransactionType, product *models.Product, op StockOperation) (*models.Inventory, *models.InventoryTransaction, error) {
	inventoryRepo := s.inventory.WithTx(tx)
	key := op.key()
	quantity := *op.Quantity

	record := &models.InventoryTransaction{
		ID:        uuid.New(),
		TenantID:  key.TenantID,
		BranchID:  key.BranchID,
		ProductID: key.ProductID,
		Type:      txType,
		Quantity:  quantity,
		UserID:    op.UserID,
		Note:      strings.TrimSpace(op.Note),
	}

	// Add is the only operation that may create the row.
	if txType == models.TransactionTypeAdd {
		updated, err := inventoryRepo.UpsertIncrement(ctx, &models.Inventory{
			ID:           uuid.New(),
			TenantID:     key.TenantID,
			BranchID:     key.BranchID,
			ProductID:    key.ProductID,
			Quantity:     quantity,
			SellingPrice: product.SellingPrice,
			CostPrice:    product.CostPrice,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("upsert inventory: %w", err)
		}
		return updated, record, nil
	}

	current, err := inventoryRepo.GetForUpdate(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("lock inventory: %w", err)
	}
	if current == nil {
		return nil, nil, common.ErrInventoryNotFound
	}

	var updated *models.Inventory
	switch txType {
	case models.TransactionTypeSale, models.TransactionTypeRemove:
		if current.Quantity < quantity {
			return nil, nil, common.ErrInsufficientStock
		}
		updated, err = inventoryRepo.Decrement(ctx, key, quantity)
		if err != nil {
			return nil, nil, fmt.Errorf("decrement inventory: %w", err)
		}
		if updated == nil {
			return nil, nil, common.ErrInsufficientStock
		}
	case models.TransactionTypeAdjust:
		record.Quantity = quantity - current.Quantity
		updated, err = inventoryRepo.SetQuantity(ctx, key, quantity)
		if err != nil {
			return nil, nil, fmt.Errorf("set inventory quantity: %w", err)
		}
		if updated == nil {
			return nil, nil, common.ErrInventoryNotFound
		}
	}
	return updated, record, nil
}

// afterCommit refreshes read-side state. The operation has already committed,
// so failures here are logged and do not change its result. The cached snapshot
// is dropped rather than overwritten: post-commit writes from two operations on
// one key are unordered, and only GetInventory refills the entry from the database.
func (s *ledgerService) afterCommit(ctx context.Context, inventory *models.Inventory, record *models.InventoryTransaction) {
	fields := []zap.Field{
		zap.String("tenant_id", inventory.TenantID.String()),
		zap.String("branch_id", inventory.BranchID.String()),
		zap.String("product_id", inventory.ProductID.String()),
		zap.String("type", string(record.Type)),
	}

	if err := s.cache.DeleteInventory(ctx, inventory.Key()); err != nil {
		s.logger.Warn("failed to invalidate inventory snapshot", append(fields, zap.Error(err))...)
	}
	if err := s.cache.DeleteLowStockCount(ctx, inventory.TenantID); err != nil {
		s.logger.Warn("failed to invalidate low stock count", append(fields, zap.Error(err))...)
	}
	if err := s.publisher.PublishTransaction(ctx, events.NewTransactionEvent(record, inventory)); err != nil {
		s.logger.Warn("failed to publish inventory transaction", append(fields, zap.Error(err))...)
	}

	s.logger.Info("inventory transaction committed",
		append(fields, zap.Int("quantity", record.Quantity), zap.Int("quantity_after", inventory.Quantity))...)
}

func (s *ledgerService) GetInventory(ctx context.Context, key models.LedgerKey) (*models.Inventory, error) {
	cached, err := s.cache.GetInventory(ctx, key)
	if err != nil {
		s.logger.Warn("inventory cache read failed", zap.String("key", key.String()), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	inventory, err := s.inventory.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	if inventory == nil {
		return nil, common.ErrInventoryNotFound
	}

	if err := s.cache.SetInventory(ctx, inventory, s.opts.CacheTTL); err != nil {
		s.logger.Warn("failed to cache inventory snapshot", zap.String("key", key.String()), zap.Error(err))
	}
	return inventory, nil
}

// ListBranchInventory pages through a branch's inventory rows. Closed branches
// stay readable; a branch outside the tenant is rejected.
func (s *ledgerService) ListBranchInventory(ctx context.Context, tenantID, branchID uuid.UUID, limit, offset int) (*InventoryPage, error) {
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return nil, common.NewValidationError(err)
	}

	branch, err := s.branches.GetByID(ctx, tenantID, branchID)
	if err != nil {
		return nil, fmt.Errorf("get branch: %w", err)
	}
	if branch == nil {
		return nil, common.ErrInvalidBranch
	}

	items, total, err := s.inventory.ListByBranch(ctx, tenantID, branchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list branch inventory: %w", err)
	}
	if items == nil {
		items = []*models.Inventory{}
	}
	return &InventoryPage{Inventory: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter models.TransactionFilter) (*TransactionPage, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, common.ErrInvalidTransactionType
	}
	limit, offset, err := common.ValidatePaginationParams(filter.Limit, filter.Offset)
	if err != nil {
		return nil, common.NewValidationError(err)
	}
	filter.Limit, filter.Offset = limit, offset

	txns, total, err := s.transactions.List(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("list inventory transactions: %w", err)
	}
	if txns == nil {
		txns = []*models.InventoryTransaction{}
	}
	return &TransactionPage{Transactions: txns, Total: total, Limit: limit, Offset: offset}, nil
}

// LowStock counts inventory rows at or below the configured threshold. The count is
// cached until the next ledger operation for the tenant.
func (s *ledgerService) LowStock(ctx context.Context, tenantID uuid.UUID, withItems bool) (*LowStockReport, error) {
	threshold := s.opts.LowStockThreshold
	report := &LowStockReport{Threshold: threshold}

	if withItems {
		items, err := s.inventory.ListLowStock(ctx, tenantID, threshold)
		if err != nil {
			return nil, fmt.Errorf("list low stock: %w", err)
		}
		report.Items = items
		report.Count = int64(len(items))
		return report, nil
	}

	if count, ok, err := s.cache.GetLowStockCount(ctx, tenantID, threshold); err == nil && ok {
		report.Count = count
		return report, nil
	}

	count, err := s.inventory.CountLowStock(ctx, tenantID, threshold)
	if err != nil {
		return nil, fmt.Errorf("count low stock: %w", err)
	}
	if err := s.cache.SetLowStockCount(ctx, tenantID, threshold, count, s.opts.CacheTTL); err != nil {
		s.logger.Warn("failed to cache low stock count", zap.String("tenant_id", tenantID.String()), zap.Error(err))
	}
	report.Count = count
	return report, nil
}

func (s *ledgerService) Reconcile(ctx context.Context, tenantID uuid.UUID) ([]models.LedgerDrift, error) {
	drifts, err := s.transactions.FindDrift(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("find ledger drift: %w", err)
	}
	if drifts == nil {
		drifts = []models.LedgerDrift{}
	}
	return drifts, nil
}
