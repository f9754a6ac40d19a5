package services

import (
	"context"
	"regexp"
	"sync"
	"time"

	"stockledger/internal/models"
	"stockledger/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryCache keeps snapshots in a map so tests can observe what a ledger
// operation leaves behind in the cache.
type memoryCache struct {
	mu        sync.Mutex
	inventory map[models.LedgerKey]models.Inventory
	sets      int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{inventory: map[models.LedgerKey]models.Inventory{}}
}

func (c *memoryCache) GetInventory(_ context.Context, key models.LedgerKey) (*models.Inventory, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inv, ok := c.inventory[key]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (c *memoryCache) SetInventory(_ context.Context, inventory *models.Inventory, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inventory[inventory.Key()] = *inventory
	c.sets++
	return nil
}

func (c *memoryCache) DeleteInventory(_ context.Context, key models.LedgerKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inventory, key)
	return nil
}

func (c *memoryCache) GetLowStockCount(context.Context, uuid.UUID, int) (int64, bool, error) {
	return 0, false, nil
}

func (c *memoryCache) SetLowStockCount(context.Context, uuid.UUID, int, int64, time.Duration) error {
	return nil
}

func (c *memoryCache) DeleteLowStockCount(context.Context, uuid.UUID) error { return nil }

func (c *memoryCache) Ping(context.Context) error { return nil }

func (suite *LedgerServiceTestSuite) expectSale(before, quantity, after int) {
	suite.expectScope()
	suite.expectLock(before)
	suite.db.ExpectQuery(regexp.QuoteMeta("AND quantity >= $4")).
		WithArgs(suite.key.TenantID, suite.key.BranchID, suite.key.ProductID, quantity).
		WillReturnRows(suite.inventoryRows(after))
	suite.expectRecord(models.TransactionTypeSale, quantity, "")
	suite.db.ExpectCommit()
}

func (suite *LedgerServiceTestSuite) TestConsecutiveSales_ReadReturnsCommittedQuantity() {
	cache := newMemoryCache()
	logger := zap.NewNop()
	service := NewLedgerService(
		repositories.NewTxManager(suite.db, pgx.ReadCommitted, logger),
		repositories.NewBranchRepo(suite.db),
		repositories.NewProductRepo(suite.db),
		repositories.NewInventoryRepo(suite.db),
		repositories.NewInventoryTransactionRepo(suite.db),
		cache,
		suite.publisher,
		logger,
		LedgerOptions{CacheTTL: cacheTTL, LowStockThreshold: 5},
	)
	suite.publisher.On("PublishTransaction", mock.Anything, mock.Anything).Return(nil).Times(3)

	// A reader cached the opening quantity before either sale.
	require.NoError(suite.T(), cache.SetInventory(suite.ctx, &models.Inventory{
		TenantID: suite.key.TenantID, BranchID: suite.key.BranchID, ProductID: suite.key.ProductID, Quantity: 10,
	}, cacheTTL))

	suite.expectSale(10, 3, 7)
	first, err := service.Sale(suite.ctx, suite.op(3, ""))
	require.NoError(suite.T(), err)

	suite.expectSale(7, 5, 2)
	_, err = service.Sale(suite.ctx, suite.op(5, ""))
	require.NoError(suite.T(), err)

	// The older operation's post-commit step runs last.
	service.(*ledgerService).afterCommit(suite.ctx, first, &models.InventoryTransaction{Type: models.TransactionTypeSale, Quantity: 3})

	cached, err := cache.GetInventory(suite.ctx, suite.key)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), cached, "ledger operations must not leave a snapshot in the cache")
	assert.Equal(suite.T(), 1, cache.sets)

	suite.db.ExpectQuery(regexp.QuoteMeta("FROM inventory WHERE tenant_id = $1 AND branch_id = $2 AND product_id = $3")).
		WithArgs(suite.key.TenantID, suite.key.BranchID, suite.key.ProductID).
		WillReturnRows(suite.inventoryRows(2))

	inv, err := service.GetInventory(suite.ctx, suite.key)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, inv.Quantity)

	// The refill came from the database, so the next read is a correct hit.
	inv, err = service.GetInventory(suite.ctx, suite.key)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, inv.Quantity)
}
