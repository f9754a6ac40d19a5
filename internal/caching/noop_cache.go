package caching

import (
	"context"
	"time"

	"stockledger/internal/models"

	"github.com/google/uuid"
)

type noopCache struct{}

// NewNoopCache returns a CacheService that stores nothing. Used when Redis is not configured.
func NewNoopCache() CacheService {
	return noopCache{}
}

func (noopCache) GetInventory(context.Context, models.LedgerKey) (*models.Inventory, error) {
	return nil, nil
}

func (noopCache) SetInventory(context.Context, *models.Inventory, time.Duration) error { return nil }

func (noopCache) DeleteInventory(context.Context, models.LedgerKey) error { return nil }

func (noopCache) GetLowStockCount(context.Context, uuid.UUID, int) (int64, bool, error) {
	return 0, false, nil
}

func (noopCache) SetLowStockCount(context.Context, uuid.UUID, int, int64, time.Duration) error {
	return nil
}

func (noopCache) DeleteLowStockCount(context.Context, uuid.UUID) error { return nil }

func (noopCache) Ping(context.Context) error { return nil }
