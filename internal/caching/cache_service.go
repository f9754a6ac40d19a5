package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stockledger/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CacheService holds read-side copies of ledger state. It is never the source of
// truth: entries are written after a commit and may be dropped at any time.
type CacheService interface {
	GetInventory(ctx context.Context, key models.LedgerKey) (*models.Inventory, error)
	SetInventory(ctx context.Context, inventory *models.Inventory, ttl time.Duration) error
	DeleteInventory(ctx context.Context, key models.LedgerKey) error

	GetLowStockCount(ctx context.Context, tenantID uuid.UUID, threshold int) (int64, bool, error)
	SetLowStockCount(ctx context.Context, tenantID uuid.UUID, threshold int, count int64, ttl time.Duration) error
	DeleteLowStockCount(ctx context.Context, tenantID uuid.UUID) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept both host:port and redis://host:port
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})
	return &redisCacheService{client: client}
}

// NewRedisCacheServiceFromClient wraps an existing client.
func NewRedisCacheServiceFromClient(client *redis.Client) CacheService {
	return &redisCacheService{client: client}
}

func inventoryKey(key models.LedgerKey) string {
	return fmt.Sprintf("stockledger:inventory:%s:%s:%s", key.TenantID, key.BranchID, key.ProductID)
}

func lowStockKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("stockledger:lowstock:%s", tenantID)
}

func (r *redisCacheService) GetInventory(ctx context.Context, key models.LedgerKey) (*models.Inventory, error) {
	data, err := r.client.Get(ctx, inventoryKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var inventory models.Inventory
	if err := json.Unmarshal(data, &inventory); err != nil {
		return nil, err
	}
	return &inventory, nil
}

func (r *redisCacheService) SetInventory(ctx context.Context, inventory *models.Inventory, ttl time.Duration) error {
	data, err := json.Marshal(inventory)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, inventoryKey(inventory.Key()), data, ttl).Err()
}

func (r *redisCacheService) DeleteInventory(ctx context.Context, key models.LedgerKey) error {
	return r.client.Del(ctx, inventoryKey(key)).Err()
}

// Low-stock counts live in one hash per tenant, one field per threshold, so a
// single delete invalidates every threshold after a stock change.
func (r *redisCacheService) GetLowStockCount(ctx context.Context, tenantID uuid.UUID, threshold int) (int64, bool, error) {
	count, err := r.client.HGet(ctx, lowStockKey(tenantID), strconv.Itoa(threshold)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return count, true, nil
}

func (r *redisCacheService) SetLowStockCount(ctx context.Context, tenantID uuid.UUID, threshold int, count int64, ttl time.Duration) error {
	key := lowStockKey(tenantID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, strconv.Itoa(threshold), count)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

func (r *redisCacheService) DeleteLowStockCount(ctx context.Context, tenantID uuid.UUID) error {
	return r.client.Del(ctx, lowStockKey(tenantID)).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
