package testhelpers

import (
	"context"
	"os"
	"testing"

	"stockledger/internal/models"
	"stockledger/internal/repositories"
	"stockledger/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool    *pgxpool.Pool
	Cleanup func() error
}

// SetupTestDB connects to TEST_DATABASE_URL and applies the schema. The test is
// skipped when no database is configured or reachable.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := database.NewPool(ctx, connString, 10)
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	if err := database.InitSchema(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("Failed to apply schema: %v", err)
	}

	return &TestDB{
		Pool: pool,
		Cleanup: func() error {
			pool.Close()
			return nil
		},
	}
}

// SetupTestTenant creates an active tenant owned by ownerID, with its tenantAdmin membership.
func SetupTestTenant(t *testing.T, db *TestDB, ownerID uuid.UUID) *models.Tenant {
	t.Helper()

	ctx := context.Background()
	tenant := &models.Tenant{
		ID:      uuid.New(),
		Name:    "Test Tenant",
		OwnerID: ownerID,
		Plan:    models.PlanFree,
		Status:  models.TenantStatusActive,
	}
	if err := repositories.NewTenantRepo(db.Pool).Create(ctx, tenant); err != nil {
		t.Fatalf("Failed to create test tenant: %v", err)
	}

	membership := &models.Membership{
		ID:       uuid.New(),
		TenantID: tenant.ID,
		UserID:   ownerID,
		Role:     models.RoleTenantAdmin,
		Status:   models.MembershipStatusActive,
	}
	if err := repositories.NewMembershipRepo(db.Pool).Create(ctx, membership); err != nil {
		t.Fatalf("Failed to create test membership: %v", err)
	}

	return tenant
}

// SetupTestBranch creates a branch with the given status.
func SetupTestBranch(t *testing.T, db *TestDB, tenantID uuid.UUID, status string) *models.Branch {
	t.Helper()

	branch := &models.Branch{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     "Test Branch",
		Location: "Test Location",
		Status:   status,
	}
	if err := repositories.NewBranchRepo(db.Pool).Create(context.Background(), branch); err != nil {
		t.Fatalf("Failed to create test branch: %v", err)
	}
	return branch
}

// SetupTestProduct creates a product with the given status.
func SetupTestProduct(t *testing.T, db *TestDB, tenantID uuid.UUID, status string) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         "Test Product",
		SellingPrice: decimal.RequireFromString("10.99"),
		CostPrice:    decimal.NewNullDecimal(decimal.RequireFromString("7.50")),
		Unit:         "kg",
		Category:     "seeds",
		Status:       status,
	}
	if err := repositories.NewProductRepo(db.Pool).Create(context.Background(), product); err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}
	return product
}
