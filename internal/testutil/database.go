// Package testutil provides test fixtures backed by an in-memory
// gateway, with seed helpers for users and their financial data.
package testutil

import (
	"context"
	"testing"

	"github.com/tyleshq/tyles/internal/gateway"
	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
)

// TestDB wraps an in-memory SQLite gateway with seed helpers. Every
// helper fails the test on error so callers stay linear.
type TestDB struct {
	Gateway service.Gateway
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory gateway. The platform
// catalog is seeded by the migrations. Cleanup is registered
// automatically.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	gw, err := gateway.NewSQLiteGateway(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := gw.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = gw.Close()
	})

	return &TestDB{Gateway: gw, t: t}
}

// SeedUser creates a user, filling in minimal defaults for empty
// fields.
func (db *TestDB) SeedUser(user model.User) *model.User {
	db.t.Helper()

	if user.AuthUID == "" {
		user.AuthUID = "test-uid"
	}
	if user.Email == "" {
		user.Email = "test@example.com"
	}

	created, err := db.Gateway.CreateUser(context.Background(), user)
	if err != nil {
		db.t.Fatalf("failed to seed user: %v", err)
	}
	return created
}

// PlatformID resolves a seeded catalog platform by name.
func (db *TestDB) PlatformID(name string) string {
	db.t.Helper()

	platforms, err := db.Gateway.ListPlatforms(context.Background())
	if err != nil {
		db.t.Fatalf("failed to list platforms: %v", err)
	}
	for _, p := range platforms {
		if p.Name == name {
			return p.ID
		}
	}
	db.t.Fatalf("platform %q not in catalog", name)
	return ""
}

// SeedEarning creates an earning row.
func (db *TestDB) SeedEarning(earning model.Earning) *model.Earning {
	db.t.Helper()

	created, err := db.Gateway.CreateEarning(context.Background(), earning)
	if err != nil {
		db.t.Fatalf("failed to seed earning: %v", err)
	}
	return created
}

// SeedExpense creates an expense row.
func (db *TestDB) SeedExpense(expense model.Expense) *model.Expense {
	db.t.Helper()

	created, err := db.Gateway.CreateExpense(context.Background(), expense)
	if err != nil {
		db.t.Fatalf("failed to seed expense: %v", err)
	}
	return created
}

// SeedAccount creates a connected account row.
func (db *TestDB) SeedAccount(account model.ConnectedAccount) *model.ConnectedAccount {
	db.t.Helper()

	created, err := db.Gateway.CreateConnectedAccount(context.Background(), account)
	if err != nil {
		db.t.Fatalf("failed to seed connected account: %v", err)
	}
	return created
}
