package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/movelane/payments/internal/config"
	"github.com/movelane/payments/internal/db"
)

// Repository tests run against a real PostgreSQL instance and are skipped
// unless PAYMENTS_TEST_DB is set. Connection details come from the usual
// DB_* environment variables.
func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	if os.Getenv("PAYMENTS_TEST_DB") == "" {
		t.Skip("PAYMENTS_TEST_DB not set; skipping database-backed repository tests")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	logger := cfg.Logger.NewLogger()

	database, err := db.Connect(context.Background(), &cfg.Database, logger)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	runMigrations(t, database)
	t.Cleanup(func() {
		truncateTables(t, database)
		_ = database.Close() //nolint:errcheck // close error is irrelevant in cleanup
	})

	return database
}

func runMigrations(t *testing.T, database *db.DB) {
	t.Helper()

	migrationPath := filepath.Join("..", "..", "migrations", "0001_init.sql")
	sqlBytes, err := os.ReadFile(migrationPath) // #nosec G304
	if err != nil {
		t.Fatalf("failed to read migration file: %v", err)
	}

	if _, err := database.ExecContext(context.Background(), string(sqlBytes)); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
}

func truncateTables(t *testing.T, database *db.DB) {
	t.Helper()

	_, err := database.ExecContext(context.Background(),
		`TRUNCATE webhook_events, refund_transactions, payment_transactions`)
	if err != nil {
		t.Logf("failed to truncate tables: %v", err)
	}
}
