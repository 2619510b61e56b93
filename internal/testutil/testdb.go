package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const postgresImage = "postgres:16-alpine"

// bankTables lists every table the schema creates, children before parents.
var bankTables = []string{
	"outbox_events",
	"activities",
	"notifications",
	"ledger_entries",
	"savings_accounts",
	"users",
}

// SetupTestDB starts a throwaway postgres, applies the bank schema and
// returns a pool sized for the concurrency tests.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("bank_test"),
		postgres.WithUsername("bank"),
		postgres.WithPassword("bank"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(45*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres dsn: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	db.SetMaxOpenConns(10)
	t.Cleanup(func() { db.Close() })

	if err := applySchema(ctx, db, schemaDir(t)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

// ResetTables empties every bank table so subtests sharing one container
// start from a clean ledger.
func ResetTables(t *testing.T, db *sql.DB) {
	t.Helper()
	stmt := "TRUNCATE " + strings.Join(bankTables, ", ") + " CASCADE"
	if _, err := db.Exec(stmt); err != nil {
		t.Fatalf("reset tables: %v", err)
	}
}

// applySchema runs each *.up.sql in name order, one transaction per file.
func applySchema(ctx context.Context, db *sql.DB, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("applySchema: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("applySchema: no migrations in %s", dir)
	}
	sort.Strings(files)

	for _, path := range files {
		ddl, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("applySchema: %w", err)
		}
		if err := execInTx(ctx, db, string(ddl)); err != nil {
			return fmt.Errorf("applySchema %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func execInTx(ctx context.Context, db *sql.DB, stmt string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return err
	}
	return tx.Commit()
}

// schemaDir locates migrations/ next to go.mod. go test runs from the package
// directory, so the module root is found by walking up.
func schemaDir(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "migrations")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("go.mod not found above %s", dir)
		}
		dir = parent
	}
}
