package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the integration test database. The DSN comes from
// CUMBRE_TEST_DSN and defaults to a local cumbre_test schema; the test is
// skipped when the database is not reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("CUMBRE_TEST_DSN")
	if dsn == "" {
		dsn = "root:@tcp(localhost:3306)/cumbre_test?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	return db
}

func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"SessionTokens"}
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

func SetupTestTables(t *testing.T, db *sql.DB) {
	createSessionTokensTable := `
	CREATE TABLE IF NOT EXISTS SessionTokens (
		sessionId VARCHAR(64) NOT NULL PRIMARY KEY,
		token TEXT NOT NULL,
		userId INT NOT NULL DEFAULT 0,
		expiresAt DATETIME NULL,
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_expires (expiresAt)
	)`

	if _, err := db.Exec(createSessionTokensTable); err != nil {
		t.Logf("failed to create table SessionTokens: %v", err)
	}
}
