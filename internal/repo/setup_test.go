package repo

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"docbrief/internal/config"
	"docbrief/internal/db"
)

// openTestDB connects to the database named by TEST_DB_* env vars and
// applies the migrations. Tests that need Postgres skip when TEST_DB_HOST
// is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping database test")
	}
	port := 5432
	if raw := os.Getenv("TEST_DB_PORT"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		require.NoError(t, err)
		port = parsed
	}
	cfg := config.DatabaseConfig{
		Host:     host,
		Port:     port,
		User:     envOr("TEST_DB_USER", "postgres"),
		Password: os.Getenv("TEST_DB_PASSWORD"),
		DBName:   envOr("TEST_DB_NAME", "docbrief_test"),
		SSLMode:  "disable",
	}
	conn, err := db.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations(conn))
	t.Cleanup(func() {
		for _, table := range []string{"events", "upload_history", "user_stats", "counters", "users"} {
			conn.Exec(fmt.Sprintf("DELETE FROM %s", table))
		}
		conn.Close()
	})
	return conn
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
