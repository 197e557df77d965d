// Package testutil provides throwaway databases and Redis servers for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/Bekzhanizb/QuitTrackerBackend/db"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB opens a migrated SQLite database in the test's temp dir.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "test.db")
	conn, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.Migrate(conn); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return conn
}

// Redis starts an in-process Redis and returns a client bound to it.
func Redis(tb testing.TB) (*redis.Client, *miniredis.Miniredis) {
	tb.Helper()

	mr := miniredis.RunT(tb)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tb.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}
