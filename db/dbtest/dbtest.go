// Package dbtest gives tests a private, migrated in-memory database
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"sensorhub/telemetry-api/db"

	"gorm.io/gorm"
)

var counter atomic.Int64

// New returns an isolated in-memory SQLite database that is closed when the
// test ends. A single connection is used so concurrent writers queue up
// instead of failing with "database table is locked".
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("file:telemetry_test_%d?mode=memory&cache=shared&_foreign_keys=on", counter.Add(1))

	gdb, err := db.Open(name)
	if err != nil {
		t.Fatalf("failed to open test database, %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB, %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { sqlDB.Close() })

	return gdb
}
