// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"strings"
	"testing"

	"github.com/jankuo/personmap/bootstrap"
	"github.com/jankuo/personmap/orm"
)

var nameCleaner = strings.NewReplacer("/", "_", " ", "_", "#", "_")

// Open returns an empty in-memory SQLite database private to t.
// The database is closed, and therefore discarded, when t finishes.
func Open(t testing.TB) *orm.DB {
	t.Helper()

	db, err := orm.Open(t.Context(), orm.ConnConfig{
		Driver: orm.DriverSQLite,
		URL:    orm.MemoryURL(nameCleaner.Replace(t.Name())),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Provision returns a private in-memory database loaded with the embedded
// seed script. A provisioning failure aborts the test immediately.
func Provision(t testing.TB) *orm.DB {
	t.Helper()

	db := Open(t)
	if err := bootstrap.Run(t.Context(), db, bootstrap.SimpleDB()); err != nil {
		t.Fatalf("provision test db: %v", err)
	}
	return db
}
