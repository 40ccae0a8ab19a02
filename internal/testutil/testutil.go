// Package testutil provides shared test helpers for setting up content
// services, databases and upload directories.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/seed"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "folio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.OpenSQLite(dbFile.Name(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestUploads creates a temporary uploads directory.
func TestUploads(t *testing.T) (string, *storage.Dir) {
	t.Helper()
	dir := t.TempDir()
	uploads, err := storage.NewDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, uploads
}

// TestService returns a service loaded with the built-in mock data set.
func TestService(t *testing.T, opts ...content.Option) *content.Service {
	t.Helper()
	svc := content.New(opts...)
	if err := svc.Import(context.Background(), seed.Default()); err != nil {
		t.Fatalf("import default data set: %v", err)
	}
	return svc
}
