package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/learning"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/slogutil"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), ".radar", "radar.db")
	db, err := Open(dbPath, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return db
}

func TestDatabaseInitialization(t *testing.T) {
	db := setupTestDB(t)

	if _, err := os.Stat(db.Path()); os.IsNotExist(err) {
		t.Fatalf("Database file was not created at %s", db.Path())
	}

	version, err := db.getSchemaVersion()
	if err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", currentSchemaVersion, version)
	}

	for _, table := range []string{"learning_records", "learning_events"} {
		var name string
		err := db.conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not created: %v", table, err)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "radar.db")
	logger := slogutil.NewDiscardLogger()
	ctx := context.Background()

	db, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := NewLearningBackend(db).Save(ctx, "ES::jira-1", []byte(`{}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	db.Close()

	db, err = Open(dbPath, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if _, err := NewLearningBackend(db).Load(ctx, "ES::jira-1"); err != nil {
		t.Errorf("record lost after reopen: %v", err)
	}
}

func TestMigrateFromV1(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.conn.Exec("DROP TABLE learning_events"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.conn.Exec("UPDATE schema_version SET version = 1"); err != nil {
		t.Fatal(err)
	}

	if err := db.runMigrations(); err != nil {
		t.Fatalf("runMigrations: %v", err)
	}
	version, _ := db.getSchemaVersion()
	if version != currentSchemaVersion {
		t.Errorf("version = %d, want %d", version, currentSchemaVersion)
	}
	if err := NewLearningBackend(db).AppendEvent(context.Background(), learning.Event{
		ID: "e1", Scope: "ES::jira-1", PatternID: "p", Kind: learning.Shown, At: time.Now(),
	}); err != nil {
		t.Errorf("events table missing after migration: %v", err)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	db := setupTestDB(t)
	boom := errors.New("boom")

	err := db.WithTx(context.Background(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO learning_records (scope, source_id, payload, updated_at) VALUES ('a::b', 'b', x'00', 'now')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v", err)
	}

	var n int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM learning_records").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("rows after rollback = %d, want 0", n)
	}
}
