package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/shiftcover/internal/db"
	"github.com/example/shiftcover/internal/ports/secondary"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if _, err := conn.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to initialize test schema: %v", err)
	}
	return conn
}

var testBroadcastedAt = time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)

// seedBroadcast inserts a pending broadcast with an initial event and
// returns the stored record.
func seedBroadcast(t *testing.T, repo *BroadcastRepository, id string) *secondary.BroadcastRecord {
	t.Helper()

	rec := &secondary.BroadcastRecord{
		ID:               id,
		ShiftID:          "SHIFT-2026-03-14-A",
		LocationID:       "LOC-EAST",
		DepartmentID:     "nursing",
		BroadcastedAt:    testBroadcastedAt,
		ResponseDeadline: testBroadcastedAt.Add(8 * time.Hour),
		Urgency:          "standard",
		CurrentTier:      1,
		MaxTiers:         3,
		Status:           "pending",
		PartnersNotified: 5,
		Version:          1,
	}
	initial := secondary.EventRecord{
		ID:          "ev-" + id + "-initial",
		BroadcastID: id,
		Kind:        "initial_broadcast",
		ToTier:      1,
		Reason:      "shift broadcast to external staffing partners",
		CreatedAt:   testBroadcastedAt,
	}
	if err := repo.Create(context.Background(), rec, initial); err != nil {
		t.Fatalf("failed to seed broadcast %s: %v", id, err)
	}
	return rec
}
