package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_broadcasts_and_events",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_responses_table",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_partner_counters",
		Up:      migrationV3,
	},
}

// RunMigrations applies any pending migrations in order.
func RunMigrations() error {
	db, err := GetDB()
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	for _, m := range migrations {
		var applied int
		err = db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", m.Version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", m.Version, err)
		}
		if applied > 0 {
			continue
		}

		if err := m.Up(db); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func migrationV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS broadcasts (
			id TEXT PRIMARY KEY,
			shift_id TEXT NOT NULL,
			location_id TEXT NOT NULL,
			department_id TEXT,
			broadcasted_at DATETIME NOT NULL,
			response_deadline DATETIME NOT NULL,
			auto_escalate_at DATETIME,
			urgency TEXT NOT NULL CHECK(urgency IN ('standard', 'urgent', 'critical')) DEFAULT 'standard',
			current_tier INTEGER NOT NULL DEFAULT 1,
			max_tiers INTEGER NOT NULL DEFAULT 3,
			status TEXT NOT NULL CHECK(status IN ('pending', 'escalated', 'filled', 'expired', 'cancelled')) DEFAULT 'pending',
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_broadcasts_status ON broadcasts(status);
		CREATE INDEX IF NOT EXISTS idx_broadcasts_location ON broadcasts(location_id);
		CREATE INDEX IF NOT EXISTS idx_broadcasts_shift ON broadcasts(shift_id);

		CREATE TABLE IF NOT EXISTS escalation_events (
			id TEXT PRIMARY KEY,
			broadcast_id TEXT NOT NULL,
			rule_id TEXT,
			kind TEXT NOT NULL CHECK(kind IN ('initial_broadcast', 'tier_escalate', 'urgency_increase', 'deadline_extend', 'manual_escalate', 'filled', 'expired', 'cancelled')),
			from_tier INTEGER,
			to_tier INTEGER,
			from_urgency TEXT,
			to_urgency TEXT,
			extend_minutes INTEGER,
			new_deadline DATETIME,
			reason TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (broadcast_id) REFERENCES broadcasts(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_events_broadcast ON escalation_events(broadcast_id);
		CREATE INDEX IF NOT EXISTS idx_events_kind ON escalation_events(kind);
	`)
	return err
}

func migrationV2(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS responses (
			id TEXT PRIMARY KEY,
			broadcast_id TEXT NOT NULL,
			partner_id TEXT NOT NULL,
			candidate_name TEXT,
			score REAL,
			status TEXT NOT NULL DEFAULT 'submitted',
			submitted_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (broadcast_id) REFERENCES broadcasts(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_responses_broadcast ON responses(broadcast_id);
	`)
	return err
}

func migrationV3(db *sql.DB) error {
	for _, stmt := range []string{
		"ALTER TABLE broadcasts ADD COLUMN partners_notified INTEGER NOT NULL DEFAULT 0",
		"ALTER TABLE broadcasts ADD COLUMN partners_responded INTEGER NOT NULL DEFAULT 0",
	} {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
