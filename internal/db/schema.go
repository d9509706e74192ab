package db

// SchemaSQL is the complete schema for fresh installs. It is the single
// source of truth: tests load it through GetSchemaSQL() instead of
// hardcoding CREATE TABLE statements, so repository code referencing a
// column that does not exist here fails immediately.
//
// Keep this in sync with the migrations list in migrations.go.
const SchemaSQL = `
-- Broadcasts (one row per shift offered to external staffing partners)
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
	partners_notified INTEGER NOT NULL DEFAULT 0,
	partners_responded INTEGER NOT NULL DEFAULT 0,
	version INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_broadcasts_status ON broadcasts(status);
CREATE INDEX IF NOT EXISTS idx_broadcasts_location ON broadcasts(location_id);
CREATE INDEX IF NOT EXISTS idx_broadcasts_shift ON broadcasts(shift_id);

-- Escalation events (append-only audit trail; rows are never updated)
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

-- Partner responses (opaque candidate submissions, carried for audit)
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
`

// InitSchema creates the database schema
func InitSchema() error {
	db, err := GetDB()
	if err != nil {
		return err
	}

	// Check if schema_version exists to determine if this is a fresh install
	var tableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		// Fresh install - create the modern schema directly and mark all
		// migrations as applied so they never re-run.
		if _, err = db.Exec(SchemaSQL); err != nil {
			return err
		}
		_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return err
		}
		for _, m := range migrations {
			if _, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
				return err
			}
		}
		return nil
	}

	// schema_version table exists - run any pending migrations
	return RunMigrations()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
