// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/shiftcover/internal/ports/secondary"
)

// BroadcastRepository implements secondary.BroadcastRepository with SQLite.
// Optimistic concurrency rides on the version column: CommitTransition only
// touches rows whose stored version matches the caller's expectation.
type BroadcastRepository struct {
	db *sql.DB
}

// NewBroadcastRepository creates a new SQLite broadcast repository.
func NewBroadcastRepository(db *sql.DB) *BroadcastRepository {
	return &BroadcastRepository{db: db}
}

const broadcastColumns = `id, shift_id, location_id, department_id, broadcasted_at, response_deadline, auto_escalate_at, urgency, current_tier, max_tiers, status, partners_notified, partners_responded, version, created_at, updated_at`

// Create persists a new broadcast together with its initial event.
func (r *BroadcastRepository) Create(ctx context.Context, rec *secondary.BroadcastRecord, initial secondary.EventRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO broadcasts (id, shift_id, location_id, department_id, broadcasted_at, response_deadline, auto_escalate_at, urgency, current_tier, max_tiers, status, partners_notified, partners_responded, version) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.ShiftID,
		rec.LocationID,
		nullString(rec.DepartmentID),
		rec.BroadcastedAt,
		rec.ResponseDeadline,
		nullTime(rec.AutoEscalateAt),
		rec.Urgency,
		rec.CurrentTier,
		rec.MaxTiers,
		rec.Status,
		rec.PartnersNotified,
		rec.PartnersResponded,
		rec.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to create broadcast: %w", err)
	}

	if err := insertEvent(ctx, tx, initial); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit broadcast: %w", err)
	}
	return nil
}

// GetByID retrieves a broadcast and its full event history.
func (r *BroadcastRepository) GetByID(ctx context.Context, id string) (*secondary.BroadcastRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+broadcastColumns+` FROM broadcasts WHERE id = ?`, id)

	rec, err := scanBroadcast(row)
	if err == sql.ErrNoRows {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get broadcast: %w", err)
	}

	if rec.Events, err = r.loadEvents(ctx, id); err != nil {
		return nil, err
	}
	return rec, nil
}

// List retrieves broadcasts matching the given filters, newest first, each
// with its event history.
func (r *BroadcastRepository) List(ctx context.Context, filters secondary.BroadcastFilters) ([]*secondary.BroadcastRecord, error) {
	query := `SELECT ` + broadcastColumns + ` FROM broadcasts WHERE 1=1`
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}
	if filters.LocationID != "" {
		query += " AND location_id = ?"
		args = append(args, filters.LocationID)
	}
	if filters.ShiftID != "" {
		query += " AND shift_id = ?"
		args = append(args, filters.ShiftID)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}
	defer rows.Close()

	var records []*secondary.BroadcastRecord
	for rows.Next() {
		rec, err := scanBroadcast(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan broadcast: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read broadcasts: %w", err)
	}

	for _, rec := range records {
		if rec.Events, err = r.loadEvents(ctx, rec.ID); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// ListPending retrieves all broadcasts still subject to evaluation.
func (r *BroadcastRepository) ListPending(ctx context.Context) ([]*secondary.BroadcastRecord, error) {
	return r.List(ctx, secondary.BroadcastFilters{Status: "pending"})
}

// CommitTransition writes the updated record state and appends ev in one
// transaction. The update lands only when the stored version still equals
// expectedVersion; a lost race yields ErrVersionConflict.
func (r *BroadcastRepository) CommitTransition(ctx context.Context, rec *secondary.BroadcastRecord, ev secondary.EventRecord, expectedVersion int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE broadcasts SET urgency = ?, current_tier = ?, status = ?, response_deadline = ?, auto_escalate_at = ?, partners_notified = ?, partners_responded = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND version = ?`,
		rec.Urgency,
		rec.CurrentTier,
		rec.Status,
		rec.ResponseDeadline,
		nullTime(rec.AutoEscalateAt),
		rec.PartnersNotified,
		rec.PartnersResponded,
		rec.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update broadcast: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM broadcasts WHERE id = ?", rec.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check broadcast existence: %w", err)
		}
		if exists == 0 {
			return secondary.ErrNotFound
		}
		return secondary.ErrVersionConflict
	}

	if err := insertEvent(ctx, tx, ev); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	return nil
}

// GetNextID returns the next available broadcast ID.
func (r *BroadcastRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(CAST(SUBSTR(id, 4) AS INTEGER)) FROM broadcasts WHERE id LIKE 'BC-%'`,
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next broadcast id: %w", err)
	}
	return fmt.Sprintf("BC-%03d", maxID.Int64+1), nil
}

// AddResponse records a partner response and bumps the responded counter.
// The counter is display state, not concurrency-relevant, so it increments
// in place without a version check.
func (r *BroadcastRepository) AddResponse(ctx context.Context, resp *secondary.ResponseRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO responses (id, broadcast_id, partner_id, candidate_name, score, status, submitted_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		resp.ID,
		resp.BroadcastID,
		resp.PartnerID,
		nullString(resp.CandidateName),
		resp.Score,
		resp.Status,
		resp.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add response: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE broadcasts SET partners_responded = partners_responded + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		resp.BroadcastID,
	)
	if err != nil {
		return fmt.Errorf("failed to bump responded counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit response: %w", err)
	}
	return nil
}

// ListResponses retrieves the responses submitted for a broadcast, oldest
// first.
func (r *BroadcastRepository) ListResponses(ctx context.Context, broadcastID string) ([]*secondary.ResponseRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, broadcast_id, partner_id, candidate_name, score, status, submitted_at FROM responses WHERE broadcast_id = ? ORDER BY submitted_at ASC, rowid ASC`,
		broadcastID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	var responses []*secondary.ResponseRecord
	for rows.Next() {
		var (
			resp          secondary.ResponseRecord
			candidateName sql.NullString
			score         sql.NullFloat64
		)
		if err := rows.Scan(&resp.ID, &resp.BroadcastID, &resp.PartnerID, &candidateName, &score, &resp.Status, &resp.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		resp.CandidateName = candidateName.String
		resp.Score = score.Float64
		responses = append(responses, &resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}
	return responses, nil
}

// loadEvents fetches the event history in append order. rowid preserves
// insertion order even when timestamps collide within a tick.
func (r *BroadcastRepository) loadEvents(ctx context.Context, broadcastID string) ([]secondary.EventRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, broadcast_id, rule_id, kind, from_tier, to_tier, from_urgency, to_urgency, extend_minutes, new_deadline, reason, created_at FROM escalation_events WHERE broadcast_id = ? ORDER BY rowid ASC`,
		broadcastID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	defer rows.Close()

	var events []secondary.EventRecord
	for rows.Next() {
		var (
			ev            secondary.EventRecord
			ruleID        sql.NullString
			fromTier      sql.NullInt64
			toTier        sql.NullInt64
			fromUrgency   sql.NullString
			toUrgency     sql.NullString
			extendMinutes sql.NullInt64
			newDeadline   sql.NullTime
		)
		err := rows.Scan(&ev.ID, &ev.BroadcastID, &ruleID, &ev.Kind, &fromTier, &toTier, &fromUrgency, &toUrgency, &extendMinutes, &newDeadline, &ev.Reason, &ev.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.RuleID = ruleID.String
		ev.FromTier = int(fromTier.Int64)
		ev.ToTier = int(toTier.Int64)
		ev.FromUrgency = fromUrgency.String
		ev.ToUrgency = toUrgency.String
		ev.ExtendMinutes = int(extendMinutes.Int64)
		if newDeadline.Valid {
			ev.NewDeadline = newDeadline.Time
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, ev secondary.EventRecord) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO escalation_events (id, broadcast_id, rule_id, kind, from_tier, to_tier, from_urgency, to_urgency, extend_minutes, new_deadline, reason, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID,
		ev.BroadcastID,
		nullString(ev.RuleID),
		ev.Kind,
		nullInt(ev.FromTier),
		nullInt(ev.ToTier),
		nullString(ev.FromUrgency),
		nullString(ev.ToUrgency),
		nullInt(ev.ExtendMinutes),
		nullTime(ev.NewDeadline),
		ev.Reason,
		ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBroadcast(row rowScanner) (*secondary.BroadcastRecord, error) {
	var (
		rec            secondary.BroadcastRecord
		departmentID   sql.NullString
		autoEscalateAt sql.NullTime
	)
	err := row.Scan(
		&rec.ID,
		&rec.ShiftID,
		&rec.LocationID,
		&departmentID,
		&rec.BroadcastedAt,
		&rec.ResponseDeadline,
		&autoEscalateAt,
		&rec.Urgency,
		&rec.CurrentTier,
		&rec.MaxTiers,
		&rec.Status,
		&rec.PartnersNotified,
		&rec.PartnersResponded,
		&rec.Version,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.DepartmentID = departmentID.String
	if autoEscalateAt.Valid {
		rec.AutoEscalateAt = autoEscalateAt.Time
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(i int) sql.NullInt64 {
	if i == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(i), Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// Ensure BroadcastRepository implements the interface
var _ secondary.BroadcastRepository = (*BroadcastRepository)(nil)
