// Package escalation contains the pure decision logic for the shift-coverage
// escalation lifecycle: rule selection, rule application, and the audit
// history of a broadcast. Functions here never perform I/O and never mutate
// their inputs; callers receive new record values and persist them through
// the repository layer.
package escalation

import "time"

// Urgency levels for a broadcast. Urgency frames notifications and is
// independent of the partner tier.
const (
	UrgencyStandard = "standard"
	UrgencyUrgent   = "urgent"
	UrgencyCritical = "critical"
)

// Broadcast status constants. Only pending records are evaluated; filled,
// expired and cancelled are terminal. StatusEscalated is declared for
// display compatibility with older records but is never produced here.
const (
	StatusPending   = "pending"
	StatusEscalated = "escalated"
	StatusFilled    = "filled"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// Record represents one shift's external-coverage lifecycle. Shift, location
// and department identifiers are opaque references into the roster
// subsystem; the engine carries them but never interprets them.
type Record struct {
	ID           string
	ShiftID      string
	LocationID   string
	DepartmentID string

	BroadcastedAt    time.Time
	ResponseDeadline time.Time
	// AutoEscalateAt is an informational hint for displays. The actual
	// escalation driver is elapsed time against rule thresholds.
	AutoEscalateAt time.Time

	Urgency     string
	CurrentTier int
	MaxTiers    int
	Status      string

	PartnersNotified  int
	PartnersResponded int

	// Version is the optimistic-concurrency token managed by the store.
	Version int

	// History is the append-only audit trail. Entries are never edited or
	// removed once appended.
	History []Event
}

// Terminal reports whether the record reached a status in which no further
// escalation evaluation occurs.
func (r Record) Terminal() bool {
	switch r.Status {
	case StatusFilled, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Evaluable reports whether rule evaluation proceeds for this record.
// Pending is the only non-terminal status the engine acts on.
func (r Record) Evaluable() bool {
	return r.Status == StatusPending
}

// ElapsedMinutes returns whole minutes since the broadcast started,
// truncated toward zero.
func (r Record) ElapsedMinutes(now time.Time) int {
	return int(now.Sub(r.BroadcastedAt).Minutes())
}

// clone returns a copy of r with an independent history slice, so appending
// to the copy never reaches back into the original record.
func (r Record) clone() Record {
	next := r
	next.History = make([]Event, len(r.History), len(r.History)+1)
	copy(next.History, r.History)
	return next
}

// WithEvent returns a copy of r with ev appended to its history. The
// receiver is left untouched.
func (r Record) WithEvent(ev Event) Record {
	next := r.clone()
	next.History = append(next.History, ev)
	return next
}
