// Package secondary defines the secondary ports (driven adapters) for the
// engine: persistence, rule-set supply, and the notification boundary.
package secondary

import (
	"context"
	"errors"
	"time"
)

// Repository sentinel errors. ErrVersionConflict signals a lost
// compare-and-swap race; the sweeper refetches and re-evaluates instead of
// retrying blindly.
var (
	ErrNotFound        = errors.New("broadcast not found")
	ErrVersionConflict = errors.New("broadcast version conflict")
)

// BroadcastRepository defines the secondary port for broadcast persistence.
//
// The store is the serialization point for concurrent sweepers:
// CommitTransition must apply the update only when the stored version still
// equals expectedVersion, and return ErrVersionConflict otherwise.
type BroadcastRepository interface {
	// Create persists a new broadcast together with its initial event.
	Create(ctx context.Context, rec *BroadcastRecord, initial EventRecord) error

	// GetByID retrieves a broadcast and its full event history.
	GetByID(ctx context.Context, id string) (*BroadcastRecord, error)

	// List retrieves broadcasts matching the given filters, newest first.
	List(ctx context.Context, filters BroadcastFilters) ([]*BroadcastRecord, error)

	// ListPending retrieves all broadcasts still subject to evaluation.
	ListPending(ctx context.Context) ([]*BroadcastRecord, error)

	// CommitTransition writes the updated record state and appends ev in
	// one transaction, guarded by expectedVersion.
	CommitTransition(ctx context.Context, rec *BroadcastRecord, ev EventRecord, expectedVersion int) error

	// GetNextID returns the next available broadcast ID.
	GetNextID(ctx context.Context) (string, error)

	// AddResponse records a partner response for a broadcast and bumps its
	// responded counter.
	AddResponse(ctx context.Context, resp *ResponseRecord) error

	// ListResponses retrieves the responses submitted for a broadcast.
	ListResponses(ctx context.Context, broadcastID string) ([]*ResponseRecord, error)
}

// BroadcastRecord represents a broadcast as stored in persistence.
type BroadcastRecord struct {
	ID           string
	ShiftID      string
	LocationID   string
	DepartmentID string

	BroadcastedAt    time.Time
	ResponseDeadline time.Time
	AutoEscalateAt   time.Time // zero when unset

	Urgency     string
	CurrentTier int
	MaxTiers    int
	Status      string

	PartnersNotified  int
	PartnersResponded int

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time

	Events []EventRecord
}

// EventRecord represents one escalation-history entry as stored in
// persistence. The kind decides which of the optional columns are set.
type EventRecord struct {
	ID          string
	BroadcastID string
	RuleID      string // empty for lifecycle events
	Kind        string

	FromTier      int // 0 when not a tier event
	ToTier        int
	FromUrgency   string
	ToUrgency     string
	ExtendMinutes int
	NewDeadline   time.Time // zero when not a deadline event

	Reason    string
	CreatedAt time.Time
}

// ResponseRecord represents a partner's candidate submission. The payload
// is opaque to the engine; it is carried for display and audit only.
type ResponseRecord struct {
	ID            string
	BroadcastID   string
	PartnerID     string
	CandidateName string
	Score         float64
	Status        string
	SubmittedAt   time.Time
}

// BroadcastFilters contains filter options for querying broadcasts.
type BroadcastFilters struct {
	Status     string
	LocationID string
	ShiftID    string
	Limit      int
}
