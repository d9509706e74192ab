// Package primary defines the primary ports (driving adapters) for the
// engine: the operations the CLI and any future API surface invoke.
package primary

import (
	"context"
	"time"

	"github.com/example/shiftcover/internal/core/deadline"
)

// BroadcastService defines the primary port for broadcast lifecycle
// operations.
type BroadcastService interface {
	// CreateBroadcast starts the external-coverage lifecycle for a shift.
	CreateBroadcast(ctx context.Context, req CreateBroadcastRequest) (*CreateBroadcastResponse, error)

	// GetBroadcast retrieves a broadcast with its audit history.
	GetBroadcast(ctx context.Context, broadcastID string) (*Broadcast, error)

	// ListBroadcasts lists broadcasts with optional filters.
	ListBroadcasts(ctx context.Context, filters BroadcastFilters) ([]*Broadcast, error)

	// FillBroadcast marks a pending broadcast filled (terminal).
	FillBroadcast(ctx context.Context, req FillBroadcastRequest) error

	// CancelBroadcast cancels a pending broadcast (terminal, out-of-band).
	CancelBroadcast(ctx context.Context, req CancelBroadcastRequest) error

	// ExtendDeadline manually extends the response deadline.
	ExtendDeadline(ctx context.Context, req ExtendDeadlineRequest) error

	// EscalateToSupervisor appends a manual escalation for a human to act on.
	EscalateToSupervisor(ctx context.Context, req EscalateRequest) error

	// RecordResponse stores a partner's candidate submission.
	RecordResponse(ctx context.Context, req RecordResponseRequest) error

	// ListResponses lists the partner responses for a broadcast.
	ListResponses(ctx context.Context, broadcastID string) ([]*Response, error)
}

// SweepService defines the primary port for escalation evaluation passes.
type SweepService interface {
	// Sweep runs one evaluation pass over all pending broadcasts.
	Sweep(ctx context.Context) (*SweepResult, error)
}

// Broadcast represents a broadcast at the port boundary.
type Broadcast struct {
	ID           string
	ShiftID      string
	LocationID   string
	DepartmentID string

	BroadcastedAt    time.Time
	ResponseDeadline time.Time

	Urgency     string
	CurrentTier int
	MaxTiers    int
	Status      string

	PartnersNotified  int
	PartnersResponded int

	// Remaining is derived from ResponseDeadline at read time.
	Remaining deadline.Remaining

	History []HistoryEntry
}

// HistoryEntry is one audit-trail line for display.
type HistoryEntry struct {
	At     time.Time
	Kind   string
	RuleID string // empty for lifecycle events
	Reason string
}

// Response is a partner submission at the port boundary.
type Response struct {
	ID            string
	PartnerID     string
	CandidateName string
	Score         float64
	Status        string
	SubmittedAt   time.Time
}

// CreateBroadcastRequest carries the parameters handed over by the roster
// subsystem when a shift fails to fill internally.
type CreateBroadcastRequest struct {
	ShiftID      string
	LocationID   string
	DepartmentID string
	Deadline     time.Time
	Urgency      string // defaults to standard
	MaxTiers     int    // defaults to 3
}

// CreateBroadcastResponse returns the created broadcast.
type CreateBroadcastResponse struct {
	BroadcastID string
	Broadcast   *Broadcast
}

// FillBroadcastRequest marks a broadcast filled.
type FillBroadcastRequest struct {
	BroadcastID string
	FilledBy    string
}

// CancelBroadcastRequest cancels a broadcast.
type CancelBroadcastRequest struct {
	BroadcastID string
	CancelledBy string
	Reason      string
}

// ExtendDeadlineRequest extends the response deadline manually.
type ExtendDeadlineRequest struct {
	BroadcastID   string
	ExtendMinutes int
	Reason        string
}

// EscalateRequest appends a manual supervisor escalation.
type EscalateRequest struct {
	BroadcastID string
	Reason      string
}

// RecordResponseRequest stores a partner response. Score and status are
// opaque to the engine.
type RecordResponseRequest struct {
	BroadcastID   string
	PartnerID     string
	CandidateName string
	Score         float64
	Status        string
}

// BroadcastFilters contains filter options for listing broadcasts.
type BroadcastFilters struct {
	Status     string
	LocationID string
	ShiftID    string
	Limit      int
}

// SweepResult summarizes one evaluation pass.
type SweepResult struct {
	Evaluated int
	Applied   int
	Expired   int
	Conflicts int
	// AppliedRules maps broadcast ID to the rule ID applied this pass.
	AppliedRules map[string]string
}
