package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/shiftcover/internal/clock"
	"github.com/example/shiftcover/internal/core/deadline"
	"github.com/example/shiftcover/internal/core/escalation"
	"github.com/example/shiftcover/internal/ports/primary"
	"github.com/example/shiftcover/internal/ports/secondary"
)

// BroadcastServiceImpl implements the BroadcastService interface.
type BroadcastServiceImpl struct {
	repo secondary.BroadcastRepository
	clk  clock.Clock
}

// NewBroadcastService creates a new BroadcastService with injected
// dependencies.
func NewBroadcastService(repo secondary.BroadcastRepository, clk clock.Clock) *BroadcastServiceImpl {
	return &BroadcastServiceImpl{repo: repo, clk: clk}
}

// CreateBroadcast starts the external-coverage lifecycle for a shift:
// status pending, tier 1, and an initial_broadcast event opening the audit
// trail.
func (s *BroadcastServiceImpl) CreateBroadcast(ctx context.Context, req primary.CreateBroadcastRequest) (*primary.CreateBroadcastResponse, error) {
	if req.ShiftID == "" {
		return nil, fmt.Errorf("shift id is required")
	}
	if req.LocationID == "" {
		return nil, fmt.Errorf("location id is required")
	}

	urgency := req.Urgency
	if urgency == "" {
		urgency = escalation.UrgencyStandard
	}
	maxTiers := req.MaxTiers
	if maxTiers == 0 {
		maxTiers = 3
	}

	now := s.clk.Now()
	rec := escalation.Record{
		ShiftID:          req.ShiftID,
		LocationID:       req.LocationID,
		DepartmentID:     req.DepartmentID,
		BroadcastedAt:    now,
		ResponseDeadline: req.Deadline,
		Urgency:          urgency,
		CurrentTier:      1,
		MaxTiers:         maxTiers,
		Status:           escalation.StatusPending,
		Version:          1,
	}
	if err := escalation.ValidateRecord(rec); err != nil {
		return nil, err
	}

	id, err := s.repo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate broadcast id: %w", err)
	}
	rec.ID = id

	initial := escalation.NewLifecycleEvent(now,
		escalation.InitialBroadcast{Tier: rec.CurrentTier, Urgency: rec.Urgency},
		"shift broadcast to external staffing partners")

	if err := s.repo.Create(ctx, recordToStore(rec), eventToStore(rec.ID, initial)); err != nil {
		return nil, fmt.Errorf("failed to create broadcast: %w", err)
	}

	created, err := s.GetBroadcast(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return &primary.CreateBroadcastResponse{BroadcastID: rec.ID, Broadcast: created}, nil
}

// GetBroadcast retrieves a broadcast by ID, with remaining time derived
// from the service clock.
func (s *BroadcastServiceImpl) GetBroadcast(ctx context.Context, broadcastID string) (*primary.Broadcast, error) {
	stored, err := s.repo.GetByID(ctx, broadcastID)
	if err != nil {
		return nil, err
	}
	b := broadcastToPort(stored)
	b.Remaining = deadline.TimeRemaining(b.ResponseDeadline, s.clk.Now())
	return b, nil
}

// ListBroadcasts lists broadcasts with optional filters.
func (s *BroadcastServiceImpl) ListBroadcasts(ctx context.Context, filters primary.BroadcastFilters) ([]*primary.Broadcast, error) {
	stored, err := s.repo.List(ctx, secondary.BroadcastFilters{
		Status:     filters.Status,
		LocationID: filters.LocationID,
		ShiftID:    filters.ShiftID,
		Limit:      filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}

	now := s.clk.Now()
	broadcasts := make([]*primary.Broadcast, len(stored))
	for i, r := range stored {
		broadcasts[i] = broadcastToPort(r)
		broadcasts[i].Remaining = deadline.TimeRemaining(r.ResponseDeadline, now)
	}
	return broadcasts, nil
}

// FillBroadcast marks a pending broadcast filled. Terminal; evaluation
// stops for good.
func (s *BroadcastServiceImpl) FillBroadcast(ctx context.Context, req primary.FillBroadcastRequest) error {
	return s.terminalTransition(ctx, req.BroadcastID, escalation.StatusFilled,
		escalation.Filled{FilledBy: req.FilledBy},
		fmt.Sprintf("shift covered by %s", orUnknown(req.FilledBy)))
}

// CancelBroadcast cancels a pending broadcast out-of-band. Terminal.
func (s *BroadcastServiceImpl) CancelBroadcast(ctx context.Context, req primary.CancelBroadcastRequest) error {
	reason := req.Reason
	if reason == "" {
		reason = fmt.Sprintf("broadcast cancelled by %s", orUnknown(req.CancelledBy))
	}
	return s.terminalTransition(ctx, req.BroadcastID, escalation.StatusCancelled,
		escalation.Cancelled{CancelledBy: req.CancelledBy}, reason)
}

func (s *BroadcastServiceImpl) terminalTransition(ctx context.Context, broadcastID, status string, detail escalation.Detail, reason string) error {
	stored, err := s.repo.GetByID(ctx, broadcastID)
	if err != nil {
		return fmt.Errorf("broadcast not found: %w", err)
	}
	rec := recordFromStore(stored)
	if !rec.Evaluable() {
		return fmt.Errorf("broadcast %s is not pending (current status: %s)", broadcastID, rec.Status)
	}

	ev := escalation.NewLifecycleEvent(s.clk.Now(), detail, reason)
	next := rec.WithEvent(ev)
	next.Status = status

	if err := s.repo.CommitTransition(ctx, recordToStore(next), eventToStore(next.ID, ev), rec.Version); err != nil {
		return fmt.Errorf("failed to update broadcast %s: %w", broadcastID, err)
	}
	return nil
}

// ExtendDeadline manually pushes the response deadline out.
func (s *BroadcastServiceImpl) ExtendDeadline(ctx context.Context, req primary.ExtendDeadlineRequest) error {
	if req.ExtendMinutes <= 0 {
		return fmt.Errorf("extend minutes must be positive, got %d", req.ExtendMinutes)
	}

	stored, err := s.repo.GetByID(ctx, req.BroadcastID)
	if err != nil {
		return fmt.Errorf("broadcast not found: %w", err)
	}
	rec := recordFromStore(stored)
	if !rec.Evaluable() {
		return fmt.Errorf("broadcast %s is not pending (current status: %s)", req.BroadcastID, rec.Status)
	}

	newDeadline := rec.ResponseDeadline.Add(time.Duration(req.ExtendMinutes) * time.Minute)
	reason := req.Reason
	if reason == "" {
		reason = fmt.Sprintf("response deadline extended by %d minutes", req.ExtendMinutes)
	}

	ev := escalation.NewLifecycleEvent(s.clk.Now(),
		escalation.DeadlineExtended{ExtendedMinutes: req.ExtendMinutes, NewDeadline: newDeadline}, reason)
	next := rec.WithEvent(ev)
	next.ResponseDeadline = newDeadline

	if err := s.repo.CommitTransition(ctx, recordToStore(next), eventToStore(next.ID, ev), rec.Version); err != nil {
		return fmt.Errorf("failed to update broadcast %s: %w", req.BroadcastID, err)
	}
	return nil
}

// EscalateToSupervisor appends a manual escalation. The record keeps its
// state; the appended event is what the dispatcher reacts to.
func (s *BroadcastServiceImpl) EscalateToSupervisor(ctx context.Context, req primary.EscalateRequest) error {
	stored, err := s.repo.GetByID(ctx, req.BroadcastID)
	if err != nil {
		return fmt.Errorf("broadcast not found: %w", err)
	}
	rec := recordFromStore(stored)
	if !rec.Evaluable() {
		return fmt.Errorf("broadcast %s is not pending (current status: %s)", req.BroadcastID, rec.Status)
	}

	reason := req.Reason
	if reason == "" {
		reason = "manually escalated to supervisor"
	}
	ev := escalation.NewLifecycleEvent(s.clk.Now(), escalation.SupervisorNotified{}, reason)
	next := rec.WithEvent(ev)

	if err := s.repo.CommitTransition(ctx, recordToStore(next), eventToStore(next.ID, ev), rec.Version); err != nil {
		return fmt.Errorf("failed to update broadcast %s: %w", req.BroadcastID, err)
	}
	return nil
}

// RecordResponse stores a partner's candidate submission. The payload is
// opaque; nothing here evaluates scores.
func (s *BroadcastServiceImpl) RecordResponse(ctx context.Context, req primary.RecordResponseRequest) error {
	if req.PartnerID == "" {
		return fmt.Errorf("partner id is required")
	}
	if _, err := s.repo.GetByID(ctx, req.BroadcastID); err != nil {
		return fmt.Errorf("broadcast not found: %w", err)
	}

	status := req.Status
	if status == "" {
		status = "submitted"
	}
	resp := &secondary.ResponseRecord{
		ID:            uuid.NewString(),
		BroadcastID:   req.BroadcastID,
		PartnerID:     req.PartnerID,
		CandidateName: req.CandidateName,
		Score:         req.Score,
		Status:        status,
		SubmittedAt:   s.clk.Now(),
	}
	if err := s.repo.AddResponse(ctx, resp); err != nil {
		return fmt.Errorf("failed to record response: %w", err)
	}
	return nil
}

// ListResponses lists the partner responses for a broadcast.
func (s *BroadcastServiceImpl) ListResponses(ctx context.Context, broadcastID string) ([]*primary.Response, error) {
	stored, err := s.repo.ListResponses(ctx, broadcastID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	responses := make([]*primary.Response, len(stored))
	for i, r := range stored {
		responses[i] = &primary.Response{
			ID:            r.ID,
			PartnerID:     r.PartnerID,
			CandidateName: r.CandidateName,
			Score:         r.Score,
			Status:        r.Status,
			SubmittedAt:   r.SubmittedAt,
		}
	}
	return responses, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Ensure BroadcastServiceImpl implements the interface
var _ primary.BroadcastService = (*BroadcastServiceImpl)(nil)
