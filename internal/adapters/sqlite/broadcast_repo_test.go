package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/shiftcover/internal/ports/secondary"
)

func TestBroadcastRepository_CreateAndGet(t *testing.T) {
	repo := NewBroadcastRepository(setupTestDB(t))
	ctx := context.Background()

	seeded := seedBroadcast(t, repo, "BC-001")

	got, err := repo.GetByID(ctx, "BC-001")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ShiftID != seeded.ShiftID {
		t.Errorf("ShiftID = %q, want %q", got.ShiftID, seeded.ShiftID)
	}
	if got.DepartmentID != "nursing" {
		t.Errorf("DepartmentID = %q, want %q", got.DepartmentID, "nursing")
	}
	if got.Status != "pending" {
		t.Errorf("Status = %q, want %q", got.Status, "pending")
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}
	if !got.AutoEscalateAt.IsZero() {
		t.Errorf("AutoEscalateAt = %v, want zero", got.AutoEscalateAt)
	}
	if len(got.Events) != 1 {
		t.Fatalf("len(Events) = %d, want 1", len(got.Events))
	}
	if got.Events[0].Kind != "initial_broadcast" {
		t.Errorf("initial event kind = %q, want %q", got.Events[0].Kind, "initial_broadcast")
	}
	if got.Events[0].RuleID != "" {
		t.Errorf("initial event RuleID = %q, want empty", got.Events[0].RuleID)
	}
}

func TestBroadcastRepository_GetByIDNotFound(t *testing.T) {
	repo := NewBroadcastRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "BC-999")
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestBroadcastRepository_CommitTransition(t *testing.T) {
	repo := NewBroadcastRepository(setupTestDB(t))
	ctx := context.Background()

	rec := seedBroadcast(t, repo, "BC-001")
	rec.CurrentTier = 2
	ev := secondary.EventRecord{
		ID:          "ev-tier-2",
		BroadcastID: rec.ID,
		RuleID:      "escalate_tier@30m",
		Kind:        "tier_escalate",
		FromTier:    1,
		ToTier:      2,
		Reason:      "no response after 30 minutes",
		CreatedAt:   testBroadcastedAt.Add(30 * time.Minute),
	}
	if err := repo.CommitTransition(ctx, rec, ev, 1); err != nil {
		t.Fatalf("CommitTransition() error = %v", err)
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.CurrentTier != 2 {
		t.Errorf("CurrentTier = %d, want 2", got.CurrentTier)
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}
	if len(got.Events) != 2 {
		t.Fatalf("len(Events) = %d, want 2", len(got.Events))
	}
	last := got.Events[1]
	if last.RuleID != "escalate_tier@30m" {
		t.Errorf("event RuleID = %q, want %q", last.RuleID, "escalate_tier@30m")
	}
	if last.FromTier != 1 || last.ToTier != 2 {
		t.Errorf("event tiers = %d->%d, want 1->2", last.FromTier, last.ToTier)
	}
}

func TestBroadcastRepository_CommitTransitionVersionConflict(t *testing.T) {
	repo := NewBroadcastRepository(setupTestDB(t))
	ctx := context.Background()

	rec := seedBroadcast(t, repo, "BC-001")
	ev := secondary.EventRecord{
		ID:          "ev-stale",
		BroadcastID: rec.ID,
		Kind:        "tier_escalate",
		FromTier:    1,
		ToTier:      2,
		Reason:      "stale write",
		CreatedAt:   testBroadcastedAt.Add(30 * time.Minute),
	}

	err := repo.CommitTransition(ctx, rec, ev, 5)
	if !errors.Is(err, secondary.ErrVersionConflict) {
		t.Fatalf("CommitTransition() error = %v, want ErrVersionConflict", err)
	}

	// The losing write must leave no trace.
	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}
	if len(got.Events) != 1 {
		t.Errorf("len(Events) = %d, want 1", len(got.Events))
	}
}

func TestBroadcastRepository_CommitTransitionMissingBroadcast(t *testing.T) {
	repo := NewBroadcastRepository(setupTestDB(t))

	rec := &secondary.BroadcastRecord{ID: "BC-404", Urgency: "standard", Status: "pending", ResponseDeadline: testBroadcastedAt}
	ev := secondary.EventRecord{ID: "ev-none", BroadcastID: "BC-404", Kind: "tier_escalate", Reason: "x", CreatedAt: testBroadcastedAt}

	err := repo.CommitTransition(context.Background(), rec, ev, 1)
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("CommitTransition() error = %v, want ErrNotFound", err)
	}
}

func TestBroadcastRepository_EventOrderPreserved(t *testing.T) {
	repo := NewBroadcastRepository(setupTestDB(t))
	ctx := context.Background()

	rec := seedBroadcast(t, repo, "BC-001")

	// Two transitions at the same wall-clock instant: append order must
	// still survive the round trip.
	at := testBroadcastedAt.Add(65 * time.Minute)
	transitions := []secondary.EventRecord{
		{ID: "ev-1", BroadcastID: rec.ID, RuleID: "escalate_tier@30m", Kind: "tier_escalate", FromTier: 1, ToTier: 2, Reason: "first", CreatedAt: at},
		{ID: "ev-2", BroadcastID: rec.ID, RuleID: "increase_urgency@60m", Kind: "urgency_increase", FromUrgency: "standard", ToUrgency: "urgent", Reason: "second", CreatedAt: at},
	}
	for i, ev := range transitions {
		if err := repo.CommitTransition(ctx, rec, ev, 1+i); err != nil {
			t.Fatalf("CommitTransition(%d) error = %v", i, err)
		}
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	wantKinds := []string{"initial_broadcast", "tier_escalate", "urgency_increase"}
	if len(got.Events) != len(wantKinds) {
		t.Fatalf("len(Events) = %d, want %d", len(got.Events), len(wantKinds))
	}
	for i, kind := range wantKinds {
		if got.Events[i].Kind != kind {
			t.Errorf("Events[%d].Kind = %q, want %q", i, got.Events[i].Kind, kind)
		}
	}
}

func TestBroadcastRepository_ListFilters(t *testing.T) {
	repo := NewBroadcastRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		seedBroadcast(t, repo, fmt.Sprintf("BC-%03d", i))
	}
	filled := seedBroadcast(t, repo, "BC-004")
	filled.Status = "filled"
	ev := secondary.EventRecord{
		ID: "ev-fill", BroadcastID: filled.ID, Kind: "filled",
		Reason: "shift filled by partner", CreatedAt: testBroadcastedAt.Add(time.Hour),
	}
	if err := repo.CommitTransition(ctx, filled, ev, 1); err != nil {
		t.Fatalf("CommitTransition() error = %v", err)
	}

	all, err := repo.List(ctx, secondary.BroadcastFilters{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("List() returned %d broadcasts, want 4", len(all))
	}

	pending, err := repo.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending() error = %v", err)
	}
	if len(pending) != 3 {
		t.Errorf("ListPending() returned %d broadcasts, want 3", len(pending))
	}
	for _, rec := range pending {
		if rec.Status != "pending" {
			t.Errorf("broadcast %s status = %q, want pending", rec.ID, rec.Status)
		}
		if len(rec.Events) == 0 {
			t.Errorf("broadcast %s loaded without events", rec.ID)
		}
	}

	limited, err := repo.List(ctx, secondary.BroadcastFilters{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(limit=2) returned %d broadcasts, want 2", len(limited))
	}

	byLocation, err := repo.List(ctx, secondary.BroadcastFilters{LocationID: "LOC-WEST"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(byLocation) != 0 {
		t.Errorf("List(location=LOC-WEST) returned %d broadcasts, want 0", len(byLocation))
	}
}

func TestBroadcastRepository_GetNextID(t *testing.T) {
	repo := NewBroadcastRepository(setupTestDB(t))
	ctx := context.Background()

	id, err := repo.GetNextID(ctx)
	if err != nil {
		t.Fatalf("GetNextID() error = %v", err)
	}
	if id != "BC-001" {
		t.Errorf("GetNextID() = %q, want BC-001", id)
	}

	seedBroadcast(t, repo, "BC-001")
	seedBroadcast(t, repo, "BC-002")

	id, err = repo.GetNextID(ctx)
	if err != nil {
		t.Fatalf("GetNextID() error = %v", err)
	}
	if id != "BC-003" {
		t.Errorf("GetNextID() = %q, want BC-003", id)
	}
}

func TestBroadcastRepository_Responses(t *testing.T) {
	repo := NewBroadcastRepository(setupTestDB(t))
	ctx := context.Background()

	rec := seedBroadcast(t, repo, "BC-001")

	first := &secondary.ResponseRecord{
		ID:            "resp-1",
		BroadcastID:   rec.ID,
		PartnerID:     "partner-alpha",
		CandidateName: "J. Rivera",
		Score:         0.82,
		Status:        "submitted",
		SubmittedAt:   testBroadcastedAt.Add(20 * time.Minute),
	}
	second := &secondary.ResponseRecord{
		ID:          "resp-2",
		BroadcastID: rec.ID,
		PartnerID:   "partner-beta",
		Status:      "submitted",
		SubmittedAt: testBroadcastedAt.Add(40 * time.Minute),
	}
	for _, resp := range []*secondary.ResponseRecord{first, second} {
		if err := repo.AddResponse(ctx, resp); err != nil {
			t.Fatalf("AddResponse(%s) error = %v", resp.ID, err)
		}
	}

	responses, err := repo.ListResponses(ctx, rec.ID)
	if err != nil {
		t.Fatalf("ListResponses() error = %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("len(responses) = %d, want 2", len(responses))
	}
	if responses[0].PartnerID != "partner-alpha" {
		t.Errorf("responses[0].PartnerID = %q, want partner-alpha", responses[0].PartnerID)
	}
	if responses[0].CandidateName != "J. Rivera" {
		t.Errorf("responses[0].CandidateName = %q, want %q", responses[0].CandidateName, "J. Rivera")
	}
	if responses[1].CandidateName != "" {
		t.Errorf("responses[1].CandidateName = %q, want empty", responses[1].CandidateName)
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.PartnersResponded != 2 {
		t.Errorf("PartnersResponded = %d, want 2", got.PartnersResponded)
	}
}
