package app

import (
	"context"
	"testing"
	"time"

	"github.com/example/shiftcover/internal/clock"
	"github.com/example/shiftcover/internal/core/escalation"
	"github.com/example/shiftcover/internal/ports/primary"
	"github.com/example/shiftcover/internal/ports/secondary"
)

// mockRuleProvider returns the same ladder for every location.
type mockRuleProvider struct {
	rules []escalation.Rule
}

func (m *mockRuleProvider) RulesFor(locationID string) ([]escalation.Rule, error) {
	return m.rules, nil
}

// mockNotifier records dispatched events.
type mockNotifier struct {
	events []secondary.EventRecord
}

func (m *mockNotifier) Notify(ctx context.Context, rec *secondary.BroadcastRecord, ev secondary.EventRecord) error {
	m.events = append(m.events, ev)
	return nil
}

func sweeperLadder() []escalation.Rule {
	rules := []escalation.Rule{
		{TriggerAfterMinutes: 30, Action: escalation.ActionEscalateTier},
		{TriggerAfterMinutes: 60, Action: escalation.ActionIncreaseUrgency, NewUrgency: escalation.UrgencyUrgent},
		{TriggerAfterMinutes: 120, Action: escalation.ActionEscalateTier},
	}
	for i := range rules {
		rules[i].ID = escalation.DeriveRuleID(rules[i])
	}
	return rules
}

func newTestSweeper(expireOverdue bool) (*Sweeper, *mockBroadcastRepository, *mockNotifier, *clock.Fake, *BroadcastServiceImpl) {
	repo := newMockBroadcastRepository()
	clk := clock.NewFake(testStart)
	notifier := &mockNotifier{}
	sweeper := NewSweeper(repo, &mockRuleProvider{rules: sweeperLadder()}, notifier, clk, nil, expireOverdue)
	service := NewBroadcastService(repo, clk)
	return sweeper, repo, notifier, clk, service
}

func TestSweeper_AppliesDueRule(t *testing.T) {
	sweeper, repo, notifier, clk, service := newTestSweeper(false)
	ctx := context.Background()
	id := createTestBroadcast(t, service)

	clk.Advance(45 * time.Minute)
	result, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if result.Evaluated != 1 || result.Applied != 1 {
		t.Errorf("result = %+v, want 1 evaluated, 1 applied", result)
	}
	stored := repo.broadcasts[id]
	if stored.CurrentTier != 2 {
		t.Errorf("CurrentTier = %d, want 2", stored.CurrentTier)
	}
	if stored.Version != 2 {
		t.Errorf("Version = %d, want 2 after one commit", stored.Version)
	}
	if len(notifier.events) != 1 || notifier.events[0].Kind != escalation.EventTierEscalate {
		t.Errorf("dispatched = %+v, want one tier_escalate event", notifier.events)
	}
}

func TestSweeper_SecondPassSameTickIsNoop(t *testing.T) {
	sweeper, repo, _, clk, service := newTestSweeper(false)
	ctx := context.Background()
	id := createTestBroadcast(t, service)

	clk.Advance(45 * time.Minute)
	if _, err := sweeper.Sweep(ctx); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	result, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}

	if result.Applied != 0 {
		t.Errorf("second pass applied %d rules, want 0", result.Applied)
	}
	if len(repo.broadcasts[id].Events) != 2 {
		t.Errorf("events = %d, want 2 (initial + one escalation)", len(repo.broadcasts[id].Events))
	}
}

func TestSweeper_WalksLadderAcrossTicks(t *testing.T) {
	sweeper, repo, _, clk, service := newTestSweeper(false)
	ctx := context.Background()
	id := createTestBroadcast(t, service)

	// One rule per pass: at 125 minutes, three passes drain the ladder.
	clk.Advance(125 * time.Minute)
	for i := 0; i < 3; i++ {
		if _, err := sweeper.Sweep(ctx); err != nil {
			t.Fatalf("sweep %d failed: %v", i, err)
		}
	}

	stored := repo.broadcasts[id]
	if stored.CurrentTier != 3 {
		t.Errorf("CurrentTier = %d, want 3", stored.CurrentTier)
	}
	if stored.Urgency != escalation.UrgencyUrgent {
		t.Errorf("Urgency = %q, want urgent", stored.Urgency)
	}
	if len(stored.Events) != 4 {
		t.Errorf("events = %d, want 4", len(stored.Events))
	}

	result, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("drained sweep failed: %v", err)
	}
	if result.Applied != 0 {
		t.Errorf("drained ladder still applied %d rules", result.Applied)
	}
}

func TestSweeper_SkipsTerminalRecords(t *testing.T) {
	sweeper, repo, _, clk, service := newTestSweeper(false)
	ctx := context.Background()
	id := createTestBroadcast(t, service)

	if err := service.CancelBroadcast(ctx, primary.CancelBroadcastRequest{BroadcastID: id}); err != nil {
		t.Fatalf("CancelBroadcast failed: %v", err)
	}

	clk.Advance(500 * time.Minute)
	result, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if result.Evaluated != 0 || result.Applied != 0 {
		t.Errorf("result = %+v, want nothing evaluated for terminal record", result)
	}
	if len(repo.broadcasts[id].Events) != 2 {
		t.Errorf("events = %d, want 2 (no escalation after cancel)", len(repo.broadcasts[id].Events))
	}
}

func TestSweeper_ConflictRetriesAgainstFreshRecord(t *testing.T) {
	sweeper, repo, _, clk, service := newTestSweeper(false)
	ctx := context.Background()
	id := createTestBroadcast(t, service)

	clk.Advance(45 * time.Minute)
	repo.conflictsRemaining = 1

	result, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if result.Conflicts != 1 {
		t.Errorf("Conflicts = %d, want 1", result.Conflicts)
	}
	// The retry against the fresh record still lands exactly one event.
	stored := repo.broadcasts[id]
	if stored.CurrentTier != 2 || len(stored.Events) != 2 {
		t.Errorf("tier=%d events=%d, want tier=2 events=2 after retry", stored.CurrentTier, len(stored.Events))
	}
}

func TestSweeper_ExpiresOverdueBroadcasts(t *testing.T) {
	sweeper, repo, notifier, clk, service := newTestSweeper(true)
	ctx := context.Background()
	id := createTestBroadcast(t, service)

	// Past the 8 hour deadline; expiry takes precedence over escalation.
	clk.Advance(9 * time.Hour)
	result, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if result.Expired != 1 || result.Applied != 0 {
		t.Errorf("result = %+v, want 1 expired, 0 applied", result)
	}
	stored := repo.broadcasts[id]
	if stored.Status != escalation.StatusExpired {
		t.Errorf("Status = %q, want expired", stored.Status)
	}
	if notifier.events[len(notifier.events)-1].Kind != escalation.EventExpired {
		t.Errorf("last dispatched kind = %q, want expired", notifier.events[len(notifier.events)-1].Kind)
	}

	// Terminal: later sweeps leave the record alone.
	if result, err = sweeper.Sweep(ctx); err != nil || result.Evaluated != 0 {
		t.Errorf("post-expiry sweep = %+v err=%v, want nothing evaluated", result, err)
	}
}

func TestSweeper_NoExpiryWhenDisabled(t *testing.T) {
	sweeper, repo, _, clk, service := newTestSweeper(false)
	ctx := context.Background()
	id := createTestBroadcast(t, service)

	clk.Advance(9 * time.Hour)
	if _, err := sweeper.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	if repo.broadcasts[id].Status != escalation.StatusPending {
		t.Errorf("Status = %q, want pending with expiry disabled", repo.broadcasts[id].Status)
	}
}
