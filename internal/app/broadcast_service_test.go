package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/example/shiftcover/internal/clock"
	"github.com/example/shiftcover/internal/core/escalation"
	"github.com/example/shiftcover/internal/ports/primary"
	"github.com/example/shiftcover/internal/ports/secondary"
)

var testStart = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

// mockBroadcastRepository implements secondary.BroadcastRepository for
// testing, with the same version-guarded commit semantics as the sqlite
// adapter.
type mockBroadcastRepository struct {
	broadcasts map[string]*secondary.BroadcastRecord
	responses  map[string][]*secondary.ResponseRecord
	nextID     int

	// conflictsRemaining forces CommitTransition to lose the version race
	// that many times before behaving normally.
	conflictsRemaining int
}

func newMockBroadcastRepository() *mockBroadcastRepository {
	return &mockBroadcastRepository{
		broadcasts: make(map[string]*secondary.BroadcastRecord),
		responses:  make(map[string][]*secondary.ResponseRecord),
		nextID:     1,
	}
}

func cloneRecord(r *secondary.BroadcastRecord) *secondary.BroadcastRecord {
	cp := *r
	cp.Events = make([]secondary.EventRecord, len(r.Events))
	copy(cp.Events, r.Events)
	return &cp
}

func (m *mockBroadcastRepository) Create(ctx context.Context, rec *secondary.BroadcastRecord, initial secondary.EventRecord) error {
	cp := cloneRecord(rec)
	cp.Events = []secondary.EventRecord{initial}
	m.broadcasts[rec.ID] = cp
	return nil
}

func (m *mockBroadcastRepository) GetByID(ctx context.Context, id string) (*secondary.BroadcastRecord, error) {
	if r, ok := m.broadcasts[id]; ok {
		return cloneRecord(r), nil
	}
	return nil, secondary.ErrNotFound
}

func (m *mockBroadcastRepository) List(ctx context.Context, filters secondary.BroadcastFilters) ([]*secondary.BroadcastRecord, error) {
	var result []*secondary.BroadcastRecord
	for _, r := range m.broadcasts {
		if filters.Status != "" && r.Status != filters.Status {
			continue
		}
		if filters.LocationID != "" && r.LocationID != filters.LocationID {
			continue
		}
		if filters.ShiftID != "" && r.ShiftID != filters.ShiftID {
			continue
		}
		result = append(result, cloneRecord(r))
	}
	return result, nil
}

func (m *mockBroadcastRepository) ListPending(ctx context.Context) ([]*secondary.BroadcastRecord, error) {
	return m.List(ctx, secondary.BroadcastFilters{Status: escalation.StatusPending})
}

func (m *mockBroadcastRepository) CommitTransition(ctx context.Context, rec *secondary.BroadcastRecord, ev secondary.EventRecord, expectedVersion int) error {
	if m.conflictsRemaining > 0 {
		m.conflictsRemaining--
		return secondary.ErrVersionConflict
	}
	current, ok := m.broadcasts[rec.ID]
	if !ok {
		return secondary.ErrNotFound
	}
	if current.Version != expectedVersion {
		return secondary.ErrVersionConflict
	}
	next := cloneRecord(rec)
	next.Events = append(append([]secondary.EventRecord{}, current.Events...), ev)
	next.Version = current.Version + 1
	m.broadcasts[rec.ID] = next
	return nil
}

func (m *mockBroadcastRepository) GetNextID(ctx context.Context) (string, error) {
	id := m.nextID
	m.nextID++
	return fmt.Sprintf("BC-%03d", id), nil
}

func (m *mockBroadcastRepository) AddResponse(ctx context.Context, resp *secondary.ResponseRecord) error {
	m.responses[resp.BroadcastID] = append(m.responses[resp.BroadcastID], resp)
	if r, ok := m.broadcasts[resp.BroadcastID]; ok {
		r.PartnersResponded++
	}
	return nil
}

func (m *mockBroadcastRepository) ListResponses(ctx context.Context, broadcastID string) ([]*secondary.ResponseRecord, error) {
	return m.responses[broadcastID], nil
}

func newTestBroadcastService() (*BroadcastServiceImpl, *mockBroadcastRepository, *clock.Fake) {
	repo := newMockBroadcastRepository()
	clk := clock.NewFake(testStart)
	return NewBroadcastService(repo, clk), repo, clk
}

func createTestBroadcast(t *testing.T, service *BroadcastServiceImpl) string {
	t.Helper()
	resp, err := service.CreateBroadcast(context.Background(), primary.CreateBroadcastRequest{
		ShiftID:    "SHIFT-9001",
		LocationID: "LOC-NORTH",
		Deadline:   testStart.Add(8 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateBroadcast failed: %v", err)
	}
	return resp.BroadcastID
}

func TestBroadcastService_CreateBroadcast(t *testing.T) {
	service, _, _ := newTestBroadcastService()
	ctx := context.Background()

	resp, err := service.CreateBroadcast(ctx, primary.CreateBroadcastRequest{
		ShiftID:    "SHIFT-9001",
		LocationID: "LOC-NORTH",
		Deadline:   testStart.Add(8 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateBroadcast failed: %v", err)
	}

	b := resp.Broadcast
	if b.Status != escalation.StatusPending {
		t.Errorf("Status = %q, want pending", b.Status)
	}
	if b.CurrentTier != 1 || b.MaxTiers != 3 {
		t.Errorf("tier = %d/%d, want 1/3", b.CurrentTier, b.MaxTiers)
	}
	if b.Urgency != escalation.UrgencyStandard {
		t.Errorf("Urgency = %q, want standard", b.Urgency)
	}
	if len(b.History) != 1 || b.History[0].Kind != escalation.EventInitialBroadcast {
		t.Errorf("history = %+v, want single initial_broadcast event", b.History)
	}
	if b.Remaining.Overdue || b.Remaining.Display != "8h 0m remaining" {
		t.Errorf("Remaining = %+v, want 8h 0m remaining", b.Remaining)
	}
}

func TestBroadcastService_CreateBroadcastValidation(t *testing.T) {
	service, _, _ := newTestBroadcastService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  primary.CreateBroadcastRequest
	}{
		{
			name: "missing shift",
			req:  primary.CreateBroadcastRequest{LocationID: "LOC-NORTH", Deadline: testStart.Add(time.Hour)},
		},
		{
			name: "missing location",
			req:  primary.CreateBroadcastRequest{ShiftID: "SHIFT-1", Deadline: testStart.Add(time.Hour)},
		},
		{
			name: "missing deadline",
			req:  primary.CreateBroadcastRequest{ShiftID: "SHIFT-1", LocationID: "LOC-NORTH"},
		},
		{
			name: "unknown urgency",
			req:  primary.CreateBroadcastRequest{ShiftID: "SHIFT-1", LocationID: "LOC-NORTH", Deadline: testStart.Add(time.Hour), Urgency: "frantic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.CreateBroadcast(ctx, tt.req); err == nil {
				t.Error("CreateBroadcast accepted invalid request")
			}
		})
	}
}

func TestBroadcastService_FillBroadcast(t *testing.T) {
	service, repo, _ := newTestBroadcastService()
	ctx := context.Background()
	id := createTestBroadcast(t, service)

	if err := service.FillBroadcast(ctx, primary.FillBroadcastRequest{BroadcastID: id, FilledBy: "agency-7"}); err != nil {
		t.Fatalf("FillBroadcast failed: %v", err)
	}

	stored := repo.broadcasts[id]
	if stored.Status != escalation.StatusFilled {
		t.Errorf("Status = %q, want filled", stored.Status)
	}
	if len(stored.Events) != 2 || stored.Events[1].Kind != escalation.EventFilled {
		t.Errorf("events = %+v, want filled event appended", stored.Events)
	}

	// Terminal: a second fill must be rejected.
	if err := service.FillBroadcast(ctx, primary.FillBroadcastRequest{BroadcastID: id}); err == nil {
		t.Error("FillBroadcast succeeded on a filled broadcast")
	}
}

func TestBroadcastService_CancelBroadcast(t *testing.T) {
	service, repo, _ := newTestBroadcastService()
	ctx := context.Background()
	id := createTestBroadcast(t, service)

	if err := service.CancelBroadcast(ctx, primary.CancelBroadcastRequest{BroadcastID: id, CancelledBy: "scheduler-ui"}); err != nil {
		t.Fatalf("CancelBroadcast failed: %v", err)
	}

	if repo.broadcasts[id].Status != escalation.StatusCancelled {
		t.Errorf("Status = %q, want cancelled", repo.broadcasts[id].Status)
	}
	if err := service.ExtendDeadline(ctx, primary.ExtendDeadlineRequest{BroadcastID: id, ExtendMinutes: 30}); err == nil {
		t.Error("ExtendDeadline succeeded on a cancelled broadcast")
	}
}

func TestBroadcastService_ExtendDeadline(t *testing.T) {
	service, repo, _ := newTestBroadcastService()
	ctx := context.Background()
	id := createTestBroadcast(t, service)
	before := repo.broadcasts[id].ResponseDeadline

	if err := service.ExtendDeadline(ctx, primary.ExtendDeadlineRequest{BroadcastID: id, ExtendMinutes: 45}); err != nil {
		t.Fatalf("ExtendDeadline failed: %v", err)
	}

	stored := repo.broadcasts[id]
	if want := before.Add(45 * time.Minute); !stored.ResponseDeadline.Equal(want) {
		t.Errorf("ResponseDeadline = %v, want %v", stored.ResponseDeadline, want)
	}
	if stored.Events[len(stored.Events)-1].Kind != escalation.EventDeadlineExtend {
		t.Errorf("last event kind = %q, want deadline_extend", stored.Events[len(stored.Events)-1].Kind)
	}

	if err := service.ExtendDeadline(ctx, primary.ExtendDeadlineRequest{BroadcastID: id, ExtendMinutes: 0}); err == nil {
		t.Error("ExtendDeadline accepted non-positive minutes")
	}
}

func TestBroadcastService_EscalateToSupervisor(t *testing.T) {
	service, repo, _ := newTestBroadcastService()
	ctx := context.Background()
	id := createTestBroadcast(t, service)

	if err := service.EscalateToSupervisor(ctx, primary.EscalateRequest{BroadcastID: id, Reason: "no responses after two tiers"}); err != nil {
		t.Fatalf("EscalateToSupervisor failed: %v", err)
	}

	stored := repo.broadcasts[id]
	if stored.Status != escalation.StatusPending {
		t.Errorf("Status = %q, manual escalation must not change status", stored.Status)
	}
	last := stored.Events[len(stored.Events)-1]
	if last.Kind != escalation.EventManualEscalate || last.Reason != "no responses after two tiers" {
		t.Errorf("last event = %+v, want manual_escalate with supplied reason", last)
	}
}

func TestBroadcastService_RecordResponse(t *testing.T) {
	service, repo, _ := newTestBroadcastService()
	ctx := context.Background()
	id := createTestBroadcast(t, service)

	err := service.RecordResponse(ctx, primary.RecordResponseRequest{
		BroadcastID:   id,
		PartnerID:     "AGENCY-12",
		CandidateName: "J. Rivera",
		Score:         0.84,
	})
	if err != nil {
		t.Fatalf("RecordResponse failed: %v", err)
	}

	if repo.broadcasts[id].PartnersResponded != 1 {
		t.Errorf("PartnersResponded = %d, want 1", repo.broadcasts[id].PartnersResponded)
	}
	responses, err := service.ListResponses(ctx, id)
	if err != nil {
		t.Fatalf("ListResponses failed: %v", err)
	}
	if len(responses) != 1 || responses[0].Status != "submitted" {
		t.Errorf("responses = %+v, want one submitted response", responses)
	}

	if err := service.RecordResponse(ctx, primary.RecordResponseRequest{BroadcastID: "BC-999", PartnerID: "AGENCY-12"}); err == nil {
		t.Error("RecordResponse succeeded for unknown broadcast")
	}
}
