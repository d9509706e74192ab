package app

import (
	"github.com/example/shiftcover/internal/core/escalation"
	"github.com/example/shiftcover/internal/ports/primary"
	"github.com/example/shiftcover/internal/ports/secondary"
)

// recordFromStore rebuilds the pure core record, including typed event
// details, from its persistence shape.
func recordFromStore(r *secondary.BroadcastRecord) escalation.Record {
	rec := escalation.Record{
		ID:                r.ID,
		ShiftID:           r.ShiftID,
		LocationID:        r.LocationID,
		DepartmentID:      r.DepartmentID,
		BroadcastedAt:     r.BroadcastedAt,
		ResponseDeadline:  r.ResponseDeadline,
		AutoEscalateAt:    r.AutoEscalateAt,
		Urgency:           r.Urgency,
		CurrentTier:       r.CurrentTier,
		MaxTiers:          r.MaxTiers,
		Status:            r.Status,
		PartnersNotified:  r.PartnersNotified,
		PartnersResponded: r.PartnersResponded,
		Version:           r.Version,
	}
	rec.History = make([]escalation.Event, 0, len(r.Events))
	for _, ev := range r.Events {
		rec.History = append(rec.History, eventFromStore(ev))
	}
	return rec
}

func eventFromStore(ev secondary.EventRecord) escalation.Event {
	var detail escalation.Detail
	switch ev.Kind {
	case escalation.EventInitialBroadcast:
		detail = escalation.InitialBroadcast{Tier: ev.ToTier, Urgency: ev.ToUrgency}
	case escalation.EventTierEscalate:
		detail = escalation.TierEscalated{FromTier: ev.FromTier, ToTier: ev.ToTier}
	case escalation.EventUrgencyIncrease:
		detail = escalation.UrgencyIncreased{FromUrgency: ev.FromUrgency, ToUrgency: ev.ToUrgency}
	case escalation.EventDeadlineExtend:
		detail = escalation.DeadlineExtended{ExtendedMinutes: ev.ExtendMinutes, NewDeadline: ev.NewDeadline}
	case escalation.EventManualEscalate:
		detail = escalation.SupervisorNotified{}
	case escalation.EventFilled:
		detail = escalation.Filled{}
	case escalation.EventExpired:
		detail = escalation.Expired{Deadline: ev.NewDeadline}
	case escalation.EventCancelled:
		detail = escalation.Cancelled{}
	default:
		// Unknown kinds are kept in history as manual escalations so the
		// audit trail stays complete for display.
		detail = escalation.SupervisorNotified{}
	}
	return escalation.Event{
		ID:     ev.ID,
		RuleID: ev.RuleID,
		At:     ev.CreatedAt,
		Reason: ev.Reason,
		Detail: detail,
	}
}

// eventToStore flattens a typed event into its persistence row.
func eventToStore(broadcastID string, ev escalation.Event) secondary.EventRecord {
	row := secondary.EventRecord{
		ID:          ev.ID,
		BroadcastID: broadcastID,
		RuleID:      ev.RuleID,
		Kind:        ev.Kind(),
		Reason:      ev.Reason,
		CreatedAt:   ev.At,
	}
	switch d := ev.Detail.(type) {
	case escalation.InitialBroadcast:
		row.ToTier = d.Tier
		row.ToUrgency = d.Urgency
	case escalation.TierEscalated:
		row.FromTier = d.FromTier
		row.ToTier = d.ToTier
	case escalation.UrgencyIncreased:
		row.FromUrgency = d.FromUrgency
		row.ToUrgency = d.ToUrgency
	case escalation.DeadlineExtended:
		row.ExtendMinutes = d.ExtendedMinutes
		row.NewDeadline = d.NewDeadline
	case escalation.Expired:
		row.NewDeadline = d.Deadline
	}
	return row
}

// recordToStore flattens the mutable state of a core record for a
// CommitTransition write. Events travel separately.
func recordToStore(rec escalation.Record) *secondary.BroadcastRecord {
	return &secondary.BroadcastRecord{
		ID:                rec.ID,
		ShiftID:           rec.ShiftID,
		LocationID:        rec.LocationID,
		DepartmentID:      rec.DepartmentID,
		BroadcastedAt:     rec.BroadcastedAt,
		ResponseDeadline:  rec.ResponseDeadline,
		AutoEscalateAt:    rec.AutoEscalateAt,
		Urgency:           rec.Urgency,
		CurrentTier:       rec.CurrentTier,
		MaxTiers:          rec.MaxTiers,
		Status:            rec.Status,
		PartnersNotified:  rec.PartnersNotified,
		PartnersResponded: rec.PartnersResponded,
		Version:           rec.Version,
	}
}

// broadcastToPort maps a store record to the read-only port shape. The
// caller fills Remaining from its clock.
func broadcastToPort(r *secondary.BroadcastRecord) *primary.Broadcast {
	b := &primary.Broadcast{
		ID:                r.ID,
		ShiftID:           r.ShiftID,
		LocationID:        r.LocationID,
		DepartmentID:      r.DepartmentID,
		BroadcastedAt:     r.BroadcastedAt,
		ResponseDeadline:  r.ResponseDeadline,
		Urgency:           r.Urgency,
		CurrentTier:       r.CurrentTier,
		MaxTiers:          r.MaxTiers,
		Status:            r.Status,
		PartnersNotified:  r.PartnersNotified,
		PartnersResponded: r.PartnersResponded,
	}
	b.History = make([]primary.HistoryEntry, 0, len(r.Events))
	for _, ev := range r.Events {
		b.History = append(b.History, primary.HistoryEntry{
			At:     ev.CreatedAt,
			Kind:   ev.Kind,
			RuleID: ev.RuleID,
			Reason: ev.Reason,
		})
	}
	return b
}
