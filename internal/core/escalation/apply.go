package escalation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Apply executes rule against rec and returns the updated record together
// with the event appended to its history. The input record is never
// mutated. Apply performs no time comparison of its own: it trusts
// SelectNextRule to have established applicability, and uses now only to
// timestamp the event.
func Apply(rec Record, rule Rule, now time.Time) (Record, Event) {
	switch rule.Action {
	case ActionEscalateTier:
		return applyTierEscalation(rec, rule, now)

	case ActionIncreaseUrgency:
		ev := newRuleEvent(rule, now,
			UrgencyIncreased{FromUrgency: rec.Urgency, ToUrgency: rule.NewUrgency},
			fmt.Sprintf("urgency raised to %s after %d minutes without coverage", rule.NewUrgency, rule.TriggerAfterMinutes))
		next := rec.WithEvent(ev)
		next.Urgency = rule.NewUrgency
		return next, ev

	case ActionExtendDeadline:
		newDeadline := rec.ResponseDeadline.Add(time.Duration(rule.ExtendMinutes) * time.Minute)
		ev := newRuleEvent(rule, now,
			DeadlineExtended{ExtendedMinutes: rule.ExtendMinutes, NewDeadline: newDeadline},
			fmt.Sprintf("response deadline extended by %d minutes after %d minutes without coverage", rule.ExtendMinutes, rule.TriggerAfterMinutes))
		next := rec.WithEvent(ev)
		next.ResponseDeadline = newDeadline
		return next, ev

	case ActionNotifySupervisor:
		ev := newRuleEvent(rule, now,
			SupervisorNotified{},
			fmt.Sprintf("supervisor alerted after %d minutes without coverage", rule.TriggerAfterMinutes))
		return rec.WithEvent(ev), ev

	default:
		// Unreachable for validated rule sets; leave the record untouched.
		return rec, Event{}
	}
}

// applyTierEscalation advances the partner tier by one. At the tier ceiling
// the tier stays put and the appended event records the attempt with
// FromTier == ToTier, which also marks the rule applied so it is never
// re-selected.
func applyTierEscalation(rec Record, rule Rule, now time.Time) (Record, Event) {
	from := rec.CurrentTier
	to := from
	reason := fmt.Sprintf("tier escalated after %d minutes without coverage", rule.TriggerAfterMinutes)
	if from < rec.MaxTiers {
		to = from + 1
	} else {
		reason = fmt.Sprintf("already at maximum tier %d after %d minutes without coverage", rec.MaxTiers, rule.TriggerAfterMinutes)
	}

	ev := newRuleEvent(rule, now, TierEscalated{FromTier: from, ToTier: to}, reason)
	next := rec.WithEvent(ev)
	next.CurrentTier = to
	return next, ev
}

func newRuleEvent(rule Rule, now time.Time, detail Detail, reason string) Event {
	return Event{
		ID:     uuid.NewString(),
		RuleID: rule.ID,
		At:     now,
		Reason: reason,
		Detail: detail,
	}
}

// NewLifecycleEvent builds an event outside rule application: the initial
// broadcast, manual actions, and the terminal transitions.
func NewLifecycleEvent(now time.Time, detail Detail, reason string) Event {
	return Event{
		ID:     uuid.NewString(),
		At:     now,
		Reason: reason,
		Detail: detail,
	}
}
