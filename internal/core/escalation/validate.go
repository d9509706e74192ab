package escalation

import "fmt"

// ValidationError reports a rejected record or rule at the construction
// boundary. Once construction succeeds the engine cannot fail at
// evaluation or application time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

var validUrgencies = map[string]bool{
	UrgencyStandard: true,
	UrgencyUrgent:   true,
	UrgencyCritical: true,
}

// ValidateRecord checks the invariants a broadcast record must satisfy
// before the engine accepts it.
func ValidateRecord(r Record) error {
	if r.MaxTiers < 1 {
		return validationErrorf("maxTiers", "must be at least 1, got %d", r.MaxTiers)
	}
	if r.CurrentTier < 1 || r.CurrentTier > r.MaxTiers {
		return validationErrorf("currentTier", "must be within [1, %d], got %d", r.MaxTiers, r.CurrentTier)
	}
	if !validUrgencies[r.Urgency] {
		return validationErrorf("urgency", "must be one of standard, urgent, critical, got %q", r.Urgency)
	}
	if r.BroadcastedAt.IsZero() {
		return validationErrorf("broadcastedAt", "must be set")
	}
	if r.ResponseDeadline.IsZero() {
		return validationErrorf("responseDeadline", "must be set")
	}
	return nil
}

// ValidateRule checks a single rule's configuration.
func ValidateRule(r Rule) error {
	if r.TriggerAfterMinutes < 0 {
		return validationErrorf("triggerAfterMinutes", "must not be negative, got %d", r.TriggerAfterMinutes)
	}
	switch r.Action {
	case ActionEscalateTier, ActionNotifySupervisor:
	case ActionIncreaseUrgency:
		if r.NewUrgency == "" {
			return validationErrorf("newUrgency", "required for %s", ActionIncreaseUrgency)
		}
		if !validUrgencies[r.NewUrgency] {
			return validationErrorf("newUrgency", "must be one of standard, urgent, critical, got %q", r.NewUrgency)
		}
	case ActionExtendDeadline:
		if r.ExtendMinutes <= 0 {
			return validationErrorf("extendMinutes", "must be positive for %s, got %d", ActionExtendDeadline, r.ExtendMinutes)
		}
	default:
		return validationErrorf("action", "unknown action %q", r.Action)
	}
	return nil
}

// ValidateRuleSet checks every rule and enforces unique rule IDs. Rules
// without an ID must be given one (see DeriveRuleID) before validation.
func ValidateRuleSet(rules []Rule) error {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if err := ValidateRule(r); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		if r.ID == "" {
			return fmt.Errorf("rule %d: %w", i, validationErrorf("id", "must be set"))
		}
		if seen[r.ID] {
			return fmt.Errorf("rule %d: %w", i, validationErrorf("id", "duplicate rule id %q", r.ID))
		}
		seen[r.ID] = true
	}
	return nil
}
