package escalation

import (
	"fmt"
	"sort"
)

// Rule action constants.
const (
	ActionEscalateTier     = "escalate_tier"
	ActionIncreaseUrgency  = "increase_urgency"
	ActionExtendDeadline   = "extend_deadline"
	ActionNotifySupervisor = "notify_supervisor"
)

// Rule is one configured (time-threshold, action) pair. Rules are
// configuration entities: they are validated once at load time and never
// mutated by the engine.
type Rule struct {
	// ID is the stable identifier recorded on every event the rule
	// produces. When a rule-set file omits it, DeriveRuleID fills it in.
	ID                  string
	TriggerAfterMinutes int
	Action              string
	// NewUrgency is required for increase_urgency and unused otherwise.
	NewUrgency string
	// ExtendMinutes is required for extend_deadline and unused otherwise.
	ExtendMinutes int
}

// DeriveRuleID returns the default identifier for a rule without one:
// "<action>@<threshold>m". Stable as long as the rule itself is unchanged.
func DeriveRuleID(r Rule) string {
	return fmt.Sprintf("%s@%dm", r.Action, r.TriggerAfterMinutes)
}

// SortRules orders rules ascending by trigger threshold, preserving the
// supplied order among equal thresholds. SelectNextRule scans rules in the
// order given and relies on the caller having sorted them.
func SortRules(rules []Rule) []Rule {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TriggerAfterMinutes < sorted[j].TriggerAfterMinutes
	})
	return sorted
}
