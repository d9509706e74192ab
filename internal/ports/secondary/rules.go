package secondary

import "github.com/example/shiftcover/internal/core/escalation"

// RuleProvider supplies the effective, validated, threshold-sorted rule set
// for a location. Rule sets are configured per tenant/location; the engine
// never hardcodes them.
type RuleProvider interface {
	RulesFor(locationID string) ([]escalation.Rule, error)
}
