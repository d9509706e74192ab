package escalation

import "time"

// SelectNextRule returns the first rule, in the supplied order, whose
// trigger threshold has elapsed and which has not already been applied to
// the record. Rules are expected pre-sorted ascending by trigger threshold;
// the evaluator does not sort them.
//
// The function is pure and safe to call redundantly: a rule counts as
// applied when the record's history holds an event tagged with its ID, so a
// second evaluation at the same instant selects nothing new.
//
// Records in any status other than pending yield no rule.
func SelectNextRule(rec Record, rules []Rule, now time.Time) (Rule, bool) {
	if !rec.Evaluable() {
		return Rule{}, false
	}

	elapsed := rec.ElapsedMinutes(now)
	for _, rule := range rules {
		if elapsed < rule.TriggerAfterMinutes {
			continue
		}
		if ruleApplied(rec, rule) {
			continue
		}
		return rule, true
	}
	return Rule{}, false
}

// ruleApplied reports whether the record's history already holds an event
// produced by this rule.
func ruleApplied(rec Record, rule Rule) bool {
	if rule.ID == "" {
		return false
	}
	for _, ev := range rec.History {
		if ev.RuleID == rule.ID {
			return true
		}
	}
	return false
}
