// +build ignore

package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Event represents an escalation event row missing its rule_id
type Event struct {
	ID          string
	BroadcastID string
	Kind        string
	CreatedAt   time.Time
}

// Kinds produced by escalation rules. Lifecycle events (initial_broadcast,
// filled, expired, cancelled, manual_escalate) legitimately carry no rule_id
// and are left alone.
var ruleDrivenKinds = map[string]string{
	"tier_escalate":    "escalate_tier",
	"urgency_increase": "increase_urgency",
	"deadline_extend":  "extend_deadline",
}

// Default ladder thresholds per action. Events fire on the sweep after the
// threshold passes, so the elapsed time at the event is snapped down to the
// threshold that triggered it.
var actionThresholds = map[string][]int{
	"escalate_tier":    {30, 120},
	"increase_urgency": {60, 180},
	"extend_deadline":  {},
}

func snapThreshold(action string, elapsed int) int {
	best := elapsed
	for _, t := range actionThresholds[action] {
		if t <= elapsed {
			best = t
		}
	}
	return best
}

func main() {
	dryRun := flag.Bool("dry-run", false, "Preview backfill without executing")
	flag.Parse()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting home dir: %v\n", err)
		os.Exit(1)
	}
	dbPath := filepath.Join(homeDir, ".shiftcover", "shiftcover.db")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Rule-driven events written before rule_id existed: reconstruct the ID
	// from the action and the elapsed minutes at the time the event fired.
	rows, err := db.Query(`
		SELECT e.id, e.broadcast_id, e.kind, e.created_at, b.broadcasted_at
		FROM escalation_events e
		JOIN broadcasts b ON b.id = e.broadcast_id
		WHERE e.rule_id IS NULL
		  AND e.kind IN ('tier_escalate', 'urgency_increase', 'deadline_extend')
		ORDER BY e.broadcast_id, e.created_at`)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying events: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	type backfill struct {
		eventID string
		ruleID  string
	}
	var updates []backfill
	for rows.Next() {
		var ev Event
		var broadcastedAt time.Time
		if err := rows.Scan(&ev.ID, &ev.BroadcastID, &ev.Kind, &ev.CreatedAt, &broadcastedAt); err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning event: %v\n", err)
			os.Exit(1)
		}
		action := ruleDrivenKinds[ev.Kind]
		elapsed := int(ev.CreatedAt.Sub(broadcastedAt).Minutes())
		ruleID := fmt.Sprintf("%s@%dm", action, snapThreshold(action, elapsed))
		updates = append(updates, backfill{eventID: ev.ID, ruleID: ruleID})
		fmt.Printf("%s  %s  %-16s -> %s\n", ev.BroadcastID, ev.ID, ev.Kind, ruleID)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading events: %v\n", err)
		os.Exit(1)
	}

	if len(updates) == 0 {
		fmt.Println("No events need backfilling")
		return
	}

	if *dryRun {
		fmt.Printf("\nDry run: %d events would be updated\n", len(updates))
		return
	}

	tx, err := db.Begin()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error beginning transaction: %v\n", err)
		os.Exit(1)
	}
	for _, u := range updates {
		if _, err := tx.Exec("UPDATE escalation_events SET rule_id = ? WHERE id = ?", u.ruleID, u.eventID); err != nil {
			tx.Rollback()
			fmt.Fprintf(os.Stderr, "Error updating event %s: %v\n", u.eventID, err)
			os.Exit(1)
		}
	}
	if err := tx.Commit(); err != nil {
		fmt.Fprintf(os.Stderr, "Error committing: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nBackfilled %d events\n", len(updates))
}
