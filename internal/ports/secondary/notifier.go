package secondary

import "context"

// Notifier is the boundary to the notification dispatcher. Every committed
// escalation event is handed over exactly once per commit; how partners,
// agencies or supervisors are actually reached is the dispatcher's concern.
type Notifier interface {
	Notify(ctx context.Context, rec *BroadcastRecord, ev EventRecord) error
}
