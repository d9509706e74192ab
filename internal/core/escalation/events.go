package escalation

import "time"

// Event kind constants. The kind is derived from the detail variant; these
// values are the wire/persistence names consumed by the notification
// dispatcher and the UI.
const (
	EventInitialBroadcast = "initial_broadcast"
	EventTierEscalate     = "tier_escalate"
	EventUrgencyIncrease  = "urgency_increase"
	EventDeadlineExtend   = "deadline_extend"
	EventManualEscalate   = "manual_escalate"
	EventFilled           = "filled"
	EventExpired          = "expired"
	EventCancelled        = "cancelled"
)

// Detail is the kind-specific payload of an escalation event. Each kind has
// its own variant carrying only the fields relevant to it, so illegal field
// combinations cannot be built.
type Detail interface {
	Kind() string
}

// InitialBroadcast records the creation of a broadcast.
type InitialBroadcast struct {
	Tier    int
	Urgency string
}

func (InitialBroadcast) Kind() string { return EventInitialBroadcast }

// TierEscalated records a partner-pool expansion. FromTier equals ToTier
// when an escalate_tier rule fired at the tier ceiling.
type TierEscalated struct {
	FromTier int
	ToTier   int
}

func (TierEscalated) Kind() string { return EventTierEscalate }

// UrgencyIncreased records an urgency replacement.
type UrgencyIncreased struct {
	FromUrgency string
	ToUrgency   string
}

func (UrgencyIncreased) Kind() string { return EventUrgencyIncrease }

// DeadlineExtended records a response-deadline extension.
type DeadlineExtended struct {
	ExtendedMinutes int
	NewDeadline     time.Time
}

func (DeadlineExtended) Kind() string { return EventDeadlineExtend }

// SupervisorNotified records a manual (human) escalation. Delivery of the
// alert itself is an external reaction.
type SupervisorNotified struct{}

func (SupervisorNotified) Kind() string { return EventManualEscalate }

// Filled records the terminal fill of the broadcast.
type Filled struct {
	FilledBy string
}

func (Filled) Kind() string { return EventFilled }

// Expired records the terminal expiry of the broadcast.
type Expired struct {
	Deadline time.Time
}

func (Expired) Kind() string { return EventExpired }

// Cancelled records the terminal out-of-band cancellation.
type Cancelled struct {
	CancelledBy string
}

func (Cancelled) Kind() string { return EventCancelled }

// Event is one entry of the audit history. RuleID carries the stable
// identifier of the rule that produced the event and is empty for lifecycle
// events (initial broadcast, fill, expiry, cancellation, manual actions).
// Rule idempotency is derived from RuleID, not from the resulting
// tier/urgency values.
type Event struct {
	ID     string
	RuleID string
	At     time.Time
	Reason string
	Detail Detail
}

// Kind returns the event kind of the detail variant.
func (e Event) Kind() string {
	return e.Detail.Kind()
}
