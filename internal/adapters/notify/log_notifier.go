// Package notify contains notification dispatcher implementations.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/shiftcover/internal/ports/secondary"
)

// LogNotifier is a dispatcher that writes every handed-over event to a
// structured log. It stands in for real partner and supervisor channels;
// swapping it out does not touch the sweep path.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a notifier backed by the given logger.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify logs a committed escalation event.
func (n *LogNotifier) Notify(ctx context.Context, rec *secondary.BroadcastRecord, ev secondary.EventRecord) error {
	fields := []zap.Field{
		zap.String("broadcast_id", rec.ID),
		zap.String("shift_id", rec.ShiftID),
		zap.String("location_id", rec.LocationID),
		zap.String("kind", ev.Kind),
		zap.String("urgency", rec.Urgency),
		zap.Int("tier", rec.CurrentTier),
		zap.String("reason", ev.Reason),
	}
	if ev.RuleID != "" {
		fields = append(fields, zap.String("rule_id", ev.RuleID))
	}
	n.log.Info("notification dispatched", fields...)
	return nil
}

var _ secondary.Notifier = (*LogNotifier)(nil)
