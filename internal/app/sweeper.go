package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/shiftcover/internal/clock"
	"github.com/example/shiftcover/internal/core/escalation"
	"github.com/example/shiftcover/internal/metrics"
	"github.com/example/shiftcover/internal/ports/primary"
	"github.com/example/shiftcover/internal/ports/secondary"
)

// Sweeper drives periodic escalation evaluation: fetch pending broadcasts,
// select the next applicable rule per record, apply it, and commit the
// result under optimistic concurrency. Multiple sweeper instances may run
// against the same store; the version check in CommitTransition decides the
// winner and the loser re-evaluates against the fresh record, where
// rule-ID idempotency turns the retry into a no-op.
type Sweeper struct {
	repo     secondary.BroadcastRepository
	rules    secondary.RuleProvider
	notifier secondary.Notifier
	clk      clock.Clock
	log      *zap.Logger

	// expireOverdue enables the deadline check: pending broadcasts past
	// their response deadline transition to expired. This is a sweep
	// check, not an escalation rule.
	expireOverdue bool
}

// NewSweeper creates a Sweeper with injected dependencies.
func NewSweeper(repo secondary.BroadcastRepository, rules secondary.RuleProvider, notifier secondary.Notifier, clk clock.Clock, log *zap.Logger, expireOverdue bool) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{
		repo:          repo,
		rules:         rules,
		notifier:      notifier,
		clk:           clk,
		log:           log,
		expireOverdue: expireOverdue,
	}
}

// Sweep runs one evaluation pass over all pending broadcasts.
func (s *Sweeper) Sweep(ctx context.Context) (*primary.SweepResult, error) {
	start := time.Now()
	defer func() {
		metrics.SweepDurationSeconds.Observe(time.Since(start).Seconds())
		metrics.SweepsTotal.Inc()
	}()

	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending broadcasts: %w", err)
	}
	metrics.PendingBroadcasts.Set(float64(len(pending)))

	result := &primary.SweepResult{AppliedRules: make(map[string]string)}
	for _, stored := range pending {
		result.Evaluated++
		metrics.RecordsEvaluatedTotal.Inc()
		if err := s.sweepRecord(ctx, stored, result); err != nil {
			// One record must not stall the whole pass.
			s.log.Warn("sweep failed for broadcast",
				zap.String("broadcast", stored.ID),
				zap.Error(err))
		}
	}
	return result, nil
}

// sweepRecord evaluates one broadcast, retrying once after a lost
// compare-and-swap race.
func (s *Sweeper) sweepRecord(ctx context.Context, stored *secondary.BroadcastRecord, result *primary.SweepResult) error {
	err := s.evaluateOnce(ctx, stored, result)
	if !errors.Is(err, secondary.ErrVersionConflict) {
		return err
	}

	metrics.VersionConflictsTotal.Inc()
	result.Conflicts++
	s.log.Debug("version conflict, re-evaluating against fresh record",
		zap.String("broadcast", stored.ID))

	fresh, err := s.repo.GetByID(ctx, stored.ID)
	if err != nil {
		return fmt.Errorf("failed to refetch after conflict: %w", err)
	}
	return s.evaluateOnce(ctx, fresh, result)
}

func (s *Sweeper) evaluateOnce(ctx context.Context, stored *secondary.BroadcastRecord, result *primary.SweepResult) error {
	rec := recordFromStore(stored)
	if !rec.Evaluable() {
		// Status changed between fetch and evaluation; nothing to do.
		return nil
	}
	now := s.clk.Now()

	if s.expireOverdue && !rec.ResponseDeadline.After(now) {
		return s.expire(ctx, rec, now, result)
	}

	rules, err := s.rules.RulesFor(rec.LocationID)
	if err != nil {
		return fmt.Errorf("failed to load rules for location %s: %w", rec.LocationID, err)
	}

	rule, ok := escalation.SelectNextRule(rec, rules, now)
	if !ok {
		return nil
	}

	next, ev := escalation.Apply(rec, rule, now)
	storedNext := recordToStore(next)
	if err := s.repo.CommitTransition(ctx, storedNext, eventToStore(next.ID, ev), rec.Version); err != nil {
		return err
	}

	metrics.RulesAppliedTotal.WithLabelValues(rule.Action).Inc()
	result.Applied++
	result.AppliedRules[next.ID] = rule.ID
	s.log.Info("escalation rule applied",
		zap.String("broadcast", next.ID),
		zap.String("rule", rule.ID),
		zap.String("action", rule.Action),
		zap.Int("tier", next.CurrentTier),
		zap.String("urgency", next.Urgency))

	s.dispatch(ctx, storedNext, eventToStore(next.ID, ev))
	return nil
}

// expire transitions an overdue pending broadcast to its terminal expired
// status.
func (s *Sweeper) expire(ctx context.Context, rec escalation.Record, now time.Time, result *primary.SweepResult) error {
	ev := escalation.NewLifecycleEvent(now,
		escalation.Expired{Deadline: rec.ResponseDeadline},
		"response deadline passed without coverage")
	next := rec.WithEvent(ev)
	next.Status = escalation.StatusExpired

	storedNext := recordToStore(next)
	if err := s.repo.CommitTransition(ctx, storedNext, eventToStore(next.ID, ev), rec.Version); err != nil {
		return err
	}

	metrics.RecordsExpiredTotal.Inc()
	result.Expired++
	s.log.Info("broadcast expired",
		zap.String("broadcast", next.ID),
		zap.Time("deadline", rec.ResponseDeadline))

	s.dispatch(ctx, storedNext, eventToStore(next.ID, ev))
	return nil
}

// dispatch hands a committed event to the notification boundary. Dispatch
// failures are logged, never propagated: the state transition is already
// durable.
func (s *Sweeper) dispatch(ctx context.Context, rec *secondary.BroadcastRecord, ev secondary.EventRecord) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, rec, ev); err != nil {
		s.log.Warn("notification dispatch failed",
			zap.String("broadcast", rec.ID),
			zap.String("event", ev.Kind),
			zap.Error(err))
	}
}

// Run executes Sweep on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("sweeper started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			result, err := s.Sweep(ctx)
			if err != nil {
				s.log.Error("sweep pass failed", zap.Error(err))
				continue
			}
			if result.Applied > 0 || result.Expired > 0 || result.Conflicts > 0 {
				s.log.Info("sweep pass complete",
					zap.Int("evaluated", result.Evaluated),
					zap.Int("applied", result.Applied),
					zap.Int("expired", result.Expired),
					zap.Int("conflicts", result.Conflicts))
			}
		}
	}
}

// Ensure Sweeper implements the interface
var _ primary.SweepService = (*Sweeper)(nil)
