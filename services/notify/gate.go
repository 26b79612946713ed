package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ikonwatch/logger"
	"ikonwatch/pkg/errors"
	"ikonwatch/services/availability"
	"ikonwatch/services/store"

	"github.com/cenkalti/backoff/v4"
)

// Gate decides whether an alert goes out and suppresses repeat alerts for
// dates already announced. It owns the notified-date set: dates enter it
// only after every channel confirmed dispatch, so a failed send is retried
// on the next cycle rather than silently dropped.
type Gate struct {
	notifiers   []Notifier
	store       store.Store
	desired     availability.DateSet
	notified    availability.DateSet
	maxRetries  int
	backoffBase time.Duration
	log         *logger.Logger
}

// NewGate creates a notification gate over the given channels. A negative
// maxRetries means no retries; it must never reach the uint64 conversion
// in NotifyIfNeeded, where it would wrap to an unbounded budget.
func NewGate(notifiers []Notifier, st store.Store, desired availability.DateSet, maxRetries int, backoffBase time.Duration) *Gate {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Gate{
		notifiers:   notifiers,
		store:       st,
		desired:     desired.Clone(),
		notified:    availability.DateSet{},
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		log:         logger.ForComponent("gate"),
	}
}

// Restore loads the persisted notified set. Dates no longer desired are
// dropped on load, which keeps the notified set a subset of the desired
// set even when the desired dates changed between runs.
func (g *Gate) Restore(ctx context.Context) error {
	dates, err := g.store.LoadNotified(ctx)
	if err != nil {
		return errors.NewState("gate", "could not load notified dates", err)
	}
	for _, d := range dates {
		if g.desired.Has(d) {
			g.notified.Add(d)
		}
	}
	if g.notified.Len() > 0 {
		g.log.Info().Strs("dates", g.notified.Sorted()).Msg("Restored notified dates")
	}
	return nil
}

// Notified returns a copy of the dates already announced
func (g *Gate) Notified() availability.DateSet {
	return g.notified.Clone()
}

// NotifyIfNeeded dispatches one batched alert for the candidate dates.
// Empty candidates are a no-op. Transient channel failures are retried with
// bounded backoff; a channel that succeeded once is not sent to again within
// the same dispatch. Only full success across all channels marks the dates
// notified; anything less leaves them pending for the next cycle.
func (g *Gate) NotifyIfNeeded(ctx context.Context, candidates availability.DateSet) (bool, error) {
	if candidates.Len() == 0 {
		return false, nil
	}

	message := composeMessage(candidates.Sorted())

	pending := make([]Notifier, len(g.notifiers))
	copy(pending, g.notifiers)

	operation := func() error {
		var failed []Notifier
		var firstErr error
		permanentOnly := true

		for _, n := range pending {
			err := n.Send(ctx, message)
			if err == nil {
				continue
			}
			g.log.Warn().Err(err).Str("channel", n.Name()).Msg("Dispatch failed")
			failed = append(failed, n)
			if firstErr == nil {
				firstErr = err
			}
			if errors.KindOf(err) != errors.KindNotify {
				permanentOnly = false
			}
		}

		pending = failed
		if len(failed) == 0 {
			return nil
		}
		if permanentOnly {
			return backoff.Permanent(firstErr)
		}
		return firstErr
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.backoffBase
	bo.MaxElapsedTime = 0

	err := backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(g.maxRetries)), ctx),
		func(err error, wait time.Duration) {
			g.log.Warn().Err(err).Dur("retry_in", wait).Msg("Retrying notification dispatch")
		},
	)
	if err != nil {
		return false, errors.NewNotify("gate", "notification dispatch failed", err)
	}

	for d := range candidates {
		g.notified.Add(d)
	}
	g.log.Info().Strs("dates", candidates.Sorted()).Msg("Notification sent")

	// the in-memory set is authoritative; a failed store write only costs
	// durability across a restart
	if err := g.store.SaveNotified(ctx, g.notified.Sorted()); err != nil {
		g.log.Warn().Err(err).Msg("Could not persist notified dates")
	}
	return true, nil
}

// composeMessage renders one alert covering all newly open dates. A single
// batched message avoids an alert storm when several dates open at once.
func composeMessage(dates []string) string {
	lines := []string{"Found availability for these dates:"}
	for _, d := range dates {
		lines = append(lines, fmt.Sprintf("  - %s", d))
	}
	return strings.Join(lines, "\n")
}
