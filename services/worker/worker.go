package worker

import (
	"context"
	"time"

	"ikonwatch/logger"
	"ikonwatch/pkg/errors"
	"ikonwatch/services/availability"

	"github.com/google/uuid"
)

// SessionSource provides a valid session for each cycle and accepts an
// invalidation signal when a fetch reports the session expired
type SessionSource interface {
	EnsureValid(ctx context.Context) (availability.Session, error)
	Invalidate()
}

// Fetcher retrieves one normalized availability snapshot
type Fetcher interface {
	Fetch(ctx context.Context, sess availability.Session) ([]availability.Record, error)
}

// NotificationGate dispatches deduplicated alerts and exposes the set of
// dates already announced
type NotificationGate interface {
	NotifyIfNeeded(ctx context.Context, candidates availability.DateSet) (sent bool, err error)
	Notified() availability.DateSet
}

// CycleOutcome summarizes one poll cycle for logging. It is emitted once
// per cycle and never retained.
type CycleOutcome struct {
	CycleID          string
	StartedAt        time.Time
	FetchSucceeded   bool
	NewlyAvailable   []string
	NotificationSent bool
	ErrKind          errors.Kind
}

// Worker drives the poll loop: ensure session, fetch, evaluate, notify,
// sleep, repeat. One cycle runs to completion before the next begins; all
// cross-cycle state lives in the session source and the gate, so cycle N
// always observes the state cycle N-1 left behind.
type Worker struct {
	sessions SessionSource
	fetcher  Fetcher
	gate     NotificationGate
	desired  availability.DateSet
	interval time.Duration
	log      *logger.Logger
}

// NewWorker creates a new poll-loop worker
func NewWorker(sessions SessionSource, fetcher Fetcher, gate NotificationGate, desired availability.DateSet, interval time.Duration) *Worker {
	return &Worker{
		sessions: sessions,
		fetcher:  fetcher,
		gate:     gate,
		desired:  desired.Clone(),
		interval: interval,
		log:      logger.ForComponent("worker"),
	}
}

// Run executes cycles until the context is canceled or the session retry
// budget is exhausted. The first cycle runs immediately; after that the
// ticker paces the loop and ctx interrupts the sleep without waiting for
// the interval to elapse. Returns ctx.Err() on cancellation and the fatal
// auth error on login exhaustion; nothing else terminates the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().
		Dur("poll_interval", w.interval).
		Strs("desired_dates", w.desired.Sorted()).
		Msg("Starting watch loop")

	t := time.NewTicker(w.interval)
	defer t.Stop()

	if err := w.cycle(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := w.cycle(ctx); err != nil {
				return err
			}
		}
	}
}

// cycle runs one pass of the pipeline. A stage failure short-circuits the
// rest of the cycle but only a fatal auth error or cancellation propagates;
// everything else is logged and the loop moves on to the next cycle.
func (w *Worker) cycle(ctx context.Context) error {
	outcome := CycleOutcome{
		CycleID:   uuid.NewString(),
		StartedAt: time.Now(),
	}
	defer func() { w.logOutcome(&outcome) }()

	sess, err := w.sessions.EnsureValid(ctx)
	if err != nil {
		outcome.ErrKind = errors.KindOf(err)
		if errors.IsAuth(err) {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		return nil
	}
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}

	records, err := w.fetcher.Fetch(ctx, sess)
	if err != nil {
		outcome.ErrKind = errors.KindOf(err)
		if errors.IsAuthExpired(err) {
			// no same-cycle retry; the next cycle starts from a fresh login
			w.sessions.Invalidate()
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		return nil
	}
	outcome.FetchSucceeded = true
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}

	candidates := availability.Evaluate(records, w.desired, w.gate.Notified())
	outcome.NewlyAvailable = candidates.Sorted()

	sent, err := w.gate.NotifyIfNeeded(ctx, candidates)
	outcome.NotificationSent = sent
	if err != nil {
		outcome.ErrKind = errors.KindOf(err)
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
	}
	return nil
}

func (w *Worker) logOutcome(o *CycleOutcome) {
	event := w.log.Info()
	if o.ErrKind != "" {
		event = w.log.Warn().Str("error_kind", string(o.ErrKind))
	}
	event.
		Str("cycle_id", o.CycleID).
		Dur("elapsed", time.Since(o.StartedAt)).
		Bool("fetch_succeeded", o.FetchSucceeded).
		Strs("newly_available", o.NewlyAvailable).
		Bool("notification_sent", o.NotificationSent).
		Msg("Cycle finished")
}
