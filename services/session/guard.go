package session

import (
	"context"
	"time"

	"ikonwatch/logger"
	"ikonwatch/pkg/errors"
	"ikonwatch/services/availability"

	"github.com/cenkalti/backoff/v4"
)

// LoginClient produces a fresh authenticated session
type LoginClient interface {
	Login(ctx context.Context) (availability.Session, error)
}

// LoginFunc adapts a plain function to the LoginClient interface
type LoginFunc func(ctx context.Context) (availability.Session, error)

// Login calls f
func (f LoginFunc) Login(ctx context.Context) (availability.Session, error) {
	return f(ctx)
}

// Policy bounds session lifetime and the login retry budget
type Policy struct {
	// MaxAge is how long a session is trusted before a proactive re-login
	MaxAge time.Duration
	// MaxAttempts caps login attempts per acquisition; exhausting it is fatal
	MaxAttempts int
	// BackoffBase and BackoffMax bound the wait between login attempts
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Guard owns the authenticated-session lifecycle: it decides when the held
// session is still valid and re-acquires one when it is not. All state is
// mutated only by the poll loop's single thread.
type Guard struct {
	client LoginClient
	policy Policy
	log    *logger.Logger

	sess            availability.Session
	acquiredAt      time.Time
	lastValidatedAt time.Time
	invalidated     bool
}

// NewGuard creates a session guard around the given login client
func NewGuard(client LoginClient, policy Policy) *Guard {
	return &Guard{
		client: client,
		policy: policy,
		log:    logger.ForComponent("session"),
	}
}

// EnsureValid returns a usable session, reusing the held one while it is
// fresh and acquiring a new one otherwise. Exhausting the login retry
// budget returns a fatal auth error; nothing can proceed without a session.
func (g *Guard) EnsureValid(ctx context.Context) (availability.Session, error) {
	if g.sess != nil && !g.invalidated && time.Since(g.acquiredAt) < g.policy.MaxAge {
		g.lastValidatedAt = time.Now()
		return g.sess, nil
	}

	sess, err := g.acquire(ctx)
	if err != nil {
		return nil, err
	}

	// replace wholesale, never patch the old session
	g.sess = sess
	g.acquiredAt = time.Now()
	g.lastValidatedAt = g.acquiredAt
	g.invalidated = false
	return g.sess, nil
}

// Invalidate drops the held session so the next EnsureValid performs a
// fresh login. Called when a fetch reports the session expired.
func (g *Guard) Invalidate() {
	if g.sess != nil {
		g.log.Info().Msg("Session invalidated, will re-login next cycle")
	}
	g.invalidated = true
}

func (g *Guard) acquire(ctx context.Context) (availability.Session, error) {
	var sess availability.Session
	attempts := 0

	operation := func() error {
		attempts++
		s, err := g.client.Login(ctx)
		if err != nil {
			return err
		}
		sess = s
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.policy.BackoffBase
	bo.MaxInterval = g.policy.BackoffMax
	bo.MaxElapsedTime = 0

	err := backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(g.policy.MaxAttempts-1)), ctx),
		func(err error, wait time.Duration) {
			g.log.Warn().Err(err).Dur("retry_in", wait).Msg("Login failed, retrying")
		},
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewAuth("session", "login attempts exhausted", err)
	}

	g.log.Info().Int("attempts", attempts).Msg("Session acquired")
	return sess, nil
}
