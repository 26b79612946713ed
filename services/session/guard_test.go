package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ikonwatch/pkg/errors"
	"ikonwatch/services/availability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession is a minimal availability.Session for guard tests
type fakeSession struct{ id int }

var _ availability.Session = (*fakeSession)(nil)

func (f *fakeSession) FetchRaw(ctx context.Context, endpoint string) ([]byte, int, error) {
	return []byte(`{"data":[]}`), 200, nil
}

// mockLogin fails the first failures calls, then succeeds with fresh sessions
type mockLogin struct {
	calls    int
	failures int
}

var _ LoginClient = (*mockLogin)(nil)

func (m *mockLogin) Login(ctx context.Context) (availability.Session, error) {
	m.calls++
	if m.calls <= m.failures {
		return nil, fmt.Errorf("captcha wall")
	}
	return &fakeSession{id: m.calls}, nil
}

func testPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAge:      time.Hour,
		MaxAttempts: maxAttempts,
		BackoffBase: time.Millisecond,
		BackoffMax:  5 * time.Millisecond,
	}
}

func TestEnsureValidReusesFreshSession(t *testing.T) {
	login := &mockLogin{}
	guard := NewGuard(login, testPolicy(3))

	first, err := guard.EnsureValid(context.Background())
	require.NoError(t, err)
	second, err := guard.EnsureValid(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, login.calls)
}

func TestEnsureValidRetriesThenSucceeds(t *testing.T) {
	login := &mockLogin{failures: 2}
	guard := NewGuard(login, testPolicy(5))

	sess, err := guard.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sess)
	assert.Equal(t, 3, login.calls)
}

func TestEnsureValidExhaustsBudget(t *testing.T) {
	login := &mockLogin{failures: 100}
	guard := NewGuard(login, testPolicy(4))

	_, err := guard.EnsureValid(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsAuth(err))
	// exactly the configured attempt count, never more
	assert.Equal(t, 4, login.calls)
	assert.ErrorContains(t, err, "captcha wall")
}

func TestInvalidateForcesRelogin(t *testing.T) {
	login := &mockLogin{}
	guard := NewGuard(login, testPolicy(3))

	first, err := guard.EnsureValid(context.Background())
	require.NoError(t, err)

	guard.Invalidate()

	second, err := guard.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, login.calls)
}

func TestMaxAgeForcesRelogin(t *testing.T) {
	login := &mockLogin{}
	policy := testPolicy(3)
	policy.MaxAge = time.Millisecond
	guard := NewGuard(login, policy)

	_, err := guard.EnsureValid(context.Background())
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = guard.EnsureValid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, login.calls)
}

func TestAcquireStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	login := &mockLogin{failures: 100}
	guard := NewGuard(login, testPolicy(1000))

	_, err := guard.EnsureValid(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.IsAuth(err), "cancellation is not an auth failure")
}
