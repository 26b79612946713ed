package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchErrorFormatting(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewTransport("fetcher", "availability request failed", cause)

	assert.Contains(t, err.Error(), "transport")
	assert.Contains(t, err.Error(), "fetcher")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, cause, stderrors.Unwrap(err))

	// without an underlying cause the message stands alone
	bare := NewAuthExpired("fetcher", "availability endpoint returned 401")
	assert.NotContains(t, bare.Error(), "<nil>")
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, IsAuth(NewAuth("session", "login attempts exhausted", nil)))
	assert.True(t, IsAuthExpired(NewAuthExpired("fetcher", "401")))
	assert.True(t, IsTransport(NewTransport("fetcher", "503", nil)))
	assert.True(t, IsParse(NewParse("fetcher", "missing data key", nil)))
	assert.True(t, IsNotify(NewNotify("gate", "sms dispatch failed", nil)))

	assert.False(t, IsAuth(NewNotify("gate", "sms dispatch failed", nil)))
	assert.False(t, IsAuth(stderrors.New("plain error")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("cycle aborted: %w", NewAuthExpired("fetcher", "403"))

	assert.True(t, IsAuthExpired(err))
	assert.Equal(t, KindAuthExpired, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(stderrors.New("foreign")))
}

func TestRetryable(t *testing.T) {
	assert.True(t, NewTransport("fetcher", "timeout", nil).Retryable())
	assert.True(t, NewNotify("gate", "provider 500", nil).Retryable())
	assert.False(t, NewAuth("session", "bad credentials", nil).Retryable())
	assert.False(t, NewParse("fetcher", "bad payload", nil).Retryable())
	assert.False(t, NewAuthExpired("fetcher", "401").Retryable())
}
