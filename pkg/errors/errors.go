package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Kind classifies a watcher error
type Kind string

const (
	// KindAuth represents session acquisition failures (fatal once the retry budget is spent)
	KindAuth Kind = "auth"
	// KindAuthExpired represents an authenticated call rejected with 401/403
	KindAuthExpired Kind = "auth_expired"
	// KindTransport represents network and 5xx-class fetch failures
	KindTransport Kind = "transport"
	// KindParse represents availability payloads that do not match the expected schema
	KindParse Kind = "parse"
	// KindNotify represents notification-provider failures
	KindNotify Kind = "notify"
	// KindState represents state-store failures
	KindState Kind = "state"
	// KindConfig represents configuration errors
	KindConfig Kind = "config"
)

// WatchError is the error type carried across component boundaries
type WatchError struct {
	Kind      Kind
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *WatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Kind, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *WatchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the failed operation can help
func (e *WatchError) Retryable() bool {
	switch e.Kind {
	case KindTransport, KindNotify:
		return true
	default:
		return false
	}
}

// New creates a new WatchError
func New(kind Kind, component, message string, err error) *WatchError {
	return &WatchError{
		Kind:      kind,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewAuth creates a new fatal authentication error
func NewAuth(component, message string, err error) *WatchError {
	return New(KindAuth, component, message, err)
}

// NewAuthExpired creates a new expired-session error
func NewAuthExpired(component, message string) *WatchError {
	return New(KindAuthExpired, component, message, nil)
}

// NewTransport creates a new transport error
func NewTransport(component, message string, err error) *WatchError {
	return New(KindTransport, component, message, err)
}

// NewParse creates a new payload-parse error
func NewParse(component, message string, err error) *WatchError {
	return New(KindParse, component, message, err)
}

// NewNotify creates a new notification error
func NewNotify(component, message string, err error) *WatchError {
	return New(KindNotify, component, message, err)
}

// NewState creates a new state-store error
func NewState(component, message string, err error) *WatchError {
	return New(KindState, component, message, err)
}

// NewConfig creates a new configuration error
func NewConfig(message string, err error) *WatchError {
	return New(KindConfig, "", message, err)
}

// Is reports whether err carries the given kind in its chain
func Is(err error, kind Kind) bool {
	var we *WatchError
	if stderrors.As(err, &we) {
		return we.Kind == kind
	}
	return false
}

// KindOf returns the kind carried by err, or an empty kind for foreign errors
func KindOf(err error) Kind {
	var we *WatchError
	if stderrors.As(err, &we) {
		return we.Kind
	}
	return ""
}

// IsAuth reports whether err is a fatal authentication error
func IsAuth(err error) bool { return Is(err, KindAuth) }

// IsAuthExpired reports whether err is an expired-session error
func IsAuthExpired(err error) bool { return Is(err, KindAuthExpired) }

// IsTransport reports whether err is a transport error
func IsTransport(err error) bool { return Is(err, KindTransport) }

// IsParse reports whether err is a payload-parse error
func IsParse(err error) bool { return Is(err, KindParse) }

// IsNotify reports whether err is a notification error
func IsNotify(err error) bool { return Is(err, KindNotify) }
