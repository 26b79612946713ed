package notify

import "context"

// Notifier dispatches one alert message through a delivery channel.
// Each implementation owns its recipient list.
//
// Error contract: transport-class failures (network, 429, 5xx) come back
// as a retryable transport error; provider rejections (bad credentials,
// invalid recipient) as a non-retryable notify error. The Gate retries
// the former and gives up on the latter.
type Notifier interface {
	// Name identifies the channel in logs
	Name() string

	// Send dispatches the message to the channel's configured recipients
	Send(ctx context.Context, message string) error
}
