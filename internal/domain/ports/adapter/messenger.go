package adapter

import "context"

// MessengerAdapter is the port for delivering replies to the messaging
// platform. Delivery is fire-and-forget from the core's perspective:
// failures are logged by the caller, never retried.
type MessengerAdapter interface {
	SendText(ctx context.Context, chatID int64, text string) error
}
