// Package notify delivers fired alerts. Delivery failure is never fatal to
// a check cycle; callers log the DeliveryError and move on.
package notify

import (
	"context"
	"fmt"
)

// Notifier sends one alert message to the given recipients. What a
// recipient is depends on the transport: an address for email, a chat id
// for Telegram.
type Notifier interface {
	Send(ctx context.Context, subject, message string, recipients []string) error
}

// DeliveryError wraps a transport failure.
type DeliveryError struct {
	Transport string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("notify: %s delivery failed: %v", e.Transport, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
