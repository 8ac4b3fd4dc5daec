package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/librarium/internal/pkg/apperrors"
)

// DefaultTimeout bounds a single dispatch when no timeout is configured
const DefaultTimeout = 10 * time.Second

// Message is a rendered email ready for a transport
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
}

// Transport delivers a rendered message. Implementations should honor the
// context deadline.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
}

// Recipient is the addressee of a notification
type Recipient struct {
	Username string
	Email    string
}

// Result is the outcome of a best-effort dispatch
type Result struct {
	Kind      Kind
	Delivered bool
	// Err is set when Delivered is false and always wraps apperrors.ErrNotificationFailed
	Err error
}

// Diagnostic returns a human readable failure reason, empty on success
func (r Result) Diagnostic() string {
	if r.Delivered || r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// NotifierConfig configures a Notifier
type NotifierConfig struct {
	// From is the default sender, e.g. "Library <noreply@example.com>"
	From    string
	Timeout time.Duration
}

// Notifier renders notification templates and dispatches them through a
// transport. Send never returns an error; failures are reported in the Result.
type Notifier struct {
	transport Transport
	from      string
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewNotifier creates a Notifier bound to transport
func NewNotifier(transport Transport, cfg NotifierConfig, logger zerolog.Logger) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Notifier{
		transport: transport,
		from:      cfg.From,
		timeout:   timeout,
		logger:    logger.With().Str("component", "notifier").Logger(),
	}
}

// Send renders kind for recipient and hands it to the transport
func (n *Notifier) Send(ctx context.Context, kind Kind, to Recipient, fields Fields) Result {
	if fields.Username == "" {
		fields.Username = to.Username
	}
	if fields.Email == "" {
		fields.Email = to.Email
	}

	if to.Email == "" {
		return n.fail(kind, to, errors.New("recipient has no email address"))
	}

	subject, body, err := Render(kind, fields)
	if err != nil {
		return n.fail(kind, to, err)
	}

	msg := Message{From: n.from, To: to.Email, Subject: subject, HTMLBody: body}
	if err := n.deliver(ctx, msg); err != nil {
		return n.fail(kind, to, err)
	}

	n.logger.Info().Str("kind", string(kind)).Str("to", to.Email).Msg("Notification sent")
	return Result{Kind: kind, Delivered: true}
}

// deliver runs the transport under the configured timeout. The wait is
// bounded even when a transport ignores its context.
func (n *Notifier) deliver(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("transport panic: %v", r)
			}
		}()
		done <- n.transport.Deliver(ctx, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("transport did not finish: %w", ctx.Err())
	}
}

func (n *Notifier) fail(kind Kind, to Recipient, cause error) Result {
	err := fmt.Errorf("%w: %s to %s: %v", apperrors.ErrNotificationFailed, kind, to.Email, cause)
	n.logger.Error().Err(cause).Str("kind", string(kind)).Str("to", to.Email).Msg("Error sending notification")
	return Result{Kind: kind, Delivered: false, Err: err}
}
