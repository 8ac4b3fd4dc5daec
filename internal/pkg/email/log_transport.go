package email

import (
	"context"

	"github.com/rs/zerolog"
)

// LogTransport writes messages to the log instead of sending them.
// Used in development when no SMTP server is configured.
type LogTransport struct {
	logger zerolog.Logger
}

// NewLogTransport creates a LogTransport
func NewLogTransport(logger zerolog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

// Deliver implements Transport
func (t *LogTransport) Deliver(_ context.Context, msg Message) error {
	t.logger.Warn().
		Str("from", msg.From).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("bodyBytes", len(msg.HTMLBody)).
		Msg("SMTP not configured - email logged instead of sent")
	return nil
}
