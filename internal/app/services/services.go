// Package services holds the business operations of the library. Services
// depend on small store interfaces satisfied by the repositories package, run
// their writes inside a db.TxManager unit of work and attempt notifications
// only after the unit of work committed.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/yigit/librarium/internal/pkg/apperrors"
	"github.com/yigit/librarium/internal/pkg/auth"
	"github.com/yigit/librarium/internal/pkg/email"
)

// Notifier sends best-effort notifications. Send never fails; the outcome is
// reported in the returned Result.
type Notifier interface {
	Send(ctx context.Context, kind email.Kind, to email.Recipient, fields email.Fields) email.Result
}

// Clock returns the current time
type Clock func() time.Time

// UTCClock is the production clock
func UTCClock() time.Time {
	return time.Now().UTC()
}

// classify returns err unchanged when it already belongs to the error
// taxonomy and wraps it as a persistence failure otherwise.
func classify(message string, err error) error {
	if err == nil {
		return nil
	}
	var ce *apperrors.CustomError
	if errors.As(err, &ce) {
		return err
	}
	return apperrors.NewPersistenceError(message, err)
}

// requireActor rejects anonymous callers
func requireActor(actor auth.Identity) error {
	if actor.ID <= 0 {
		return apperrors.ErrUnauthenticated
	}
	return nil
}
