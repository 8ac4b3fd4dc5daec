package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/db"
	"github.com/yigit/librarium/internal/pkg/apperrors"
	"github.com/yigit/librarium/internal/pkg/auth"
	"github.com/yigit/librarium/internal/pkg/email"
	"github.com/yigit/librarium/internal/pkg/helpers"
)

// UserBookStore persists self-service borrow records
type UserBookStore interface {
	Create(ctx context.Context, record *models.UserBook) error
	GetByID(ctx context.Context, id int64) (*models.UserBook, error)
	MarkReturned(ctx context.Context, id int64, returnDate time.Time) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.UserBook, error)
}

// CreateBorrowRecordInput is the caller supplied part of a borrow record
type CreateBorrowRecordInput struct {
	Title   string
	Author  string
	DueDate string // YYYY-MM-DD
	Notes   *string
}

// BorrowOutcome is a committed borrow record plus the notification attempt
type BorrowOutcome struct {
	Record       *models.UserBook
	Notification email.Result
}

// Message is the user facing summary of the outcome
func (o *BorrowOutcome) Message() string {
	if o.Notification.Delivered {
		return "Book added to your borrowed list. A notification email has been sent."
	}
	return "Book added to your borrowed list."
}

// Warning is set when the record was saved but the notification was not delivered
func (o *BorrowOutcome) Warning() string {
	if o.Notification.Delivered {
		return ""
	}
	return "The notification email could not be sent."
}

// UserBookService manages the lifecycle of self-service borrow records
type UserBookService struct {
	tx       db.TxManager
	records  UserBookStore
	notifier Notifier
	now      Clock
	logger   zerolog.Logger
}

// NewUserBookService creates a new UserBookService
func NewUserBookService(tx db.TxManager, records UserBookStore, notifier Notifier, now Clock, logger zerolog.Logger) *UserBookService {
	if now == nil {
		now = UTCClock
	}
	return &UserBookService{
		tx:       tx,
		records:  records,
		notifier: notifier,
		now:      now,
		logger:   logger.With().Str("component", "user_book_service").Logger(),
	}
}

func (s *UserBookService) today() time.Time {
	return helpers.DateOf(s.now())
}

// Create validates input, commits a new open record owned by actor and then
// sends the borrowed book notification. Nothing is persisted or sent when the
// input is invalid or the commit fails; a failed notification only shows in
// the outcome.
func (s *UserBookService) Create(ctx context.Context, actor auth.Identity, in CreateBorrowRecordInput) (*BorrowOutcome, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	author := strings.TrimSpace(in.Author)
	if title == "" || author == "" {
		return nil, apperrors.NewValidationError("title and author are required")
	}

	dueDate, err := helpers.ParseDate(strings.TrimSpace(in.DueDate))
	if err != nil {
		return nil, apperrors.ErrInvalidDate
	}

	record := &models.UserBook{
		UserID:     actor.ID,
		BookTitle:  title,
		Author:     author,
		BorrowDate: s.today(),
		DueDate:    dueDate,
		Notes:      in.Notes,
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.records.Create(ctx, record)
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("userId", actor.ID).Msg("Error adding borrowed book")
		return nil, classify("failed to save borrow record", err)
	}

	s.logger.Info().Int64("userId", actor.ID).Int64("recordId", record.ID).Msg("Borrow record created")

	result := s.notifier.Send(ctx, email.KindBorrowedBook,
		email.Recipient{Username: actor.Username, Email: actor.Email},
		email.Fields{
			BookTitle:  record.BookTitle,
			Author:     record.Author,
			BorrowDate: helpers.FormatDate(record.BorrowDate),
			DueDate:    helpers.FormatDate(record.DueDate),
		})

	return &BorrowOutcome{Record: record, Notification: result}, nil
}

// MarkReturned closes the record on today's date. A record owned by someone
// else is rejected with a permission error, a missing one with not found.
// Returning an already returned record changes nothing.
func (s *UserBookService) MarkReturned(ctx context.Context, actor auth.Identity, recordID int64) (*models.UserBook, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var record *models.UserBook
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		record, err = s.records.GetByID(ctx, recordID)
		if err != nil {
			return err
		}
		if record.UserID != actor.ID {
			return apperrors.NewForbiddenError("you can only return your own books")
		}
		if record.IsReturned {
			return nil
		}

		returnDate := s.today()
		changed, err := s.records.MarkReturned(ctx, record.ID, returnDate)
		if err != nil {
			return err
		}
		if !changed {
			// returned concurrently; report the stored state
			record, err = s.records.GetByID(ctx, record.ID)
			return err
		}
		record.MarkReturned(returnDate)
		return nil
	})
	if err != nil {
		return nil, classify("failed to mark book as returned", err)
	}
	return record, nil
}

// List returns actor's records, latest borrow date first
func (s *UserBookService) List(ctx context.Context, actor auth.Identity) ([]*models.UserBook, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	records, err := s.records.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, classify("failed to list borrow records", err)
	}
	return records, nil
}
