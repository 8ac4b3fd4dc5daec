package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/app/repositories"
	"github.com/yigit/librarium/internal/db"
	"github.com/yigit/librarium/internal/pkg/apperrors"
	"github.com/yigit/librarium/internal/pkg/auth"
	"github.com/yigit/librarium/internal/pkg/helpers"
)

// BookStore persists the catalog
type BookStore interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id int64, forUpdate bool) (*models.Book, error)
	List(ctx context.Context, offset, limit uint64) ([]*models.Book, error)
	Count(ctx context.Context) (int64, error)
	ListAvailable(ctx context.Context) ([]*models.Book, error)
	SetAvailability(ctx context.Context, id int64, available bool) error
}

// LoanStore persists catalog loans
type LoanStore interface {
	Create(ctx context.Context, loan *models.BorrowedBook) error
	GetByID(ctx context.Context, id int64) (*models.BorrowedBook, error)
	MarkReturned(ctx context.Context, id int64, returnDate time.Time) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*repositories.LoanDetails, error)
}

// ReviewStore persists book reviews
type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	ListByBook(ctx context.Context, bookID int64) ([]*repositories.ReviewDetails, error)
}

// BookPage is one page of the catalog
type BookPage struct {
	Books []*models.Book
	Total int64
	Page  int
	Size  int
}

// BookService manages the catalog, its loans and reviews
type BookService struct {
	tx      db.TxManager
	books   BookStore
	loans   LoanStore
	reviews ReviewStore
	now     Clock
	logger  zerolog.Logger
}

// NewBookService creates a new BookService
func NewBookService(tx db.TxManager, books BookStore, loans LoanStore, reviews ReviewStore, now Clock, logger zerolog.Logger) *BookService {
	if now == nil {
		now = UTCClock
	}
	return &BookService{
		tx:      tx,
		books:   books,
		loans:   loans,
		reviews: reviews,
		now:     now,
		logger:  logger.With().Str("component", "book_service").Logger(),
	}
}

// List returns one page of the catalog
func (s *BookService) List(ctx context.Context, page, size int) (*BookPage, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	books, err := s.books.List(ctx, offset, limit)
	if err != nil {
		return nil, classify("failed to list books", err)
	}
	total, err := s.books.Count(ctx)
	if err != nil {
		return nil, classify("failed to count books", err)
	}
	return &BookPage{Books: books, Total: total, Page: page, Size: int(limit)}, nil
}

// Create adds an available book to the catalog
func (s *BookService) Create(ctx context.Context, actor auth.Identity, title, author string) (*models.Book, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	book := &models.Book{Title: strings.TrimSpace(title), Author: strings.TrimSpace(author), Availability: true}
	if book.Title == "" || book.Author == "" {
		return nil, apperrors.NewValidationError("title and author are required")
	}

	if err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.books.Create(ctx, book)
	}); err != nil {
		return nil, classify("failed to create book", err)
	}
	s.logger.Info().Int64("bookId", book.ID).Int64("userId", actor.ID).Msg("Book added to catalog")
	return book, nil
}

// Borrow lends an available catalog book to actor until dueDate. The loan
// and the availability flip commit together.
func (s *BookService) Borrow(ctx context.Context, actor auth.Identity, bookID int64, dueDate string) (*models.BorrowedBook, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	due, err := helpers.ParseDate(strings.TrimSpace(dueDate))
	if err != nil {
		return nil, apperrors.ErrInvalidDate
	}

	loan := &models.BorrowedBook{UserID: actor.ID, BookID: bookID, BorrowDate: helpers.DateOf(s.now()), DueDate: due}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		book, err := s.books.GetByID(ctx, bookID, true)
		if err != nil {
			return err
		}
		if !book.Availability {
			return apperrors.ErrBookUnavailable
		}
		if err := s.loans.Create(ctx, loan); err != nil {
			return err
		}
		return s.books.SetAvailability(ctx, bookID, false)
	})
	if err != nil {
		return nil, classify("failed to borrow book", err)
	}

	s.logger.Info().Int64("bookId", bookID).Int64("userId", actor.ID).Msg("Catalog book borrowed")
	return loan, nil
}

// Return closes actor's loan and makes the book available again. Returning
// a closed loan changes nothing.
func (s *BookService) Return(ctx context.Context, actor auth.Identity, loanID int64) (*models.BorrowedBook, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var loan *models.BorrowedBook
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		loan, err = s.loans.GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.UserID != actor.ID {
			return apperrors.NewForbiddenError("you can only return your own loans")
		}
		if !loan.IsOpen() {
			return nil
		}

		today := helpers.DateOf(s.now())
		changed, err := s.loans.MarkReturned(ctx, loan.ID, today)
		if err != nil || !changed {
			return err
		}
		loan.ReturnDate = &today
		return s.books.SetAvailability(ctx, loan.BookID, true)
	})
	if err != nil {
		return nil, classify("failed to return book", err)
	}
	return loan, nil
}

// Loans lists actor's catalog loans
func (s *BookService) Loans(ctx context.Context, actor auth.Identity) ([]*repositories.LoanDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	loans, err := s.loans.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, classify("failed to list loans", err)
	}
	return loans, nil
}

// AddReview rates a catalog book
func (s *BookService) AddReview(ctx context.Context, actor auth.Identity, bookID int64, rating int, comment string) (*models.Review, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, apperrors.NewValidationError("comment cannot be empty")
	}

	review := &models.Review{UserID: actor.ID, BookID: bookID, Rating: rating, Comment: comment}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.books.GetByID(ctx, bookID, false); err != nil {
			return err
		}
		return s.reviews.Create(ctx, review)
	})
	if err != nil {
		return nil, classify("failed to add review", err)
	}
	return review, nil
}

// Reviews lists the reviews of a book, newest first
func (s *BookService) Reviews(ctx context.Context, bookID int64) ([]*repositories.ReviewDetails, error) {
	if _, err := s.books.GetByID(ctx, bookID, false); err != nil {
		return nil, classify("failed to load book", err)
	}
	reviews, err := s.reviews.ListByBook(ctx, bookID)
	if err != nil {
		return nil, classify("failed to list reviews", err)
	}
	return reviews, nil
}
