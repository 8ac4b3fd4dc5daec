package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/db"
	"github.com/yigit/librarium/internal/pkg/apperrors"
	"github.com/yigit/librarium/internal/pkg/dberrors"
)

// openLoanConstraint allows at most one open loan per book
const openLoanConstraint = "idx_borrowed_books_open_loan"

// LoanDetails is a catalog loan joined with its book
type LoanDetails struct {
	models.BorrowedBook
	BookTitle  string
	BookAuthor string
}

// BorrowedBookRepository handles database operations for catalog loans
type BorrowedBookRepository struct {
	pool db.Querier
}

// NewBorrowedBookRepository creates a new catalog loan repository
func NewBorrowedBookRepository(pool db.Querier) *BorrowedBookRepository {
	return &BorrowedBookRepository{pool: pool}
}

// Create inserts loan and fills its ID
func (r *BorrowedBookRepository) Create(ctx context.Context, loan *models.BorrowedBook) error {
	sql, args, err := psql.Insert("borrowed_books").
		Columns("user_id", "book_id", "borrow_date", "due_date").
		Values(loan.UserID, loan.BookID, loan.BorrowDate, loan.DueDate).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create loan query: %w", err)
	}

	err = db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&loan.ID)
	switch {
	case err == nil:
		return nil
	case dberrors.IsDuplicateConstraintError(err, openLoanConstraint):
		return apperrors.NewPersistenceError(apperrors.ErrBookUnavailable.Message, apperrors.ErrBookUnavailable)
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.ErrBookNotFound
	default:
		return fmt.Errorf("create loan: %w", err)
	}
}

// GetByID retrieves a loan by ID
func (r *BorrowedBookRepository) GetByID(ctx context.Context, id int64) (*models.BorrowedBook, error) {
	sql, args, err := psql.Select("id", "user_id", "book_id", "borrow_date", "due_date", "return_date").
		From("borrowed_books").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get loan query: %w", err)
	}

	var l models.BorrowedBook
	err = db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).
		Scan(&l.ID, &l.UserID, &l.BookID, &l.BorrowDate, &l.DueDate, &l.ReturnDate)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrLoanNotFound
		}
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return &l, nil
}

// MarkReturned closes an open loan, reporting false if it was already closed
func (r *BorrowedBookRepository) MarkReturned(ctx context.Context, id int64, returnDate time.Time) (bool, error) {
	sql, args, err := psql.Update("borrowed_books").
		Set("return_date", returnDate).
		Where(squirrel.Eq{"id": id, "return_date": nil}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build return loan query: %w", err)
	}

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("return loan: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser returns the loans of userID, latest first
func (r *BorrowedBookRepository) ListByUser(ctx context.Context, userID int64) ([]*LoanDetails, error) {
	sql, args, err := psql.Select(
		"bb.id", "bb.user_id", "bb.book_id", "bb.borrow_date", "bb.due_date", "bb.return_date",
		"b.title", "b.author",
	).From("borrowed_books bb").
		Join("books b ON b.id = bb.book_id").
		Where(squirrel.Eq{"bb.user_id": userID}).
		OrderBy("bb.borrow_date DESC", "bb.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list loans query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	loans := make([]*LoanDetails, 0)
	for rows.Next() {
		var l LoanDetails
		if err := rows.Scan(&l.ID, &l.UserID, &l.BookID, &l.BorrowDate, &l.DueDate, &l.ReturnDate,
			&l.BookTitle, &l.BookAuthor); err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		loans = append(loans, &l)
	}
	return loans, rows.Err()
}
