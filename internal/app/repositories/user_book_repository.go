package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/db"
	"github.com/yigit/librarium/internal/pkg/apperrors"
	"github.com/yigit/librarium/internal/pkg/dberrors"
)

var userBookColumns = []string{
	"id", "user_id", "book_title", "author", "borrow_date", "due_date", "return_date", "is_returned", "notes",
}

// UserBookRepository handles database operations for self-service borrow records
type UserBookRepository struct {
	pool db.Querier
}

// NewUserBookRepository creates a new borrow record repository
func NewUserBookRepository(pool db.Querier) *UserBookRepository {
	return &UserBookRepository{pool: pool}
}

func scanUserBook(row pgx.Row) (*models.UserBook, error) {
	var ub models.UserBook
	err := row.Scan(
		&ub.ID, &ub.UserID, &ub.BookTitle, &ub.Author,
		&ub.BorrowDate, &ub.DueDate, &ub.ReturnDate, &ub.IsReturned, &ub.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &ub, nil
}

// Create inserts record and fills its ID
func (r *UserBookRepository) Create(ctx context.Context, record *models.UserBook) error {
	sql, args, err := psql.Insert("user_books").
		Columns("user_id", "book_title", "author", "borrow_date", "due_date", "return_date", "is_returned", "notes").
		Values(record.UserID, record.BookTitle, record.Author, record.BorrowDate, record.DueDate,
			record.ReturnDate, record.IsReturned, record.Notes).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create borrow record query: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&record.ID); err != nil {
		return fmt.Errorf("create borrow record: %w", err)
	}
	return nil
}

// GetByID retrieves a borrow record by ID
func (r *UserBookRepository) GetByID(ctx context.Context, id int64) (*models.UserBook, error) {
	sql, args, err := psql.Select(userBookColumns...).
		From("user_books").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get borrow record query: %w", err)
	}

	ub, err := scanUserBook(db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrBorrowRecordNotFound
		}
		return nil, fmt.Errorf("get borrow record: %w", err)
	}
	return ub, nil
}

// MarkReturned closes an open record. It reports false when the record was
// already returned, leaving it untouched.
func (r *UserBookRepository) MarkReturned(ctx context.Context, id int64, returnDate time.Time) (bool, error) {
	sql, args, err := psql.Update("user_books").
		Set("is_returned", true).
		Set("return_date", returnDate).
		Where(squirrel.Eq{"id": id, "is_returned": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build mark returned query: %w", err)
	}

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("mark borrow record returned: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser returns every record of userID, latest borrow date first and
// records borrowed the same day in insertion order.
func (r *UserBookRepository) ListByUser(ctx context.Context, userID int64) ([]*models.UserBook, error) {
	sql, args, err := psql.Select(userBookColumns...).
		From("user_books").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("borrow_date DESC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list borrow records query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list borrow records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.UserBook, 0)
	for rows.Next() {
		ub, err := scanUserBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan borrow record: %w", err)
		}
		records = append(records, ub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list borrow records: %w", err)
	}
	return records, nil
}
