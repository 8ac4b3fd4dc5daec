package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/db"
	"github.com/yigit/librarium/internal/pkg/apperrors"
	"github.com/yigit/librarium/internal/pkg/dberrors"
)

// BookRepository handles database operations for the catalog
type BookRepository struct {
	pool db.Querier
}

// NewBookRepository creates a new book repository
func NewBookRepository(pool db.Querier) *BookRepository {
	return &BookRepository{pool: pool}
}

func (r *BookRepository) selectBooks() squirrel.SelectBuilder {
	return psql.Select("id", "title", "author", "availability").From("books")
}

func collectBooks(rows pgx.Rows) ([]*models.Book, error) {
	defer rows.Close()

	books := make([]*models.Book, 0)
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Availability); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, &b)
	}
	return books, rows.Err()
}

// Create inserts book and fills its ID
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	sql, args, err := psql.Insert("books").
		Columns("title", "author", "availability").
		Values(book.Title, book.Author, book.Availability).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create book query: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&book.ID); err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

// GetByID retrieves a book. forUpdate locks the row until the surrounding
// transaction ends.
func (r *BookRepository) GetByID(ctx context.Context, id int64, forUpdate bool) (*models.Book, error) {
	builder := r.selectBooks().Where(squirrel.Eq{"id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get book query: %w", err)
	}

	var b models.Book
	err = db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&b.ID, &b.Title, &b.Author, &b.Availability)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &b, nil
}

// List returns one page of the catalog ordered by title
func (r *BookRepository) List(ctx context.Context, offset, limit uint64) ([]*models.Book, error) {
	sql, args, err := r.selectBooks().OrderBy("title ASC", "id ASC").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list books query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return collectBooks(rows)
}

// ListAvailable returns every book that can be borrowed
func (r *BookRepository) ListAvailable(ctx context.Context) ([]*models.Book, error) {
	sql, args, err := r.selectBooks().Where(squirrel.Eq{"availability": true}).OrderBy("title ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list available books query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list available books: %w", err)
	}
	return collectBooks(rows)
}

// Count returns the catalog size
func (r *BookRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// SetAvailability flips the availability flag of a book
func (r *BookRepository) SetAvailability(ctx context.Context, id int64, available bool) error {
	sql, args, err := psql.Update("books").Set("availability", available).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build set availability query: %w", err)
	}

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set book availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrBookNotFound
	}
	return nil
}
