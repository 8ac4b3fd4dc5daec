package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/db"
	"github.com/yigit/librarium/internal/pkg/apperrors"
	"github.com/yigit/librarium/internal/pkg/dberrors"
)

// ReviewDetails is a review joined with its author
type ReviewDetails struct {
	models.Review
	Username string
}

// ReviewRepository handles database operations for book reviews
type ReviewRepository struct {
	pool db.Querier
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(pool db.Querier) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts review and fills its ID and DatePosted
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	sql, args, err := psql.Insert("reviews").
		Columns("user_id", "book_id", "rating", "comment").
		Values(review.UserID, review.BookID, review.Rating, review.Comment).
		Suffix("RETURNING id, date_posted").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create review query: %w", err)
	}

	err = db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&review.ID, &review.DatePosted)
	switch {
	case err == nil:
		return nil
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.ErrBookNotFound
	case dberrors.IsCheckViolation(err):
		return apperrors.NewValidationError("rating must be between 1 and 5")
	default:
		return fmt.Errorf("create review: %w", err)
	}
}

// ListByBook returns the reviews of bookID, newest first
func (r *ReviewRepository) ListByBook(ctx context.Context, bookID int64) ([]*ReviewDetails, error) {
	sql, args, err := psql.Select(
		"r.id", "r.user_id", "r.book_id", "r.rating", "r.comment", "r.date_posted", "u.username",
	).From("reviews r").
		Join("users u ON u.id = r.user_id").
		Where(squirrel.Eq{"r.book_id": bookID}).
		OrderBy("r.date_posted DESC", "r.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list reviews query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*ReviewDetails, 0)
	for rows.Next() {
		var rv ReviewDetails
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.BookID, &rv.Rating, &rv.Comment, &rv.DatePosted, &rv.Username); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, &rv)
	}
	return reviews, rows.Err()
}
