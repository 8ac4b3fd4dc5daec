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

// Unique constraints of the users table
const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

// UserRepository handles database operations for users
type UserRepository struct {
	pool db.Querier
}

// NewUserRepository creates a new user repository
func NewUserRepository(pool db.Querier) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts user and fills its ID and CreatedAt. A taken username or
// email is reported as a persistence failure that is also a conflict.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := psql.Insert("users").
		Columns("username", "email", "password").
		Values(user.Username, user.Email, user.Password).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create user query: %w", err)
	}

	err = db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt)
	switch {
	case err == nil:
		return nil
	case dberrors.IsDuplicateConstraintError(err, usernameConstraint):
		return apperrors.NewPersistenceError(apperrors.ErrUsernameTaken.Message, apperrors.ErrUsernameTaken)
	case dberrors.IsDuplicateConstraintError(err, emailConstraint):
		return apperrors.NewPersistenceError(apperrors.ErrEmailTaken.Message, apperrors.ErrEmailTaken)
	default:
		return fmt.Errorf("create user: %w", err)
	}
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := psql.Select("id", "username", "email", "password", "created_at").
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user query: %w", err)
	}

	var u models.User
	err = db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

