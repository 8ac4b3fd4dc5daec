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

// PostDetails is a forum post joined with its author
type PostDetails struct {
	models.ForumPost
	Username string
}

// CommentDetails is a forum comment joined with its author
type CommentDetails struct {
	models.ForumComment
	Username string
}

// ForumRepository handles database operations for posts and comments
type ForumRepository struct {
	pool db.Querier
}

// NewForumRepository creates a new forum repository
func NewForumRepository(pool db.Querier) *ForumRepository {
	return &ForumRepository{pool: pool}
}

// CreatePost inserts post and fills its ID and DatePosted
func (r *ForumRepository) CreatePost(ctx context.Context, post *models.ForumPost) error {
	sql, args, err := psql.Insert("forum_posts").
		Columns("user_id", "title", "content", "photo_filename").
		Values(post.UserID, post.Title, post.Content, post.PhotoFilename).
		Suffix("RETURNING id, date_posted").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create post query: %w", err)
	}

	if err := db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&post.ID, &post.DatePosted); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// GetPostByID retrieves a post by ID
func (r *ForumRepository) GetPostByID(ctx context.Context, id int64) (*models.ForumPost, error) {
	sql, args, err := psql.Select("id", "user_id", "title", "content", "date_posted", "photo_filename").
		From("forum_posts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get post query: %w", err)
	}

	var p models.ForumPost
	err = db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).
		Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.DatePosted, &p.PhotoFilename)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &p, nil
}

// ListPosts returns one page of posts, newest first
func (r *ForumRepository) ListPosts(ctx context.Context, offset, limit uint64) ([]*PostDetails, error) {
	sql, args, err := psql.Select(
		"p.id", "p.user_id", "p.title", "p.content", "p.date_posted", "p.photo_filename", "u.username",
	).From("forum_posts p").
		Join("users u ON u.id = p.user_id").
		OrderBy("p.date_posted DESC", "p.id DESC").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list posts query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*PostDetails, 0)
	for rows.Next() {
		var p PostDetails
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.DatePosted, &p.PhotoFilename, &p.Username); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

// CountPosts returns the number of posts
func (r *ForumRepository) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM forum_posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// DeletePost removes a post; its comments go with it (ON DELETE CASCADE)
func (r *ForumRepository) DeletePost(ctx context.Context, id int64) error {
	sql, args, err := psql.Delete("forum_posts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete post query: %w", err)
	}

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPostNotFound
	}
	return nil
}

// CreateComment inserts comment and fills its ID and DatePosted
func (r *ForumRepository) CreateComment(ctx context.Context, comment *models.ForumComment) error {
	sql, args, err := psql.Insert("forum_comments").
		Columns("post_id", "user_id", "content").
		Values(comment.PostID, comment.UserID, comment.Content).
		Suffix("RETURNING id, date_posted").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create comment query: %w", err)
	}

	err = db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&comment.ID, &comment.DatePosted)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrPostNotFound
		}
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// GetCommentByID retrieves a comment by ID
func (r *ForumRepository) GetCommentByID(ctx context.Context, id int64) (*models.ForumComment, error) {
	sql, args, err := psql.Select("id", "post_id", "user_id", "content", "date_posted").
		From("forum_comments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get comment query: %w", err)
	}

	var c models.ForumComment
	err = db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.DatePosted)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

// ListCommentsByPosts returns the comments of postIDs grouped by post, oldest first
func (r *ForumRepository) ListCommentsByPosts(ctx context.Context, postIDs []int64) (map[int64][]*CommentDetails, error) {
	grouped := make(map[int64][]*CommentDetails, len(postIDs))
	if len(postIDs) == 0 {
		return grouped, nil
	}

	sql, args, err := psql.Select("c.id", "c.post_id", "c.user_id", "c.content", "c.date_posted", "u.username").
		From("forum_comments c").
		Join("users u ON u.id = c.user_id").
		Where(squirrel.Eq{"c.post_id": postIDs}).
		OrderBy("c.date_posted ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list comments query: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c CommentDetails
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.DatePosted, &c.Username); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		grouped[c.PostID] = append(grouped[c.PostID], &c)
	}
	return grouped, rows.Err()
}

// CountComments returns the number of comments on postID
func (r *ForumRepository) CountComments(ctx context.Context, postID int64) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM forum_comments WHERE post_id = $1`, postID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}

// DeleteComment removes a comment
func (r *ForumRepository) DeleteComment(ctx context.Context, id int64) error {
	sql, args, err := psql.Delete("forum_comments").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete comment query: %w", err)
	}

	tag, err := db.Conn(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCommentNotFound
	}
	return nil
}
