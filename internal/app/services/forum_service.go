package services

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/app/repositories"
	"github.com/yigit/librarium/internal/db"
	"github.com/yigit/librarium/internal/pkg/apperrors"
	"github.com/yigit/librarium/internal/pkg/auth"
	"github.com/yigit/librarium/internal/pkg/filestorage"
	"github.com/yigit/librarium/internal/pkg/helpers"
)

const forumPhotoDir = "forum"

// ForumStore persists forum posts and comments
type ForumStore interface {
	CreatePost(ctx context.Context, post *models.ForumPost) error
	GetPostByID(ctx context.Context, id int64) (*models.ForumPost, error)
	ListPosts(ctx context.Context, offset, limit uint64) ([]*repositories.PostDetails, error)
	CountPosts(ctx context.Context) (int64, error)
	DeletePost(ctx context.Context, id int64) error
	CreateComment(ctx context.Context, comment *models.ForumComment) error
	GetCommentByID(ctx context.Context, id int64) (*models.ForumComment, error)
	ListCommentsByPosts(ctx context.Context, postIDs []int64) (map[int64][]*repositories.CommentDetails, error)
	DeleteComment(ctx context.Context, id int64) error
}

// CreatePostInput is the payload of a new forum post. Photo is optional.
type CreatePostInput struct {
	Title   string
	Content string
	Photo   *multipart.FileHeader
}

// PostView is a post with its comments and a resolved photo address
type PostView struct {
	*repositories.PostDetails
	PhotoURL *string
	Comments []*repositories.CommentDetails
}

// PostPage is one page of the forum
type PostPage struct {
	Posts []*PostView
	Total int64
	Page  int
	Size  int
}

// ForumService manages forum posts, comments and their photos
type ForumService struct {
	tx      db.TxManager
	forum   ForumStore
	storage filestorage.Storage
	logger  zerolog.Logger
}

// NewForumService creates a new ForumService
func NewForumService(tx db.TxManager, forum ForumStore, storage filestorage.Storage, logger zerolog.Logger) *ForumService {
	return &ForumService{
		tx:      tx,
		forum:   forum,
		storage: storage,
		logger:  logger.With().Str("component", "forum_service").Logger(),
	}
}

// List returns one page of posts, newest first, each with its comments
func (s *ForumService) List(ctx context.Context, page, size int) (*PostPage, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	posts, err := s.forum.ListPosts(ctx, offset, limit)
	if err != nil {
		return nil, classify("failed to list posts", err)
	}
	total, err := s.forum.CountPosts(ctx)
	if err != nil {
		return nil, classify("failed to count posts", err)
	}

	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	comments, err := s.forum.ListCommentsByPosts(ctx, ids)
	if err != nil {
		return nil, classify("failed to list comments", err)
	}

	views := make([]*PostView, 0, len(posts))
	for _, p := range posts {
		view := &PostView{PostDetails: p, Comments: comments[p.ID], PhotoURL: s.photoURL(ctx, p.PhotoFilename)}
		if view.Comments == nil {
			view.Comments = []*repositories.CommentDetails{}
		}
		views = append(views, view)
	}
	return &PostPage{Posts: views, Total: total, Page: page, Size: int(limit)}, nil
}

// photoURL resolves a stored photo key. A storage failure hides the photo
// rather than failing the listing.
func (s *ForumService) photoURL(ctx context.Context, key *string) *string {
	if key == nil || s.storage == nil {
		return nil
	}
	url, err := s.storage.URL(ctx, *key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", *key).Msg("Failed to resolve photo URL")
		return nil
	}
	return &url
}

// CreatePost publishes a post. The photo is stored first and removed again
// when the post cannot be saved.
func (s *ForumService) CreatePost(ctx context.Context, actor auth.Identity, in CreatePostInput) (*PostView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	post := &models.ForumPost{
		UserID:  actor.ID,
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
	}
	if post.Title == "" || post.Content == "" {
		return nil, apperrors.NewValidationError("title and content are required")
	}

	if in.Photo != nil {
		if err := filestorage.ValidatePhoto(in.Photo.Filename); err != nil {
			return nil, err
		}
		if s.storage == nil {
			return nil, apperrors.NewValidationError("photo uploads are disabled")
		}
		key, err := s.storage.Save(ctx, in.Photo, forumPhotoDir)
		if err != nil {
			return nil, classify("failed to store photo", err)
		}
		post.PhotoFilename = &key
	}

	if err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.forum.CreatePost(ctx, post)
	}); err != nil {
		s.removePhoto(ctx, post.PhotoFilename)
		return nil, classify("failed to create post", err)
	}

	s.logger.Info().Int64("postId", post.ID).Int64("userId", actor.ID).Msg("Forum post created")
	return &PostView{
		PostDetails: &repositories.PostDetails{ForumPost: *post, Username: actor.Username},
		PhotoURL:    s.photoURL(ctx, post.PhotoFilename),
		Comments:    []*repositories.CommentDetails{},
	}, nil
}

// DeletePost removes actor's post and every comment on it
func (s *ForumService) DeletePost(ctx context.Context, actor auth.Identity, postID int64) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	var photo *string
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		post, err := s.forum.GetPostByID(ctx, postID)
		if err != nil {
			return err
		}
		if post.UserID != actor.ID {
			return apperrors.NewForbiddenError("you can only delete your own posts")
		}
		photo = post.PhotoFilename
		return s.forum.DeletePost(ctx, postID)
	})
	if err != nil {
		return classify("failed to delete post", err)
	}

	s.removePhoto(ctx, photo)
	s.logger.Info().Int64("postId", postID).Int64("userId", actor.ID).Msg("Forum post deleted")
	return nil
}

func (s *ForumService) removePhoto(ctx context.Context, key *string) {
	if key == nil || s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, *key); err != nil {
		s.logger.Warn().Err(err).Str("key", *key).Msg("Failed to remove photo")
	}
}

// AddComment comments on an existing post
func (s *ForumService) AddComment(ctx context.Context, actor auth.Identity, postID int64, content string) (*models.ForumComment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("comment cannot be empty")
	}

	comment := &models.ForumComment{PostID: postID, UserID: actor.ID, Content: content}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.forum.GetPostByID(ctx, postID); err != nil {
			return err
		}
		return s.forum.CreateComment(ctx, comment)
	})
	if err != nil {
		return nil, classify("failed to add comment", err)
	}
	return comment, nil
}

// DeleteComment removes actor's comment
func (s *ForumService) DeleteComment(ctx context.Context, actor auth.Identity, commentID int64) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		comment, err := s.forum.GetCommentByID(ctx, commentID)
		if err != nil {
			return err
		}
		if comment.UserID != actor.ID {
			return apperrors.NewForbiddenError("you can only delete your own comments")
		}
		return s.forum.DeleteComment(ctx, commentID)
	})
	if err != nil {
		return classify("failed to delete comment", err)
	}
	return nil
}
