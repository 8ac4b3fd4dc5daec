package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/app/models/dto"
	"github.com/yigit/librarium/internal/app/services"
	"github.com/yigit/librarium/internal/middleware"
	"github.com/yigit/librarium/internal/pkg/auth"
	"github.com/yigit/librarium/internal/pkg/helpers"
)

// ForumService is the forum API used by ForumController
type ForumService interface {
	List(ctx context.Context, page, size int) (*services.PostPage, error)
	CreatePost(ctx context.Context, actor auth.Identity, in services.CreatePostInput) (*services.PostView, error)
	DeletePost(ctx context.Context, actor auth.Identity, postID int64) error
	AddComment(ctx context.Context, actor auth.Identity, postID int64, content string) (*models.ForumComment, error)
	DeleteComment(ctx context.Context, actor auth.Identity, commentID int64) error
}

// ForumController serves forum posts and comments
type ForumController struct {
	service ForumService
	logger  zerolog.Logger
}

// NewForumController creates a new ForumController
func NewForumController(service ForumService, logger zerolog.Logger) *ForumController {
	return &ForumController{service: service, logger: logger}
}

// ListPosts returns one page of posts with their comments
func (c *ForumController) ListPosts(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.service.List(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	posts := make([]dto.PostResponse, 0, len(result.Posts))
	for _, p := range result.Posts {
		posts = append(posts, toPostResponse(p))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.PostListResponse{
		Posts:      posts,
		Pagination: helpers.NewPaginationInfo(result.Total, result.Page, result.Size),
	}, ""))
}

// CreatePost publishes a post from a multipart form with an optional photo
func (c *ForumController) CreatePost(ctx *gin.Context) {
	identity, ok := actor(ctx)
	if !ok {
		return
	}
	var req dto.CreatePostRequest
	if !middleware.BindRequest(ctx, &req) {
		return
	}

	in := services.CreatePostInput{Title: req.Title, Content: req.Content}
	photo, err := ctx.FormFile("photo")
	switch {
	case err == nil:
		in.Photo = photo
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		c.logger.Warn().Err(err).Msg("Failed to read photo upload")
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid photo upload").WithField("photo")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	post, err := c.service.CreatePost(ctx.Request.Context(), identity, in)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(toPostResponse(post), "Post created successfully!"))
}

// DeletePost removes one of the caller's posts with all its comments
func (c *ForumController) DeletePost(ctx *gin.Context) {
	identity, ok := actor(ctx)
	if !ok {
		return
	}
	postID, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.DeletePost(ctx.Request.Context(), identity, postID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Post deleted."))
}

// AddComment comments on a post
func (c *ForumController) AddComment(ctx *gin.Context) {
	identity, ok := actor(ctx)
	if !ok {
		return
	}
	postID, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateCommentRequest
	if !middleware.BindRequest(ctx, &req) {
		return
	}

	comment, err := c.service.AddComment(ctx.Request.Context(), identity, postID, req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(toCommentResponse(comment, identity.Username), "Comment added successfully!"))
}

// DeleteComment removes one of the caller's comments
func (c *ForumController) DeleteComment(ctx *gin.Context) {
	identity, ok := actor(ctx)
	if !ok {
		return
	}
	commentID, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.DeleteComment(ctx.Request.Context(), identity, commentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Comment deleted."))
}
