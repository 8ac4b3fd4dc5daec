package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/app/models/dto"
	"github.com/yigit/librarium/internal/app/repositories"
	"github.com/yigit/librarium/internal/app/services"
	"github.com/yigit/librarium/internal/middleware"
	"github.com/yigit/librarium/internal/pkg/auth"
	"github.com/yigit/librarium/internal/pkg/helpers"
)

// BookService is the catalog API used by BookController
type BookService interface {
	List(ctx context.Context, page, size int) (*services.BookPage, error)
	Create(ctx context.Context, actor auth.Identity, title, author string) (*models.Book, error)
	Borrow(ctx context.Context, actor auth.Identity, bookID int64, dueDate string) (*models.BorrowedBook, error)
	Return(ctx context.Context, actor auth.Identity, loanID int64) (*models.BorrowedBook, error)
	Loans(ctx context.Context, actor auth.Identity) ([]*repositories.LoanDetails, error)
	AddReview(ctx context.Context, actor auth.Identity, bookID int64, rating int, comment string) (*models.Review, error)
	Reviews(ctx context.Context, bookID int64) ([]*repositories.ReviewDetails, error)
}

// BookController serves the catalog, loans and reviews
type BookController struct {
	service BookService
	logger  zerolog.Logger
}

// NewBookController creates a new BookController
func NewBookController(service BookService, logger zerolog.Logger) *BookController {
	return &BookController{service: service, logger: logger}
}

// List returns one page of the catalog
func (c *BookController) List(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.service.List(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.BookListResponse{
		Books:      toBookResponses(result.Books),
		Pagination: helpers.NewPaginationInfo(result.Total, result.Page, result.Size),
	}, ""))
}

// Create adds a book to the catalog
func (c *BookController) Create(ctx *gin.Context) {
	identity, ok := actor(ctx)
	if !ok {
		return
	}
	var req dto.CreateBookRequest
	if !middleware.BindRequest(ctx, &req) {
		return
	}

	book, err := c.service.Create(ctx.Request.Context(), identity, req.Title, req.Author)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(toBookResponse(book), "Book added to the catalog."))
}

// Borrow lends a catalog book to the caller
func (c *BookController) Borrow(ctx *gin.Context) {
	identity, ok := actor(ctx)
	if !ok {
		return
	}
	bookID, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.BorrowBookRequest
	if !middleware.BindRequest(ctx, &req) {
		return
	}

	loan, err := c.service.Borrow(ctx.Request.Context(), identity, bookID, req.DueDate)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(toLoanResponse(loan, "", ""), "Book borrowed successfully!"))
}

// ReturnLoan closes one of the caller's loans
func (c *BookController) ReturnLoan(ctx *gin.Context) {
	identity, ok := actor(ctx)
	if !ok {
		return
	}
	loanID, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	loan, err := c.service.Return(ctx.Request.Context(), identity, loanID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toLoanResponse(loan, "", ""), "Book returned successfully!"))
}

// Loans lists the caller's catalog loans
func (c *BookController) Loans(ctx *gin.Context) {
	identity, ok := actor(ctx)
	if !ok {
		return
	}

	loans, err := c.service.Loans(ctx.Request.Context(), identity)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toLoanResponses(loans), ""))
}

// AddReview rates a book
func (c *BookController) AddReview(ctx *gin.Context) {
	identity, ok := actor(ctx)
	if !ok {
		return
	}
	bookID, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateReviewRequest
	if !middleware.BindRequest(ctx, &req) {
		return
	}

	review, err := c.service.AddReview(ctx.Request.Context(), identity, bookID, req.Rating, req.Comment)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(toReviewResponse(review, identity.Username), "Review added successfully!"))
}

// Reviews lists the reviews of a book
func (c *BookController) Reviews(ctx *gin.Context) {
	bookID, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	reviews, err := c.service.Reviews(ctx.Request.Context(), bookID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	out := make([]dto.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, toReviewResponse(&r.Review, r.Username))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(out, ""))
}
