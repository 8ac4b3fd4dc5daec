package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/app/models/dto"
	"github.com/yigit/librarium/internal/app/services"
	"github.com/yigit/librarium/internal/middleware"
	"github.com/yigit/librarium/internal/pkg/auth"
	"github.com/yigit/librarium/internal/pkg/helpers"
)

// UserBookService is the borrow record API used by UserBookController
type UserBookService interface {
	Create(ctx context.Context, actor auth.Identity, in services.CreateBorrowRecordInput) (*services.BorrowOutcome, error)
	MarkReturned(ctx context.Context, actor auth.Identity, recordID int64) (*models.UserBook, error)
	List(ctx context.Context, actor auth.Identity) ([]*models.UserBook, error)
}

// UserBookController serves the self-service borrowed books list
type UserBookController struct {
	service UserBookService
	now     services.Clock
	logger  zerolog.Logger
}

// NewUserBookController creates a new UserBookController
func NewUserBookController(service UserBookService, now services.Clock, logger zerolog.Logger) *UserBookController {
	if now == nil {
		now = services.UTCClock
	}
	return &UserBookController{service: service, now: now, logger: logger}
}

func (c *UserBookController) today() time.Time {
	return helpers.DateOf(c.now())
}

// List returns the caller's borrow records, most recent borrow first
func (c *UserBookController) List(ctx *gin.Context) {
	identity, ok := actor(ctx)
	if !ok {
		return
	}

	records, err := c.service.List(ctx.Request.Context(), identity)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	today := c.today()
	out := make([]dto.BorrowRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toBorrowRecordResponse(r, today))
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(out, ""))
}

// Create records a borrowed book for the caller
func (c *UserBookController) Create(ctx *gin.Context) {
	identity, ok := actor(ctx)
	if !ok {
		return
	}

	var req dto.CreateBorrowRecordRequest
	if !middleware.BindRequest(ctx, &req) {
		return
	}

	outcome, err := c.service.Create(ctx.Request.Context(), identity, services.CreateBorrowRecordInput{
		Title:   req.Title,
		Author:  req.Author,
		DueDate: req.DueDate,
		Notes:   req.Notes,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.NewSuccessResponse(toBorrowRecordResponse(outcome.Record, c.today()), outcome.Message())
	ctx.JSON(http.StatusCreated, resp.WithWarning(outcome.Warning()))
}

// Return marks one of the caller's records as returned
func (c *UserBookController) Return(ctx *gin.Context) {
	identity, ok := actor(ctx)
	if !ok {
		return
	}
	id, ok := middleware.ParseIDParam(ctx, "id")
	if !ok {
		return
	}

	record, err := c.service.MarkReturned(ctx.Request.Context(), identity, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toBorrowRecordResponse(record, c.today()), "Book marked as returned!"))
}
