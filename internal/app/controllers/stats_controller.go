package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/librarium/internal/app/models/dto"
	"github.com/yigit/librarium/internal/app/services"
	"github.com/yigit/librarium/internal/middleware"
)

// StatsService computes the home page summary
type StatsService interface {
	Get(ctx context.Context) (*services.Stats, error)
}

// Pinger checks a backing dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsController serves the home page summary and the health probe
type StatsController struct {
	stats  StatsService
	db     Pinger
	logger zerolog.Logger
}

// NewStatsController creates a new StatsController
func NewStatsController(stats StatsService, db Pinger, logger zerolog.Logger) *StatsController {
	return &StatsController{stats: stats, db: db, logger: logger}
}

// Stats returns the counters and the available books
func (c *StatsController) Stats(ctx *gin.Context) {
	stats, err := c.stats.Get(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.StatsResponse{
		UsersCount:      stats.Counters.Users,
		BooksCount:      stats.Counters.Books,
		ActiveBorrowers: stats.Counters.ActiveBorrowers,
		ForumPostsCount: stats.Counters.ForumPosts,
		AvailableBooks:  toBookResponses(stats.AvailableBooks),
	}, ""))
}

// Health reports whether the database answers
func (c *StatsController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if c.db != nil {
		if err := c.db.Ping(pingCtx); err != nil {
			c.logger.Error().Err(err).Msg("Health check failed")
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}
