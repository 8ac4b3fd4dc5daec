package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/app/repositories"
	"github.com/yigit/librarium/internal/pkg/cache"
)

const statsCacheKey = "stats:home"

// CounterStore computes the home page counters
type CounterStore interface {
	Counters(ctx context.Context) (*repositories.Counters, error)
}

// AvailableBookLister lists books that can be borrowed
type AvailableBookLister interface {
	ListAvailable(ctx context.Context) ([]*models.Book, error)
}

// Stats is the home page summary
type Stats struct {
	Counters       repositories.Counters `json:"counters"`
	AvailableBooks []*models.Book        `json:"availableBooks"`
}

// StatsService serves the home page summary, cached for ttl
type StatsService struct {
	counters CounterStore
	books    AvailableBookLister
	cache    cache.Store
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewStatsService creates a new StatsService. A nil store or a zero ttl
// disables caching.
func NewStatsService(counters CounterStore, books AvailableBookLister, store cache.Store, ttl time.Duration, logger zerolog.Logger) *StatsService {
	return &StatsService{
		counters: counters,
		books:    books,
		cache:    store,
		ttl:      ttl,
		logger:   logger.With().Str("component", "stats_service").Logger(),
	}
}

func (s *StatsService) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

// Get returns the home page summary. Cache failures fall back to the database.
func (s *StatsService) Get(ctx context.Context) (*Stats, error) {
	if s.cacheEnabled() {
		var cached Stats
		err := cache.GetJSON(ctx, s.cache, statsCacheKey, &cached)
		switch {
		case err == nil:
			return &cached, nil
		case !errors.Is(err, cache.ErrMiss):
			s.logger.Warn().Err(err).Msg("Stats cache read failed")
		}
	}

	counters, err := s.counters.Counters(ctx)
	if err != nil {
		return nil, classify("failed to compute statistics", err)
	}
	books, err := s.books.ListAvailable(ctx)
	if err != nil {
		return nil, classify("failed to list available books", err)
	}
	stats := &Stats{Counters: *counters, AvailableBooks: books}

	if s.cacheEnabled() {
		if err := cache.SetJSON(ctx, s.cache, statsCacheKey, stats, s.ttl); err != nil {
			s.logger.Warn().Err(err).Msg("Stats cache write failed")
		}
	}
	return stats, nil
}
