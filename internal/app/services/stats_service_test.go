package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/app/repositories"
	"github.com/yigit/librarium/internal/pkg/cache"
)

func seedBooks(t *testing.T, lib *fakeLibrary) {
	t.Helper()
	books := fakeBookStore{lib}
	require.NoError(t, books.Create(context.Background(), &models.Book{Title: "Dune", Author: "Frank Herbert", Availability: true}))
	require.NoError(t, books.Create(context.Background(), &models.Book{Title: "Emma", Author: "Jane Austen"}))
}

func TestStatsUsesCache(t *testing.T) {
	lib := newFakeLibrary()
	seedBooks(t, lib)
	counters := &countingCounters{value: repositories.Counters{Users: 2, Books: 2, ActiveBorrowers: 1, ForumPosts: 0}}
	svc := NewStatsService(counters, fakeBookStore{lib}, cache.NewMemoryStore(), time.Minute, zerolog.Nop())

	first, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Counters.ActiveBorrowers)
	require.Len(t, first.AvailableBooks, 1)
	assert.Equal(t, "Dune", first.AvailableBooks[0].Title)

	second, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, counters.calls)
}

func TestStatsWithoutCache(t *testing.T) {
	lib := newFakeLibrary()
	counters := &countingCounters{}
	svc := NewStatsService(counters, fakeBookStore{lib}, nil, 0, zerolog.Nop())

	for i := 0; i < 2; i++ {
		stats, err := svc.Get(context.Background())
		require.NoError(t, err)
		assert.Empty(t, stats.AvailableBooks)
	}
	assert.Equal(t, 2, counters.calls)
}
