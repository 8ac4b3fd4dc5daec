package repositories

import (
	"context"
	"fmt"

	"github.com/yigit/librarium/internal/db"
)

// Counters are the home page statistics
type Counters struct {
	Users           int64
	Books           int64
	ActiveBorrowers int64
	ForumPosts      int64
}

// StatsRepository computes aggregate counters
type StatsRepository struct {
	pool db.Querier
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(pool db.Querier) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// Counters computes every counter in one round trip. Active borrowers are the
// distinct users holding at least one unreturned borrow record.
func (r *StatsRepository) Counters(ctx context.Context) (*Counters, error) {
	const query = `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM books),
			(SELECT count(DISTINCT user_id) FROM user_books WHERE NOT is_returned),
			(SELECT count(*) FROM forum_posts)`

	var c Counters
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query).Scan(&c.Users, &c.Books, &c.ActiveBorrowers, &c.ForumPosts); err != nil {
		return nil, fmt.Errorf("compute counters: %w", err)
	}
	return &c, nil
}
