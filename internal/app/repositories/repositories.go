package repositories

import (
	"github.com/Masterminds/squirrel"
	"github.com/yigit/librarium/internal/db"
)

// psql builds statements with $n placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	BookRepository         *BookRepository
	BorrowedBookRepository *BorrowedBookRepository
	UserBookRepository     *UserBookRepository
	ForumRepository        *ForumRepository
	ReviewRepository       *ReviewRepository
	StatsRepository        *StatsRepository
}

// NewRepositories initializes all repositories. Every repository runs its
// statements on the transaction carried by the context when there is one.
func NewRepositories(pool db.Querier) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(pool),
		BookRepository:         NewBookRepository(pool),
		BorrowedBookRepository: NewBorrowedBookRepository(pool),
		UserBookRepository:     NewUserBookRepository(pool),
		ForumRepository:        NewForumRepository(pool),
		ReviewRepository:       NewReviewRepository(pool),
		StatsRepository:        NewStatsRepository(pool),
	}
}
