package dto

// StatsResponse carries the home page counters
type StatsResponse struct {
	UsersCount      int64          `json:"usersCount"`
	BooksCount      int64          `json:"booksCount"`
	ActiveBorrowers int64          `json:"activeBorrowers"`
	ForumPostsCount int64          `json:"forumPostsCount"`
	AvailableBooks  []BookResponse `json:"availableBooks"`
}
