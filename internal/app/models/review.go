package models

import "time"

// Rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating of a catalog book
type Review struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"userId" db:"user_id"`
	BookID     int64     `json:"bookId" db:"book_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment" db:"comment"`
	DatePosted time.Time `json:"datePosted" db:"date_posted"`
}
