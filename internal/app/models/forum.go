package models

import "time"

// ForumPost is a forum post. Deleting it deletes its comments.
type ForumPost struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"userId" db:"user_id"`
	Title         string    `json:"title" db:"title"`
	Content       string    `json:"content" db:"content"`
	DatePosted    time.Time `json:"datePosted" db:"date_posted"`
	PhotoFilename *string   `json:"photoFilename,omitempty" db:"photo_filename"`
}

// ForumComment is a comment on a ForumPost
type ForumComment struct {
	ID         int64     `json:"id" db:"id"`
	PostID     int64     `json:"postId" db:"post_id"`
	UserID     int64     `json:"userId" db:"user_id"`
	Content    string    `json:"content" db:"content"`
	DatePosted time.Time `json:"datePosted" db:"date_posted"`
}
