package dto

// CreatePostRequest is the multipart form of POST /forum/posts. The optional
// photo is read from the "photo" file field.
type CreatePostRequest struct {
	Title   string `form:"title" json:"title" binding:"required,max=200"`
	Content string `form:"content" json:"content" binding:"required"`
}

// CreateCommentRequest adds a comment to a post
type CreateCommentRequest struct {
	Content string `form:"content" json:"content" binding:"required"`
}

// CommentResponse is a forum comment
type CommentResponse struct {
	ID         int64  `json:"id"`
	PostID     int64  `json:"postId"`
	UserID     int64  `json:"userId"`
	Username   string `json:"username"`
	Content    string `json:"content"`
	DatePosted string `json:"datePosted"`
}

// PostResponse is a forum post with its comments, oldest comment first
type PostResponse struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"userId"`
	Username   string            `json:"username"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	DatePosted string            `json:"datePosted"`
	PhotoURL   *string           `json:"photoUrl,omitempty"`
	Comments   []CommentResponse `json:"comments"`
}

// PostListResponse is a page of the forum, newest post first
type PostListResponse struct {
	Posts      []PostResponse `json:"posts"`
	Pagination PaginationInfo `json:"pagination"`
}
