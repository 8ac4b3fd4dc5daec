package dto

// CreateBookRequest adds a book to the catalog
type CreateBookRequest struct {
	Title  string `json:"title" form:"title" binding:"required,max=255"`
	Author string `json:"author" form:"author" binding:"required,max=255"`
}

// BorrowBookRequest borrows a catalog book until DueDate (YYYY-MM-DD)
type BorrowBookRequest struct {
	DueDate string `json:"due_date" form:"due_date" binding:"required"`
}

// BookResponse is a catalog entry
type BookResponse struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Availability bool   `json:"availability"`
}

// BookListResponse is a page of the catalog
type BookListResponse struct {
	Books      []BookResponse `json:"books"`
	Pagination PaginationInfo `json:"pagination"`
}

// LoanResponse is a catalog loan with its book
type LoanResponse struct {
	ID         int64   `json:"id"`
	BookID     int64   `json:"bookId"`
	BookTitle  string  `json:"bookTitle"`
	Author     string  `json:"author"`
	BorrowDate string  `json:"borrowDate"`
	DueDate    string  `json:"dueDate"`
	ReturnDate *string `json:"returnDate"`
}

// CreateReviewRequest rates a book
type CreateReviewRequest struct {
	Rating  int    `json:"rating" form:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" form:"comment" binding:"required"`
}

// ReviewResponse is a review with its author's username
type ReviewResponse struct {
	ID         int64  `json:"id"`
	BookID     int64  `json:"bookId"`
	UserID     int64  `json:"userId"`
	Username   string `json:"username"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	DatePosted string `json:"datePosted"`
}
