package dto

// CreateBorrowRecordRequest is the body of POST /borrowed-books. DueDate is
// kept as text so the service can report a malformed date itself.
type CreateBorrowRecordRequest struct {
	Title   string  `json:"title" form:"title" binding:"required,max=255"`
	Author  string  `json:"author" form:"author" binding:"required,max=255"`
	DueDate string  `json:"due_date" form:"due_date" binding:"required"`
	Notes   *string `json:"notes,omitempty" form:"notes"`
}

// BorrowRecordResponse is a self-service borrow record. Dates use YYYY-MM-DD.
type BorrowRecordResponse struct {
	ID         int64   `json:"id"`
	BookTitle  string  `json:"bookTitle"`
	Author     string  `json:"author"`
	BorrowDate string  `json:"borrowDate"`
	DueDate    string  `json:"dueDate"`
	ReturnDate *string `json:"returnDate"`
	IsReturned bool    `json:"isReturned"`
	IsOverdue  bool    `json:"isOverdue"`
	Notes      *string `json:"notes,omitempty"`
}
