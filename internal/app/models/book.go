package models

import "time"

// Book is an entry of the library catalog
type Book struct {
	ID           int64  `json:"id" db:"id"`
	Title        string `json:"title" db:"title"`
	Author       string `json:"author" db:"author"`
	Availability bool   `json:"availability" db:"availability"`
}

// BorrowedBook is a loan of a catalog book. ReturnDate is nil while the loan is open.
type BorrowedBook struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"userId" db:"user_id"`
	BookID     int64      `json:"bookId" db:"book_id"`
	BorrowDate time.Time  `json:"borrowDate" db:"borrow_date"`
	DueDate    time.Time  `json:"dueDate" db:"due_date"`
	ReturnDate *time.Time `json:"returnDate,omitempty" db:"return_date"`
}

// IsOpen reports whether the book has not been returned yet
func (b *BorrowedBook) IsOpen() bool {
	return b.ReturnDate == nil
}
