package models

import "time"

// UserBook is a self-service borrow record: a book the user borrowed
// somewhere and tracks here. Dates are calendar dates in UTC.
type UserBook struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"userId" db:"user_id"`
	BookTitle  string     `json:"bookTitle" db:"book_title"`
	Author     string     `json:"author" db:"author"`
	BorrowDate time.Time  `json:"borrowDate" db:"borrow_date"`
	DueDate    time.Time  `json:"dueDate" db:"due_date"`
	ReturnDate *time.Time `json:"returnDate,omitempty" db:"return_date"` // set iff IsReturned
	IsReturned bool       `json:"isReturned" db:"is_returned"`
	Notes      *string    `json:"notes,omitempty" db:"notes"`
}

// IsOverdue reports whether the record is still open after its due date
func (ub *UserBook) IsOverdue(today time.Time) bool {
	return !ub.IsReturned && today.After(ub.DueDate)
}

// MarkReturned closes the record on returnDate. It reports false when the
// record was already returned, in which case nothing changes.
func (ub *UserBook) MarkReturned(returnDate time.Time) bool {
	if ub.IsReturned {
		return false
	}
	ub.IsReturned = true
	ub.ReturnDate = &returnDate
	return true
}
