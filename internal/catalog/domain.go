// internal/catalog/domain.go
package catalog

import (
	"errors"
	"time"
)

// Availability as derived from open borrowings.
const (
	StatusAvailable = "Available"
	StatusBorrowed  = "Borrowed"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrISBNRequired  = errors.New("isbn is required")
	ErrDuplicateISBN = errors.New("isbn already exists")
)

// Book represents a title in the library catalog together with its current
// availability.
type Book struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Author      string    `json:"author" db:"author"`
	Year        *int      `json:"year" db:"year"`
	ISBN        string    `json:"isbn" db:"isbn"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Status     string     `json:"status" db:"status"`
	BorrowedBy *string    `json:"borrowed_by" db:"borrowed_by"`
	DueDate    *time.Time `json:"due_date" db:"due_date"`
}

// Available reports whether no open borrowing references the book.
func (b *Book) Available() bool {
	return b.Status != StatusBorrowed
}

// BookInput carries the editable fields of a book.
type BookInput struct {
	Title       string `validate:"required,max=255"`
	Author      string `validate:"required,max=255"`
	Year        *int   `validate:"omitempty,gte=0,lte=9999"`
	ISBN        string `validate:"max=20"`
	Category    string `validate:"max=100"`
	Description string
}
