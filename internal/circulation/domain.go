// internal/circulation/domain.go
package circulation

import (
	"errors"
	"time"
)

const (
	StatusActive   = "Active"
	StatusReturned = "Returned"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrBookUnavailable = errors.New("book is already borrowed")
)

// Borrowing represents a book lent to a member.
type Borrowing struct {
	ID           int64      `json:"id" db:"id"`
	BookID       int64      `json:"book_id" db:"book_id"`
	MemberID     int64      `json:"member_id" db:"member_id"`
	BorrowDate   time.Time  `json:"borrow_date" db:"borrow_date"`
	DueDate      time.Time  `json:"due_date" db:"due_date"`
	ReturnedDate *time.Time `json:"returned_date,omitempty" db:"returned_date"`
	Title        string     `json:"title" db:"title"`
	Author       string     `json:"author" db:"author"`
	MemberName   string     `json:"member_name" db:"member_name"`

	Status  string `json:"status" db:"-"`
	Overdue bool   `json:"overdue" db:"-"`
}

// Open reports whether the book has not been returned yet.
func (b *Borrowing) Open() bool {
	return b.ReturnedDate == nil
}

// annotate fills the derived fields as of today.
func (b *Borrowing) annotate(today time.Time) {
	if b.Open() {
		b.Status = StatusActive
	} else {
		b.Status = StatusReturned
	}
	b.Overdue = b.Open() && b.DueDate.Before(today)
}

// OverdueBorrowing is an open borrowing past its due date, with the
// member's contact details.
type OverdueBorrowing struct {
	Borrowing
	MemberEmail string `json:"member_email" db:"email"`
	MemberPhone string `json:"member_phone" db:"phone"`
	DaysOverdue int    `json:"days_overdue" db:"-"`
}

// daysBetween counts calendar days from a to b, both normalized dates.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
