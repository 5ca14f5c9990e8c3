// internal/circulation/service.go
package circulation

import "context"

// Service defines the interface for the circulation service.
type Service interface {
	Borrow(ctx context.Context, bookID, memberID int64, days int) (*Borrowing, error)
	Return(ctx context.Context, bookID, memberID int64) (bool, error)
	ListBorrowings(ctx context.Context) ([]*Borrowing, error)
	RecentBorrowings(ctx context.Context, n int) ([]*Borrowing, error)
	ListOverdue(ctx context.Context) ([]*OverdueBorrowing, error)
	LoanDays() int
}
