// internal/dashboard/domain.go
package dashboard

// Stats summarizes the library as of one moment.
type Stats struct {
	TotalBooks     int `json:"total_books" db:"total_books"`
	TotalMembers   int `json:"total_members" db:"total_members"`
	BooksBorrowed  int `json:"books_borrowed" db:"books_borrowed"`
	AvailableBooks int `json:"available_books" db:"-"`
	OverdueBooks   int `json:"overdue_books" db:"overdue_books"`
}
