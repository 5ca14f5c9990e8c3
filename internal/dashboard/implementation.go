// internal/dashboard/implementation.go
package dashboard

import (
	"context"
	"fmt"
	"time"

	"libraryweb/internal/database"
	"libraryweb/internal/telemetry"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// statsQuery reads every count in one statement so they agree with each other.
const statsQuery = `
	SELECT
		(SELECT COUNT(*) FROM books) AS total_books,
		(SELECT COUNT(*) FROM members) AS total_members,
		(SELECT COUNT(*) FROM borrowings WHERE returned_date IS NULL) AS books_borrowed,
		(SELECT COUNT(*) FROM borrowings WHERE returned_date IS NULL AND due_date < ?) AS overdue_books
`

type service struct {
	db     *sqlx.DB
	tracer trace.Tracer
	now    func() time.Time
}

// NewService creates a new dashboard service instance.
func NewService(db *sqlx.DB) Service {
	return &service{
		db:     db,
		tracer: otel.Tracer("libraryweb/dashboard"),
		now:    time.Now,
	}
}

// Stats computes the dashboard counters.
func (s *service) Stats(ctx context.Context) (stats *Stats, err error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.Stats")
	defer func() { telemetry.End(span, err) }()

	stats = &Stats{}
	if err := s.db.GetContext(ctx, stats, s.db.Rebind(statsQuery), database.DateOf(s.now())); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	stats.AvailableBooks = stats.TotalBooks - stats.BooksBorrowed
	return stats, nil
}
