// internal/circulation/implementation.go
package circulation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"libraryweb/internal/database"
	"libraryweb/internal/telemetry"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// DefaultLoanDays is used when no loan period is configured.
const DefaultLoanDays = 14

const selectBorrowings = `
	SELECT br.id, br.book_id, br.member_id, br.borrow_date, br.due_date, br.returned_date,
		b.title, b.author, m.name AS member_name
	FROM borrowings br
	JOIN books b ON b.id = br.book_id
	JOIN members m ON m.id = br.member_id
`

const selectOverdue = `
	SELECT br.id, br.book_id, br.member_id, br.borrow_date, br.due_date, br.returned_date,
		b.title, b.author, m.name AS member_name, m.email, COALESCE(m.phone, '') AS phone
	FROM borrowings br
	JOIN books b ON b.id = br.book_id
	JOIN members m ON m.id = br.member_id
	WHERE br.returned_date IS NULL AND br.due_date < ?
	ORDER BY br.due_date, br.id
`

// service implements the Service interface.
type service struct {
	db       *sqlx.DB
	loanDays int
	tracer   trace.Tracer
	borrowed metric.Int64Counter
	returned metric.Int64Counter
	now      func() time.Time
}

// NewService creates a new circulation service instance. A non-positive
// loanDays falls back to DefaultLoanDays.
func NewService(db *sqlx.DB, loanDays int) Service {
	if loanDays <= 0 {
		loanDays = DefaultLoanDays
	}

	meter := otel.Meter("libraryweb/circulation")
	borrowed, err := meter.Int64Counter("library.borrowings.created",
		metric.WithDescription("Borrowings created"))
	if err != nil {
		log.Printf("circulation: borrowings counter: %v", err)
		borrowed = noop.Int64Counter{}
	}
	returned, err := meter.Int64Counter("library.borrowings.returned",
		metric.WithDescription("Borrowings returned"))
	if err != nil {
		log.Printf("circulation: returns counter: %v", err)
		returned = noop.Int64Counter{}
	}

	return &service{
		db:       db,
		loanDays: loanDays,
		tracer:   otel.Tracer("libraryweb/circulation"),
		borrowed: borrowed,
		returned: returned,
		now:      time.Now,
	}
}

func (s *service) LoanDays() int { return s.loanDays }

// Borrow lends a book to a member for days days, starting today.
func (s *service) Borrow(ctx context.Context, bookID, memberID int64, days int) (borrowing *Borrowing, err error) {
	ctx, span := s.tracer.Start(ctx, "circulation.Borrow",
		trace.WithAttributes(
			attribute.Int64("book.id", bookID),
			attribute.Int64("member.id", memberID),
		),
	)
	defer func() { telemetry.End(span, err) }()

	if days <= 0 {
		days = s.loanDays
	}
	now := s.now()
	today := database.DateOf(now)
	due := today.AddDate(0, 0, days)

	tx, err := s.db.BeginTxx(ctx, database.TxOptions(s.db.DriverName()))
	if err != nil {
		return nil, fmt.Errorf("begin borrow: %w", err)
	}
	defer tx.Rollback()

	// The book lock is the first statement so every later read sees borrowings
	// committed by whoever held the lock before us.
	var lockedID int64
	lock := tx.Rebind(`SELECT id FROM books WHERE id = ?` + database.ForUpdate(s.db.DriverName()))
	if err := tx.GetContext(ctx, &lockedID, lock, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("lock book %d: %w", bookID, err)
	}

	var memberExists bool
	if err := tx.GetContext(ctx, &memberExists, tx.Rebind(`SELECT EXISTS(SELECT 1 FROM members WHERE id = ?)`), memberID); err != nil {
		return nil, fmt.Errorf("check member %d: %w", memberID, err)
	}
	if !memberExists {
		return nil, ErrMemberNotFound
	}

	var open bool
	if err := tx.GetContext(ctx, &open, tx.Rebind(`SELECT EXISTS(SELECT 1 FROM borrowings WHERE book_id = ? AND returned_date IS NULL)`), bookID); err != nil {
		return nil, fmt.Errorf("check open borrowing: %w", err)
	}
	if open {
		return nil, ErrBookUnavailable
	}

	id, err := database.InsertID(ctx, tx, `
		INSERT INTO borrowings (book_id, member_id, borrow_date, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		bookID, memberID, today, due, now.UTC(), now.UTC(),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrBookUnavailable
		}
		return nil, fmt.Errorf("insert borrowing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrBookUnavailable
		}
		return nil, fmt.Errorf("commit borrow: %w", err)
	}
	s.borrowed.Add(ctx, 1)

	return s.getBorrowing(ctx, id, today)
}

// Return closes the open borrowing of bookID by memberID. It reports
// whether a borrowing was closed; no match is not an error.
func (s *service) Return(ctx context.Context, bookID, memberID int64) (returned bool, err error) {
	ctx, span := s.tracer.Start(ctx, "circulation.Return",
		trace.WithAttributes(
			attribute.Int64("book.id", bookID),
			attribute.Int64("member.id", memberID),
		),
	)
	defer func() { telemetry.End(span, err) }()

	now := s.now()
	query := s.db.Rebind(`
		UPDATE borrowings
		SET returned_date = ?, updated_at = ?
		WHERE book_id = ? AND member_id = ? AND returned_date IS NULL`)
	res, err := s.db.ExecContext(ctx, query, database.DateOf(now), now.UTC(), bookID, memberID)
	if err != nil {
		return false, fmt.Errorf("return book %d: %w", bookID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("return book %d: %w", bookID, err)
	}
	if n > 0 {
		s.returned.Add(ctx, n)
	}
	return n > 0, nil
}

// ListBorrowings returns every borrowing, newest first.
func (s *service) ListBorrowings(ctx context.Context) (borrowings []*Borrowing, err error) {
	ctx, span := s.tracer.Start(ctx, "circulation.ListBorrowings")
	defer func() { telemetry.End(span, err) }()

	return s.selectBorrowings(ctx, selectBorrowings+` ORDER BY br.borrow_date DESC, br.id DESC`)
}

// RecentBorrowings returns the n newest borrowings.
func (s *service) RecentBorrowings(ctx context.Context, n int) (borrowings []*Borrowing, err error) {
	ctx, span := s.tracer.Start(ctx, "circulation.RecentBorrowings",
		trace.WithAttributes(attribute.Int("limit", n)),
	)
	defer func() { telemetry.End(span, err) }()

	return s.selectBorrowings(ctx, selectBorrowings+` ORDER BY br.borrow_date DESC, br.id DESC LIMIT ?`, n)
}

// ListOverdue returns open borrowings whose due date has passed, most
// overdue first.
func (s *service) ListOverdue(ctx context.Context) (overdue []*OverdueBorrowing, err error) {
	ctx, span := s.tracer.Start(ctx, "circulation.ListOverdue")
	defer func() { telemetry.End(span, err) }()

	today := database.DateOf(s.now())
	overdue = []*OverdueBorrowing{}
	if err := s.db.SelectContext(ctx, &overdue, s.db.Rebind(selectOverdue), today); err != nil {
		return nil, fmt.Errorf("list overdue: %w", err)
	}
	for _, o := range overdue {
		o.annotate(today)
		o.DaysOverdue = daysBetween(database.DateOf(o.DueDate), today)
	}
	return overdue, nil
}

func (s *service) selectBorrowings(ctx context.Context, query string, args ...interface{}) ([]*Borrowing, error) {
	borrowings := []*Borrowing{}
	if err := s.db.SelectContext(ctx, &borrowings, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list borrowings: %w", err)
	}
	today := database.DateOf(s.now())
	for _, b := range borrowings {
		b.annotate(today)
	}
	return borrowings, nil
}

func (s *service) getBorrowing(ctx context.Context, id int64, today time.Time) (*Borrowing, error) {
	b := &Borrowing{}
	if err := s.db.GetContext(ctx, b, s.db.Rebind(selectBorrowings+` WHERE br.id = ?`), id); err != nil {
		return nil, fmt.Errorf("get borrowing %d: %w", id, err)
	}
	b.annotate(today)
	return b, nil
}
