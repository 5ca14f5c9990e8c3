// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"libraryweb/internal/database"
	"libraryweb/internal/telemetry"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// selectBooks joins each book with its open borrowing, if any, to derive
// status, borrower and due date.
const selectBooks = `
	SELECT b.id, b.title, b.author, b.year,
		COALESCE(b.isbn, '') AS isbn,
		COALESCE(b.category, '') AS category,
		COALESCE(b.description, '') AS description,
		b.created_at, b.updated_at,
		CASE WHEN br.id IS NOT NULL THEN 'Borrowed' ELSE 'Available' END AS status,
		m.name AS borrowed_by,
		br.due_date
	FROM books b
	LEFT JOIN borrowings br ON br.book_id = b.id AND br.returned_date IS NULL
	LEFT JOIN members m ON m.id = br.member_id
`

// service implements the Service interface.
type service struct {
	db     *sqlx.DB
	tracer trace.Tracer
	now    func() time.Time
}

// NewService creates a new catalog service instance.
func NewService(db *sqlx.DB) Service {
	return &service{
		db:     db,
		tracer: otel.Tracer("libraryweb/catalog"),
		now:    time.Now,
	}
}

// ListBooks returns every book with its derived status.
func (s *service) ListBooks(ctx context.Context) (books []*Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.ListBooks")
	defer func() { telemetry.End(span, err) }()

	books = []*Book{}
	if err := s.db.SelectContext(ctx, &books, selectBooks+` ORDER BY b.id`); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// AvailableBooks returns the books nobody currently holds.
func (s *service) AvailableBooks(ctx context.Context) (books []*Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.AvailableBooks")
	defer func() { telemetry.End(span, err) }()

	books = []*Book{}
	if err := s.db.SelectContext(ctx, &books, selectBooks+` WHERE br.id IS NULL ORDER BY b.title, b.id`); err != nil {
		return nil, fmt.Errorf("list available books: %w", err)
	}
	return books, nil
}

// SearchBooks matches query case-insensitively against title, author and category.
func (s *service) SearchBooks(ctx context.Context, query string) (books []*Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.SearchBooks",
		trace.WithAttributes(attribute.String("search.query", query)),
	)
	defer func() { telemetry.End(span, err) }()

	pattern := "%" + strings.ToLower(query) + "%"
	q := s.db.Rebind(selectBooks + `
		WHERE LOWER(b.title) LIKE ? OR LOWER(b.author) LIKE ? OR LOWER(COALESCE(b.category, '')) LIKE ?
		ORDER BY b.id`)

	books = []*Book{}
	if err := s.db.SelectContext(ctx, &books, q, pattern, pattern, pattern); err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	span.SetAttributes(attribute.Int("search.results", len(books)))
	return books, nil
}

// GetBook retrieves a book by its ID.
func (s *service) GetBook(ctx context.Context, id int64) (book *Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.GetBook",
		trace.WithAttributes(attribute.Int64("book.id", id)),
	)
	defer func() { telemetry.End(span, err) }()

	book = &Book{}
	if err := s.db.GetContext(ctx, book, s.db.Rebind(selectBooks+` WHERE b.id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	return book, nil
}

// AddBook validates the ISBN and inserts a new book.
func (s *service) AddBook(ctx context.Context, in BookInput) (book *Book, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.AddBook",
		trace.WithAttributes(attribute.String("book.isbn", in.ISBN)),
	)
	defer func() { telemetry.End(span, err) }()

	in.ISBN = strings.TrimSpace(in.ISBN)
	if in.ISBN == "" {
		return nil, ErrISBNRequired
	}
	exists, err := s.ISBNExists(ctx, in.ISBN, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateISBN
	}

	now := s.now().UTC()
	id, err := database.InsertID(ctx, s.db, `
		INSERT INTO books (title, author, year, isbn, category, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Title, in.Author, in.Year, in.ISBN, in.Category, in.Description, now, now,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateISBN
		}
		return nil, fmt.Errorf("insert book: %w", err)
	}

	return s.GetBook(ctx, id)
}

// UpdateBook replaces the editable fields of a book.
func (s *service) UpdateBook(ctx context.Context, id int64, in BookInput) (err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.UpdateBook",
		trace.WithAttributes(attribute.Int64("book.id", id)),
	)
	defer func() { telemetry.End(span, err) }()

	in.ISBN = strings.TrimSpace(in.ISBN)
	if in.ISBN == "" {
		return ErrISBNRequired
	}
	exists, err := s.ISBNExists(ctx, in.ISBN, id)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateISBN
	}

	query := s.db.Rebind(`
		UPDATE books
		SET title = ?, author = ?, year = ?, isbn = ?, category = ?, description = ?, updated_at = ?
		WHERE id = ?`)
	_, err = s.db.ExecContext(ctx, query,
		in.Title, in.Author, in.Year, in.ISBN, in.Category, in.Description, s.now().UTC(), id,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateISBN
		}
		return fmt.Errorf("update book %d: %w", id, err)
	}
	return nil
}

// DeleteBook removes a book; its borrowings cascade.
func (s *service) DeleteBook(ctx context.Context, id int64) (err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.DeleteBook",
		trace.WithAttributes(attribute.Int64("book.id", id)),
	)
	defer func() { telemetry.End(span, err) }()

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM books WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	return nil
}

// Categories lists the distinct non-empty categories in use.
func (s *service) Categories(ctx context.Context) (categories []string, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Categories")
	defer func() { telemetry.End(span, err) }()

	categories = []string{}
	err = s.db.SelectContext(ctx, &categories, `
		SELECT DISTINCT category FROM books
		WHERE category IS NOT NULL AND category <> ''
		ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ISBNExists reports whether another book already uses isbn. An excludeID of
// zero checks every book.
func (s *service) ISBNExists(ctx context.Context, isbn string, excludeID int64) (exists bool, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.ISBNExists")
	defer func() { telemetry.End(span, err) }()

	query := s.db.Rebind(`SELECT EXISTS(SELECT 1 FROM books WHERE isbn = ? AND id <> ?)`)
	if err := s.db.GetContext(ctx, &exists, query, isbn, excludeID); err != nil {
		return false, fmt.Errorf("check isbn: %w", err)
	}
	return exists, nil
}
