package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"libraryweb/internal/database"
	"libraryweb/internal/database/dbtest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestService(t *testing.T) (*service, *sqlx.DB) {
	t.Helper()
	db := dbtest.New(t)
	return NewService(db).(*service), db
}

func intPtr(n int) *int { return &n }

func addMember(t *testing.T, db *sqlx.DB, name, email string) int64 {
	t.Helper()
	id, err := database.InsertID(context.Background(), db,
		`INSERT INTO members (name, email, join_date) VALUES (?, ?, ?)`, name, email, database.DateOf(time.Now()))
	require.NoError(t, err)
	return id
}

func openBorrowing(t *testing.T, db *sqlx.DB, bookID, memberID int64, due time.Time) int64 {
	t.Helper()
	today := database.DateOf(time.Now())
	id, err := database.InsertID(context.Background(), db,
		`INSERT INTO borrowings (book_id, member_id, borrow_date, due_date) VALUES (?, ?, ?, ?)`,
		bookID, memberID, today, due)
	require.NoError(t, err)
	return id
}

func TestAddBookAppearsAvailable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	book, err := svc.AddBook(ctx, BookInput{Title: "Dune", Author: "Frank Herbert", Year: intPtr(1965), ISBN: " 111-1 ", Category: "Science Fiction"})
	require.NoError(t, err)

	assert.NotZero(t, book.ID)
	assert.Equal(t, "111-1", book.ISBN)
	assert.Equal(t, StatusAvailable, book.Status)
	assert.True(t, book.Available())
	assert.Nil(t, book.BorrowedBy)
	require.NotNil(t, book.Year)
	assert.Equal(t, 1965, *book.Year)
	assert.False(t, book.CreatedAt.IsZero())

	books, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestAddBookRequiresISBN(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddBook(context.Background(), BookInput{Title: "No ISBN", Author: "Anon", ISBN: "   "})
	assert.ErrorIs(t, err, ErrISBNRequired)
}

func TestAddBookRejectsDuplicateISBNBeforeWriting(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddBook(ctx, BookInput{Title: "First", Author: "A", ISBN: "42"})
	require.NoError(t, err)

	_, err = svc.AddBook(ctx, BookInput{Title: "Second", Author: "B", ISBN: "42"})
	assert.ErrorIs(t, err, ErrDuplicateISBN)

	books, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestUpdateBook(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.AddBook(ctx, BookInput{Title: "A", Author: "X", ISBN: "1"})
	require.NoError(t, err)
	b, err := svc.AddBook(ctx, BookInput{Title: "B", Author: "Y", ISBN: "2"})
	require.NoError(t, err)

	// Keeping its own ISBN is fine.
	require.NoError(t, svc.UpdateBook(ctx, a.ID, BookInput{Title: "A2", Author: "X2", ISBN: "1", Category: "History", Description: "d"}))

	got, err := svc.GetBook(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Title)
	assert.Equal(t, "X2", got.Author)
	assert.Equal(t, "History", got.Category)
	assert.Nil(t, got.Year)

	assert.ErrorIs(t, svc.UpdateBook(ctx, b.ID, BookInput{Title: "B", Author: "Y", ISBN: "1"}), ErrDuplicateISBN)
	assert.ErrorIs(t, svc.UpdateBook(ctx, b.ID, BookInput{Title: "B", Author: "Y"}), ErrISBNRequired)
}

func TestGetBookNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetBook(context.Background(), 999)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestDeleteBookCascadesToBorrowings(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	book, err := svc.AddBook(ctx, BookInput{Title: "Gone", Author: "Soon", ISBN: "9"})
	require.NoError(t, err)
	memberID := addMember(t, db, "Ann", "ann@example.com")
	openBorrowing(t, db, book.ID, memberID, database.DateOf(time.Now()).AddDate(0, 0, 14))

	require.NoError(t, svc.DeleteBook(ctx, book.ID))
	require.NoError(t, svc.DeleteBook(ctx, book.ID), "deleting twice is a no-op")

	var borrowings int
	require.NoError(t, db.Get(&borrowings, `SELECT COUNT(*) FROM borrowings`))
	assert.Zero(t, borrowings)

	_, err = svc.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestSearchBooksIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, in := range []BookInput{
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", ISBN: "1", Category: "Fantasy"},
		{Title: "Neuromancer", Author: "William Gibson", ISBN: "2", Category: "Cyberpunk"},
		{Title: "Cooking Basics", Author: "Hobbs", ISBN: "3", Category: "Food"},
	} {
		_, err := svc.AddBook(ctx, in)
		require.NoError(t, err)
	}

	titles := func(books []*Book) []string {
		out := make([]string, 0, len(books))
		for _, b := range books {
			out = append(out, b.Title)
		}
		return out
	}

	got, err := svc.SearchBooks(ctx, "HOBB")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"The Hobbit", "Cooking Basics"}, titles(got))

	got, err = svc.SearchBooks(ctx, "cyber")
	require.NoError(t, err)
	assert.Equal(t, []string{"Neuromancer"}, titles(got))

	got, err = svc.SearchBooks(ctx, "nothing like this")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestCategoriesAreDistinctAndSorted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i, cat := range []string{"Fiction", "", "History", "Fiction"} {
		_, err := svc.AddBook(ctx, BookInput{Title: "T", Author: "A", ISBN: string(rune('a' + i)), Category: cat})
		require.NoError(t, err)
	}

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fiction", "History"}, categories)
}

func TestBorrowedStatusAndBorrower(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	book, err := svc.AddBook(ctx, BookInput{Title: "Dune", Author: "Herbert", ISBN: "111-1"})
	require.NoError(t, err)
	memberID := addMember(t, db, "Maria", "maria@example.com")
	due := database.DateOf(time.Now()).AddDate(0, 0, 7)
	openBorrowing(t, db, book.ID, memberID, due)

	got, err := svc.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusBorrowed, got.Status)
	require.NotNil(t, got.BorrowedBy)
	assert.Equal(t, "Maria", *got.BorrowedBy)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, due.Format(time.DateOnly), got.DueDate.Format(time.DateOnly))

	available, err := svc.AvailableBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, available)
}

// Property: a book is Borrowed iff an open borrowing references it.
func TestStatusMatchesOpenBorrowings(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	memberID := addMember(t, db, "Prop", "prop@example.com")
	today := database.DateOf(time.Now())

	rapid.Check(t, func(rt *rapid.T) {
		_, err := db.Exec(`DELETE FROM books`)
		require.NoError(rt, err)

		n := rapid.IntRange(1, 8).Draw(rt, "books")
		open := make(map[int64]bool, n)
		for i := 0; i < n; i++ {
			book, err := svc.AddBook(ctx, BookInput{Title: "T", Author: "A", ISBN: rapid.StringMatching(`[0-9]{13}`).Draw(rt, "isbn")})
			if errors.Is(err, ErrDuplicateISBN) {
				continue
			}
			require.NoError(rt, err)

			switch rapid.IntRange(0, 2).Draw(rt, "state") {
			case 1:
				_, err = db.Exec(db.Rebind(`INSERT INTO borrowings (book_id, member_id, borrow_date, due_date) VALUES (?, ?, ?, ?)`),
					book.ID, memberID, today, today)
				require.NoError(rt, err)
				open[book.ID] = true
			case 2:
				_, err = db.Exec(db.Rebind(`INSERT INTO borrowings (book_id, member_id, borrow_date, due_date, returned_date) VALUES (?, ?, ?, ?, ?)`),
					book.ID, memberID, today, today, today)
				require.NoError(rt, err)
			}
		}

		books, err := svc.ListBooks(ctx)
		require.NoError(rt, err)
		for _, b := range books {
			if open[b.ID] {
				assert.Equal(rt, StatusBorrowed, b.Status)
			} else {
				assert.Equal(rt, StatusAvailable, b.Status)
			}
		}
	})
}
