package membership

import (
	"context"
	"testing"
	"time"

	"libraryweb/internal/database"
	"libraryweb/internal/database/dbtest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*service, *sqlx.DB) {
	t.Helper()
	db := dbtest.New(t)
	return NewService(db).(*service), db
}

func TestAddMemberJoinsToday(t *testing.T) {
	svc, _ := newTestService(t)
	fixed := time.Date(2024, time.March, 9, 15, 30, 0, 0, time.Local)
	svc.now = func() time.Time { return fixed }

	m, err := svc.AddMember(context.Background(), MemberInput{Name: "Ada", Email: "ada@example.com", Phone: "555"})
	require.NoError(t, err)

	assert.NotZero(t, m.ID)
	assert.Equal(t, "Ada", m.Name)
	assert.Equal(t, "555", m.Phone)
	assert.Empty(t, m.Address)
	assert.Equal(t, "2024-03-09", m.JoinDate.Format(time.DateOnly))
	assert.Zero(t, m.BooksBorrowed)
}

func TestAddMemberRejectsDuplicateEmailIgnoringCase(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddMember(ctx, MemberInput{Name: "A", Email: "same@example.com"})
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, MemberInput{Name: "B", Email: "SAME@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	members, err := svc.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestUpdateMember(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.AddMember(ctx, MemberInput{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	b, err := svc.AddMember(ctx, MemberInput{Name: "B", Email: "b@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateMember(ctx, a.ID, MemberInput{Name: "A2", Email: "a@example.com", Address: "1 Main St"}))

	got, err := svc.GetMember(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Name)
	assert.Equal(t, "1 Main St", got.Address)
	assert.Equal(t, a.JoinDate, got.JoinDate)

	assert.ErrorIs(t, svc.UpdateMember(ctx, b.ID, MemberInput{Name: "B", Email: "a@example.com"}), ErrDuplicateEmail)
}

func TestGetMemberNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetMember(context.Background(), 404)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestSearchMembers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, in := range []MemberInput{
		{Name: "Alice Smith", Email: "alice@example.com", Phone: "555-0101"},
		{Name: "Bob Jones", Email: "bob@library.org", Phone: "555-0202"},
	} {
		_, err := svc.AddMember(ctx, in)
		require.NoError(t, err)
	}

	got, err := svc.SearchMembers(ctx, "SMITH")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice Smith", got[0].Name)

	got, err = svc.SearchMembers(ctx, "library.org")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bob Jones", got[0].Name)

	got, err = svc.SearchMembers(ctx, "0202")
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.SearchMembers(ctx, "555")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBooksBorrowedCountsOpenBorrowingsOnly(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	m, err := svc.AddMember(ctx, MemberInput{Name: "Reader", Email: "reader@example.com"})
	require.NoError(t, err)

	today := database.DateOf(time.Now())
	for i, returned := range []bool{false, false, true} {
		bookID, err := database.InsertID(ctx, db, `INSERT INTO books (title, author, isbn) VALUES (?, ?, ?)`,
			"T", "A", string(rune('a'+i)))
		require.NoError(t, err)

		var ret interface{}
		if returned {
			ret = today
		}
		_, err = db.Exec(db.Rebind(`INSERT INTO borrowings (book_id, member_id, borrow_date, due_date, returned_date) VALUES (?, ?, ?, ?, ?)`),
			bookID, m.ID, today, today, ret)
		require.NoError(t, err)
	}

	got, err := svc.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.BooksBorrowed)

	require.NoError(t, svc.DeleteMember(ctx, m.ID))
	var borrowings int
	require.NoError(t, db.Get(&borrowings, `SELECT COUNT(*) FROM borrowings`))
	assert.Zero(t, borrowings)
}

func TestEmailExistsExcludesSelf(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	m, err := svc.AddMember(ctx, MemberInput{Name: "Solo", Email: "solo@example.com"})
	require.NoError(t, err)

	exists, err := svc.EmailExists(ctx, "Solo@Example.com", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.EmailExists(ctx, "solo@example.com", m.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}
