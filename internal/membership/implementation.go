// internal/membership/implementation.go
package membership

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

const selectMembers = `
	SELECT m.id, m.name, m.email,
		COALESCE(m.phone, '') AS phone,
		COALESCE(m.address, '') AS address,
		m.join_date, m.created_at, m.updated_at,
		(SELECT COUNT(*) FROM borrowings br
			WHERE br.member_id = m.id AND br.returned_date IS NULL) AS books_borrowed
	FROM members m
`

// service implements the Service interface.
type service struct {
	db     *sqlx.DB
	tracer trace.Tracer
	now    func() time.Time
}

// NewService creates a new membership service instance.
func NewService(db *sqlx.DB) Service {
	return &service{
		db:     db,
		tracer: otel.Tracer("libraryweb/membership"),
		now:    time.Now,
	}
}

// ListMembers returns every member with their open-borrowing count.
func (s *service) ListMembers(ctx context.Context) (members []*Member, err error) {
	ctx, span := s.tracer.Start(ctx, "membership.ListMembers")
	defer func() { telemetry.End(span, err) }()

	members = []*Member{}
	if err := s.db.SelectContext(ctx, &members, selectMembers+` ORDER BY m.id`); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// SearchMembers matches query case-insensitively against name, email and phone.
func (s *service) SearchMembers(ctx context.Context, query string) (members []*Member, err error) {
	ctx, span := s.tracer.Start(ctx, "membership.SearchMembers",
		trace.WithAttributes(attribute.String("search.query", query)),
	)
	defer func() { telemetry.End(span, err) }()

	pattern := "%" + strings.ToLower(query) + "%"
	q := s.db.Rebind(selectMembers + `
		WHERE LOWER(m.name) LIKE ? OR LOWER(m.email) LIKE ? OR LOWER(COALESCE(m.phone, '')) LIKE ?
		ORDER BY m.id`)

	members = []*Member{}
	if err := s.db.SelectContext(ctx, &members, q, pattern, pattern, pattern); err != nil {
		return nil, fmt.Errorf("search members: %w", err)
	}
	return members, nil
}

// GetMember retrieves a member by their ID.
func (s *service) GetMember(ctx context.Context, id int64) (member *Member, err error) {
	ctx, span := s.tracer.Start(ctx, "membership.GetMember",
		trace.WithAttributes(attribute.Int64("member.id", id)),
	)
	defer func() { telemetry.End(span, err) }()

	member = &Member{}
	if err := s.db.GetContext(ctx, member, s.db.Rebind(selectMembers+` WHERE m.id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member %d: %w", id, err)
	}
	return member, nil
}

// AddMember registers a new member who joins today.
func (s *service) AddMember(ctx context.Context, in MemberInput) (member *Member, err error) {
	ctx, span := s.tracer.Start(ctx, "membership.AddMember")
	defer func() { telemetry.End(span, err) }()

	exists, err := s.EmailExists(ctx, in.Email, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	now := s.now()
	id, err := database.InsertID(ctx, s.db, `
		INSERT INTO members (name, email, phone, address, join_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Name, in.Email, in.Phone, in.Address, database.DateOf(now), now.UTC(), now.UTC(),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert member: %w", err)
	}

	return s.GetMember(ctx, id)
}

// UpdateMember replaces the editable fields of a member.
func (s *service) UpdateMember(ctx context.Context, id int64, in MemberInput) (err error) {
	ctx, span := s.tracer.Start(ctx, "membership.UpdateMember",
		trace.WithAttributes(attribute.Int64("member.id", id)),
	)
	defer func() { telemetry.End(span, err) }()

	exists, err := s.EmailExists(ctx, in.Email, id)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateEmail
	}

	query := s.db.Rebind(`
		UPDATE members
		SET name = ?, email = ?, phone = ?, address = ?, updated_at = ?
		WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, in.Name, in.Email, in.Phone, in.Address, s.now().UTC(), id); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update member %d: %w", id, err)
	}
	return nil
}

// DeleteMember removes a member; their borrowings cascade.
func (s *service) DeleteMember(ctx context.Context, id int64) (err error) {
	ctx, span := s.tracer.Start(ctx, "membership.DeleteMember",
		trace.WithAttributes(attribute.Int64("member.id", id)),
	)
	defer func() { telemetry.End(span, err) }()

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM members WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete member %d: %w", id, err)
	}
	return nil
}

// EmailExists reports whether another member already uses email, ignoring
// case. An excludeID of zero checks every member.
func (s *service) EmailExists(ctx context.Context, email string, excludeID int64) (exists bool, err error) {
	ctx, span := s.tracer.Start(ctx, "membership.EmailExists")
	defer func() { telemetry.End(span, err) }()

	query := s.db.Rebind(`SELECT EXISTS(SELECT 1 FROM members WHERE LOWER(email) = LOWER(?) AND id <> ?)`)
	if err := s.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}
