// internal/membership/domain.go
package membership

import (
	"errors"
	"time"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Member represents a library member.
type Member struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	Phone         string    `json:"phone" db:"phone"`
	Address       string    `json:"address" db:"address"`
	JoinDate      time.Time `json:"join_date" db:"join_date"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
	BooksBorrowed int       `json:"books_borrowed" db:"books_borrowed"`
}

// MemberInput carries the editable fields of a member.
type MemberInput struct {
	Name    string `validate:"required,max=255"`
	Email   string `validate:"required,email,max=255"`
	Phone   string `validate:"max=20"`
	Address string
}
