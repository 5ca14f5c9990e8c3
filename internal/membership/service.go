// internal/membership/service.go
package membership

import "context"

// Service defines the interface for the membership service.
type Service interface {
	ListMembers(ctx context.Context) ([]*Member, error)
	SearchMembers(ctx context.Context, query string) ([]*Member, error)
	GetMember(ctx context.Context, id int64) (*Member, error)
	AddMember(ctx context.Context, in MemberInput) (*Member, error)
	UpdateMember(ctx context.Context, id int64, in MemberInput) error
	DeleteMember(ctx context.Context, id int64) error
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
}
