package storage

import (
	"context"

	"github.com/hailinhs/alumnisite/auth/users"
)

type SessionStorage interface {
	// LoadSession returns nil when nobody is signed in.
	LoadSession(ctx context.Context) (*users.User, error)
	SaveSession(ctx context.Context, user users.User) error
	ClearSession(ctx context.Context) error
}

// UserStorage holds the active roster, the pending registrations and the
// current session. Every Save* replaces the whole collection.
type UserStorage interface {
	SessionStorage

	ListUsers(ctx context.Context) ([]users.User, error)
	SaveUsers(ctx context.Context, list []users.User) error
	// SeedUsers writes list only if no roster has been stored yet.
	SeedUsers(ctx context.Context, list []users.User) (bool, error)

	ListPending(ctx context.Context) ([]users.User, error)
	SavePending(ctx context.Context, list []users.User) error
}
