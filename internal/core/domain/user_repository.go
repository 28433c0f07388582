package domain

import "context"

// UserRepository is the abstraction for any kind of database intended to
// persist Users.
type UserRepository interface {
	// GetOrCreateUser returns the user with the given pubkey, creating a
	// fresh record if none exists.
	GetOrCreateUser(ctx context.Context, pubkey string) (*User, error)
	// GetUser returns the user with the given pubkey, or ErrUserNotFound.
	GetUser(ctx context.Context, pubkey string) (*User, error)
	// UpdateUser allows to commit multiple changes to the same user in a
	// transactional way.
	UpdateUser(
		ctx context.Context,
		pubkey string,
		updateFn func(u *User) (*User, error),
	) error
}
