package identity

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// Repository persists users. Implementations return ErrUserNotFound for a
// well-formed id that matches nothing and wrap apperr.ErrMalformedID for an
// id the store cannot parse.
type Repository interface {
	// Create assigns ID and timestamps. A duplicate email yields ErrEmailTaken.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id UserID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// ListByRole returns users newest first.
	ListByRole(ctx context.Context, role Role) ([]*User, error)
	// UpdateProfile writes Name, Phone and Specialization and refreshes
	// UpdatedAt.
	UpdateProfile(ctx context.Context, u *User) error
}
