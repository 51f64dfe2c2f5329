package team

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned by Directory implementations when no user
// matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// User is the projection of an external identity this library needs:
// an opaque ID and the email invites are addressed to.
type User struct {
	ID    string
	Email string
}

// Directory resolves users in the host application's identity store. The
// library never owns user rows; it only references them by ID and email.
type Directory interface {
	UserByID(ctx context.Context, id string) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
}
