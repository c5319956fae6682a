package user

import "errors"

var (
	// ErrNotFound is returned by repository lookups when no user matches.
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken is returned on registration when the username or email
	// collides with an existing account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown identifier and wrong
	// password; callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
