package token

import "errors"

var (
	// ErrNotFound is returned by store lookups when no row matches.
	ErrNotFound = errors.New("refresh token not found")

	// ErrInvalidToken means the presented value matches no stored token.
	ErrInvalidToken = errors.New("invalid refresh token")

	// ErrTokenExpired means the token exists but its expiry has passed.
	ErrTokenExpired = errors.New("refresh token expired")

	// ErrTokenRevoked means a consumed token was presented again; the
	// lifecycle manager raises a security alert before returning it.
	ErrTokenRevoked = errors.New("refresh token revoked")

	// ErrStoreUnavailable wraps store timeouts; the operation is retryable.
	ErrStoreUnavailable = errors.New("token store unavailable")

	// ErrAccessTokenExpired is returned by Verify for a well-signed but
	// expired access token.
	ErrAccessTokenExpired = errors.New("access token expired")

	// ErrAccessTokenInvalid covers malformed and badly signed access tokens.
	ErrAccessTokenInvalid = errors.New("access token invalid")
)
