package token

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is one outstanding session grant. A row is usable iff it is
// not revoked and not past expiry; it leaves that state at most once —
// deleted by rotation, marked revoked by logout, or rejected at expiry.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    int64
	Token     string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Pair is what a successful login or rotation hands back: a short-lived
// access token for the response body and a refresh value for the cookie.
type Pair struct {
	AccessToken  string
	RefreshToken string
}
