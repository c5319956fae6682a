package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTIssuer mints and verifies stateless access tokens. Validity is decided
// by signature and expiry alone; revocation never applies here, which is
// exactly why refresh tokens are the stateful credential.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an HS512 token carrying subject with expiry now+ttl.
func (i *JWTIssuer) Issue(subject string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.secret)
}

// Verify checks signature and expiry and returns the subject. Expiry is
// reported distinctly; everything else collapses to ErrAccessTokenInvalid.
func (i *JWTIssuer) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrAccessTokenExpired
		}
		return "", ErrAccessTokenInvalid
	}
	if !parsed.Valid {
		return "", ErrAccessTokenInvalid
	}

	return claims.Subject, nil
}
