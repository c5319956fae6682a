package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// subjectKey is where RequireAuth stores the verified token subject (the
// user's email) in the request context.
const subjectKey = "subject"

// AccessVerifier checks a signed access token and returns its subject;
// *token.JWTIssuer satisfies it.
type AccessVerifier interface {
	Verify(tokenString string) (string, error)
}

// RequireAuth guards a route with a bearer access token. Validation is
// stateless: signature and expiry only, no store lookup.
func RequireAuth(verifier AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		const prefix = "Bearer "

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		subject, err := verifier.Verify(strings.TrimPrefix(header, prefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired access token"})
			return
		}

		c.Set(subjectKey, subject)
		c.Next()
	}
}
