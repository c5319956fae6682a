package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avdeevdm/auth-service/internal/logging"
	"github.com/avdeevdm/auth-service/internal/token"
	"github.com/avdeevdm/auth-service/internal/user"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	registerOut *user.User
	registerErr error
	authOut     *user.User
	authErr     error
	lookupOut   *user.User
	lookupErr   error
}

func (f *fakeUsers) Register(context.Context, string, string, string) (*user.User, error) {
	return f.registerOut, f.registerErr
}

func (f *fakeUsers) Authenticate(context.Context, string, string) (*user.User, error) {
	return f.authOut, f.authErr
}

func (f *fakeUsers) Lookup(context.Context, string) (*user.User, error) {
	return f.lookupOut, f.lookupErr
}

type fakeTokens struct {
	issueOut  *token.Pair
	issueErr  error
	rotateOut *token.Pair
	rotateErr error
	revokeErr error
	rotated   []string
	revoked   []string
}

func (f *fakeTokens) Issue(context.Context, *user.User) (*token.Pair, error) {
	return f.issueOut, f.issueErr
}

func (f *fakeTokens) Rotate(_ context.Context, presented, _ string) (*token.Pair, error) {
	f.rotated = append(f.rotated, presented)
	return f.rotateOut, f.rotateErr
}

func (f *fakeTokens) Revoke(_ context.Context, presented string) error {
	f.revoked = append(f.revoked, presented)
	return f.revokeErr
}

func newRouter(t *testing.T, users Users, tokens Tokens) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(users, tokens, 7*24*time.Hour, logging.Nop())
	router := gin.New()
	h.RegisterRoutes(router, token.NewJWTIssuer("secret", time.Minute))
	return router
}

func doJSON(router *gin.Engine, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func refreshCookieFrom(t *testing.T, resp *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range resp.Result().Cookies() {
		if c.Name == refreshCookie {
			return c
		}
	}
	t.Fatal("no refresh_token cookie in response")
	return nil
}

// --- register ---

func TestRegister_Created(t *testing.T) {
	users := &fakeUsers{registerOut: &user.User{ID: 1, Username: "alice", Email: "alice@x.com"}}
	router := newRouter(t, users, &fakeTokens{})

	resp := doJSON(router, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"alice@x.com","password":"password123"}`, nil)

	assert.Equal(t, http.StatusCreated, resp.Code)
	var body userResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body.ID)
	assert.Equal(t, "alice@x.com", body.Email)
}

func TestRegister_EmailTaken(t *testing.T) {
	users := &fakeUsers{registerErr: user.ErrEmailTaken}
	router := newRouter(t, users, &fakeTokens{})

	resp := doJSON(router, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"alice@x.com","password":"password123"}`, nil)

	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestRegister_InvalidPayload(t *testing.T) {
	router := newRouter(t, &fakeUsers{}, &fakeTokens{})

	// password below minimum length
	resp := doJSON(router, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"alice@x.com","password":"short"}`, nil)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

// --- login ---

func TestLogin_SetsCookieAndReturnsAccessToken(t *testing.T) {
	users := &fakeUsers{authOut: &user.User{ID: 1, Username: "alice", Email: "alice@x.com"}}
	tokens := &fakeTokens{issueOut: &token.Pair{AccessToken: "jwt-abc", RefreshToken: "opaque-xyz"}}
	router := newRouter(t, users, tokens)

	resp := doJSON(router, http.MethodPost, "/auth/login",
		`{"identifier":"alice","password":"password123"}`, nil)

	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "jwt-abc", body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])

	// the refresh value travels only in the cookie, never in the body
	assert.NotContains(t, resp.Body.String(), "opaque-xyz")

	cookie := refreshCookieFrom(t, resp)
	assert.Equal(t, "opaque-xyz", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), cookie.MaxAge)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	users := &fakeUsers{authErr: user.ErrInvalidCredentials}
	router := newRouter(t, users, &fakeTokens{})

	resp := doJSON(router, http.MethodPost, "/auth/login",
		`{"identifier":"alice","password":"wrongpass"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Empty(t, resp.Result().Cookies())
}

// --- refresh ---

func TestRefresh_MissingCookie(t *testing.T) {
	router := newRouter(t, &fakeUsers{}, &fakeTokens{})

	resp := doJSON(router, http.MethodPost, "/auth/refresh", "", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRefresh_RotatesCookie(t *testing.T) {
	tokens := &fakeTokens{rotateOut: &token.Pair{AccessToken: "jwt-new", RefreshToken: "opaque-new"}}
	router := newRouter(t, &fakeUsers{}, tokens)

	resp := doJSON(router, http.MethodPost, "/auth/refresh", "",
		&http.Cookie{Name: refreshCookie, Value: "opaque-old"})

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"opaque-old"}, tokens.rotated)

	cookie := refreshCookieFrom(t, resp)
	assert.Equal(t, "opaque-new", cookie.Value)
}

func TestRefresh_UniformUnauthorized(t *testing.T) {
	// invalid, expired, and revoked must be indistinguishable to the client
	var bodies []string
	for _, rotateErr := range []error{token.ErrInvalidToken, token.ErrTokenExpired, token.ErrTokenRevoked} {
		tokens := &fakeTokens{rotateErr: rotateErr}
		router := newRouter(t, &fakeUsers{}, tokens)

		resp := doJSON(router, http.MethodPost, "/auth/refresh", "",
			&http.Cookie{Name: refreshCookie, Value: "stale"})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		bodies = append(bodies, resp.Body.String())

		cookie := refreshCookieFrom(t, resp)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[1], bodies[2])
}

func TestRefresh_StoreUnavailable(t *testing.T) {
	tokens := &fakeTokens{rotateErr: token.ErrStoreUnavailable}
	router := newRouter(t, &fakeUsers{}, tokens)

	resp := doJSON(router, http.MethodPost, "/auth/refresh", "",
		&http.Cookie{Name: refreshCookie, Value: "tok"})

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

// --- logout ---

func TestLogout_RevokesAndClearsCookie(t *testing.T) {
	tokens := &fakeTokens{}
	router := newRouter(t, &fakeUsers{}, tokens)

	resp := doJSON(router, http.MethodPost, "/auth/logout", "",
		&http.Cookie{Name: refreshCookie, Value: "opaque-xyz"})

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"opaque-xyz"}, tokens.revoked)

	cookie := refreshCookieFrom(t, resp)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestLogout_WithoutCookieStillSucceeds(t *testing.T) {
	tokens := &fakeTokens{}
	router := newRouter(t, &fakeUsers{}, tokens)

	resp := doJSON(router, http.MethodPost, "/auth/logout", "", nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, tokens.revoked)
}

// --- me ---

func TestMe_RequiresBearer(t *testing.T) {
	router := newRouter(t, &fakeUsers{}, &fakeTokens{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestMe_ReturnsCurrentUser(t *testing.T) {
	users := &fakeUsers{lookupOut: &user.User{ID: 1, Username: "alice", Email: "alice@x.com"}}
	router := newRouter(t, users, &fakeTokens{})

	issuer := token.NewJWTIssuer("secret", time.Minute)
	signed, err := issuer.Issue("alice@x.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var body userResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "alice", body.Username)
}

func TestMe_RejectsBadToken(t *testing.T) {
	router := newRouter(t, &fakeUsers{}, &fakeTokens{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
