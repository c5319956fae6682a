package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avdeevdm/auth-service/internal/logging"
	"github.com/avdeevdm/auth-service/internal/token"
	"github.com/avdeevdm/auth-service/internal/user"
	"github.com/gin-gonic/gin"
)

const refreshCookie = "refresh_token"

// unauthorizedMsg is deliberately the same for invalid, expired, and revoked
// refresh tokens; the distinction is logged internally, never sent back.
const unauthorizedMsg = "unauthorized, please re-authenticate"

// Users is the credential side of the handler; *user.Service satisfies it.
type Users interface {
	Register(ctx context.Context, username, email, password string) (*user.User, error)
	Authenticate(ctx context.Context, identifier, password string) (*user.User, error)
	Lookup(ctx context.Context, email string) (*user.User, error)
}

// Tokens is the lifecycle side; *token.Service satisfies it.
type Tokens interface {
	Issue(ctx context.Context, u *user.User) (*token.Pair, error)
	Rotate(ctx context.Context, presented, clientIP string) (*token.Pair, error)
	Revoke(ctx context.Context, presented string) error
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Handler struct {
	users      Users
	tokens     Tokens
	refreshTTL time.Duration
	log        logging.Logger
}

func NewHandler(users Users, tokens Tokens, refreshTTL time.Duration, log logging.Logger) *Handler {
	return &Handler{users: users, tokens: tokens, refreshTTL: refreshTTL, log: log}
}

// RegisterRoutes mounts the auth endpoints on the router.
func (h *Handler) RegisterRoutes(router *gin.Engine, verifier AccessVerifier) {
	grp := router.Group("/auth")
	grp.POST("/register", h.Register)
	grp.POST("/login", h.Login)
	grp.POST("/refresh", h.Refresh)
	grp.POST("/logout", h.Logout)
	grp.GET("/me", RequireAuth(verifier), h.Me)
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		h.log.Error(c.Request.Context(), "registration failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	c.JSON(http.StatusCreated, userResponse{ID: u.ID, Username: u.Username, Email: u.Email})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	u, err := h.users.Authenticate(ctx, req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			h.log.Warn(ctx, "failed login attempt", "identifier", req.Identifier, "ip", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect username or password"})
			return
		}
		h.log.Error(ctx, "login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	pair, err := h.tokens.Issue(ctx, u)
	if err != nil {
		h.log.Error(ctx, "token issuance failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	h.log.Info(ctx, "successful login", "username", u.Username, "ip", c.ClientIP())
	h.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "token_type": "bearer"})
}

func (h *Handler) Refresh(c *gin.Context) {
	presented, err := c.Cookie(refreshCookie)
	if err != nil {
		h.clearRefreshCookie(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": unauthorizedMsg})
		return
	}

	ctx := c.Request.Context()
	pair, err := h.tokens.Rotate(ctx, presented, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, token.ErrInvalidToken),
			errors.Is(err, token.ErrTokenExpired),
			errors.Is(err, token.ErrTokenRevoked):
			h.clearRefreshCookie(c)
			c.JSON(http.StatusUnauthorized, gin.H{"error": unauthorizedMsg})
		case errors.Is(err, token.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable, retry"})
		default:
			h.log.Error(ctx, "refresh failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		}
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "token_type": "bearer"})
}

func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if presented, err := c.Cookie(refreshCookie); err == nil {
		if err := h.tokens.Revoke(ctx, presented); err != nil {
			h.log.Error(ctx, "logout revocation failed", "error", err)
			h.clearRefreshCookie(c)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable, retry"})
			return
		}
		h.log.Info(ctx, "user logged out, token revoked")
	}

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func (h *Handler) Me(c *gin.Context) {
	email := c.GetString(subjectKey)

	u, err := h.users.Lookup(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, userResponse{ID: u.ID, Username: u.Username, Email: u.Email})
}

// The refresh token travels only in this HTTP-only cookie, never in a
// response body or URL.
func (h *Handler) setRefreshCookie(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, value, int(h.refreshTTL.Seconds()), "/", "", false, true)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
}
