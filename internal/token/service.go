package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avdeevdm/auth-service/internal/db"
	"github.com/avdeevdm/auth-service/internal/logging"
	"github.com/avdeevdm/auth-service/internal/security"
	"github.com/avdeevdm/auth-service/internal/user"
	"github.com/google/uuid"
)

// storeTimeout bounds every store round-trip; a hit surfaces as
// ErrStoreUnavailable so the caller can retry.
const storeTimeout = 5 * time.Second

// Store is the persistence surface of the lifecycle manager; *Repository
// satisfies it.
type Store interface {
	Create(ctx context.Context, rt *RefreshToken) error
	FindByValue(ctx context.Context, value string) (*RefreshToken, error)
	FindByValueForUpdate(ctx context.Context, value string) (*RefreshToken, error)
	DeleteByValue(ctx context.Context, value string) error
	MarkRevoked(ctx context.Context, value string) error
}

// UserSource resolves a token's owner when rotation mints the new access token.
type UserSource interface {
	FindByID(ctx context.Context, id int64) (*user.User, error)
}

// AccessIssuer mints the stateless access token paired with every refresh
// token; *JWTIssuer satisfies it.
type AccessIssuer interface {
	Issue(subject string) (string, error)
}

// Service is the refresh-token lifecycle manager. A record moves out of its
// usable state at most once: rotation deletes it, logout revokes it, expiry
// rejects it. All state lives in the store; nothing is cached across calls.
type Service struct {
	db         *sql.DB
	store      func(db.DBTX) Store
	users      UserSource
	issuer     AccessIssuer
	alerts     security.Sink
	log        logging.Logger
	refreshTTL time.Duration
	now        func() time.Time
}

func NewService(database *sql.DB, issuer AccessIssuer, users UserSource, alerts security.Sink, log logging.Logger, refreshTTL time.Duration) *Service {
	if alerts == nil {
		alerts = security.NoOpSink{}
	}
	return &Service{
		db:         database,
		store:      func(h db.DBTX) Store { return NewRepository(h) },
		users:      users,
		issuer:     issuer,
		alerts:     alerts,
		log:        log,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue mints a token pair for an authenticated user: a signed access token
// and a fresh opaque refresh value persisted with a full TTL.
func (s *Service) Issue(ctx context.Context, u *user.User) (*Pair, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	pair, err := s.mint(ctx, s.store(s.db), u)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return pair, nil
}

// Rotate redeems a presented refresh value. Exactly one of four things
// happens, decided under a row lock so concurrent presentations of the same
// value serialize and at most one rotation succeeds:
//
//   - unknown value: ErrInvalidToken
//   - revoked row: a critical security alert is emitted, then ErrTokenRevoked;
//     the row is left untouched
//   - expired row: ErrTokenExpired, informational log only
//   - usable row: the old row is deleted and a new one created for the same
//     user in the same transaction, and a fresh access token is minted
func (s *Service) Rotate(ctx context.Context, presented, clientIP string) (*Pair, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	var pair *Pair
	err := db.WithTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		st := s.store(tx)

		rec, err := st.FindByValueForUpdate(ctx, presented)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				s.log.Warn(ctx, "unknown refresh token presented", "ip", clientIP)
				return ErrInvalidToken
			}
			return err
		}

		if rec.Revoked {
			s.alerts.Emit(ctx, security.Event{
				Timestamp: s.now(),
				Type:      security.EventRevokedTokenReuse,
				Severity:  security.SeverityCritical,
				UserID:    rec.UserID,
				IP:        clientIP,
				Detail:    "revoked refresh token presented",
			})
			return ErrTokenRevoked
		}

		if !s.now().Before(rec.ExpiresAt) {
			s.log.Info(ctx, "expired refresh token presented", "user_id", rec.UserID)
			return ErrTokenExpired
		}

		if err := st.DeleteByValue(ctx, presented); err != nil {
			return err
		}

		owner, err := s.users.FindByID(ctx, rec.UserID)
		if err != nil {
			return fmt.Errorf("loading token owner: %w", err)
		}

		pair, err = s.mint(ctx, st, owner)
		return err
	})
	if err != nil {
		return nil, s.storeErr(err)
	}

	s.log.Info(ctx, "refresh token rotated")
	return pair, nil
}

// Revoke marks the presented value revoked. The row is kept so a later
// replay is detectable. Revoking an unknown or already-revoked value is a
// no-op, which makes logout idempotent.
func (s *Service) Revoke(ctx context.Context, presented string) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	if err := s.store(s.db).MarkRevoked(ctx, presented); err != nil {
		return s.storeErr(err)
	}
	return nil
}

func (s *Service) mint(ctx context.Context, st Store, u *user.User) (*Pair, error) {
	access, err := s.issuer.Issue(u.Email)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	value, err := GenerateRefreshValue()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	now := s.now()
	rec := &RefreshToken{
		ID:        uuid.New(),
		Token:     value,
		UserID:    u.ID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := st.Create(ctx, rec); err != nil {
		return nil, err
	}

	return &Pair{AccessToken: access, RefreshToken: value}, nil
}

func (s *Service) storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
