// Package service contains application services for authentication and notes.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgcrypto "github.com/and161185/notes-keeper/internal/crypto"
	"github.com/and161185/notes-keeper/internal/errs"
	"github.com/and161185/notes-keeper/internal/limiter"
	"github.com/and161185/notes-keeper/internal/model"
	"github.com/and161185/notes-keeper/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// AuthService defines authentication operations.
type AuthService interface {
	// Register creates a new account and returns a token for immediate login.
	Register(ctx context.Context, username, email, password string) (model.Tokens, error)
	// Login applies rate limiting and authenticates the user.
	Login(ctx context.Context, username, password, ip string) (model.Tokens, error)
	// VerifyToken checks signature and expiry and returns the subject user ID.
	VerifyToken(token string) (uuid.UUID, error)
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim}
}

// Register creates a new user record with a per-user salt and returns a fresh token.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (model.Tokens, error) {
	if username == "" || email == "" || password == "" {
		return model.Tokens{}, fmt.Errorf("%w: empty username/email/password", errs.ErrInvalidInput)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.Tokens{}, err
	}
	saltAuth, err := pkgcrypto.RandBytes(16)
	if err != nil {
		return model.Tokens{}, err
	}

	u := &model.User{
		ID:       uid,
		Username: username,
		Email:    email,
		PwdHash:  pkgcrypto.HashPassword([]byte(password), saltAuth),
		SaltAuth: saltAuth,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.Tokens{}, err
	}
	return s.issueToken(uid)
}

// Login authenticates with rate limiting by (username, ip). The password
// hash is always computed, so an unknown username costs the same as a
// wrong password.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password, ip string) (model.Tokens, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return model.Tokens{}, err
	}
	if !allowed {
		return model.Tokens{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, err
	}

	var ok bool
	if err != nil {
		ok = pkgcrypto.DummyVerify([]byte(password))
	} else {
		ok = pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash)
	}
	if !ok {
		if blocked, _, ferr := s.lim.Failure(ctx, username, ipHash); ferr == nil && blocked {
			return model.Tokens{}, errs.ErrRateLimited
		}
		// unknown usernames are masked as unauthorized to hide account existence
		return model.Tokens{}, errs.ErrUnauthorized
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, username, ipHash)

	return s.issueToken(u.ID)
}

// VerifyToken parses and validates an HS256 token and returns its subject.
func (s *AuthServiceImpl) VerifyToken(token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, fmt.Errorf("%w: invalid token", errs.ErrUnauthorized)
	}

	v := jwt.NewValidator(jwt.WithLeeway(30 * time.Second))
	if err := v.Validate(&claims); err != nil {
		return uuid.Nil, fmt.Errorf("%w: token expired or not valid yet", errs.ErrUnauthorized)
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized)
	}
	return id, nil
}

// issueToken creates a signed HS256 JWT for the given subject.
func (s *AuthServiceImpl) issueToken(userID uuid.UUID) (model.Tokens, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}
