package service

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgcrypto "github.com/and161185/notes-keeper/internal/crypto"
	"github.com/and161185/notes-keeper/internal/errs"
	"github.com/and161185/notes-keeper/internal/limiter"
	"github.com/and161185/notes-keeper/internal/model"
	"github.com/and161185/notes-keeper/internal/repository"
	"github.com/gofrs/uuid/v5"
)

type fakeUsers struct {
	byName map[string]*model.User

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byName == nil {
		f.byName = map[string]*model.User{}
	}
	for _, existing := range f.byName {
		if existing.Username == u.Username || existing.Email == u.Email {
			return errs.ErrAlreadyExists
		}
	}
	cpy := *u
	f.byName[u.Username] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byName {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

func TestAuth_Register_Basics(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byName: map[string]*model.User{}}
	s := NewAuthService(users, []byte("k"), time.Minute, &fakeLimiter{allowOK: true})

	if _, err := s.Register(context.Background(), "", "", ""); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput on empty fields, got %v", err)
	}

	tok, err := s.Register(context.Background(), "alice", "alice@example.com", "pwd")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if tok.AccessToken == "" {
		t.Fatalf("want non-empty token")
	}

	u := users.byName["alice"]
	if u == nil {
		t.Fatalf("user not stored")
	}
	if string(u.PwdHash) == "pwd" {
		t.Fatalf("password stored in plaintext")
	}
	if !pkgcrypto.VerifyPassword([]byte("pwd"), u.SaltAuth, u.PwdHash) {
		t.Fatalf("stored hash does not verify")
	}
}

func TestAuth_Register_TokenResolvesToNewUser(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byName: map[string]*model.User{}}
	s := NewAuthService(users, []byte("k"), time.Minute, &fakeLimiter{allowOK: true})

	tok, err := s.Register(context.Background(), "bob", "bob@example.com", "pwd")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	id, err := s.VerifyToken(tok.AccessToken)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if id != users.byName["bob"].ID {
		t.Fatalf("token subject %s != created user %s", id, users.byName["bob"].ID)
	}
}

func TestAuth_Register_Duplicate(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byName: map[string]*model.User{}}
	s := NewAuthService(users, []byte("k"), time.Minute, &fakeLimiter{allowOK: true})

	if _, err := s.Register(context.Background(), "carol", "carol@example.com", "pwd"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := s.Register(context.Background(), "carol", "other@example.com", "pwd")
	if !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
	_, err = s.Register(context.Background(), "carol2", "carol@example.com", "pwd")
	if !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists on duplicate email, got %v", err)
	}
}

func TestAuth_Login_OKAndWrongPassword(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byName: map[string]*model.User{}}
	lim := &fakeLimiter{allowOK: true}
	s := NewAuthService(users, []byte("k"), time.Minute, lim)

	if _, err := s.Register(context.Background(), "dave", "dave@example.com", "secret"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tok, err := s.Login(context.Background(), "dave", "secret", "1.2.3.4")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	id, err := s.VerifyToken(tok.AccessToken)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if id != users.byName["dave"].ID {
		t.Fatalf("wrong subject")
	}
	if lim.successCalls != 1 {
		t.Fatalf("limiter success not recorded")
	}

	_, err = s.Login(context.Background(), "dave", "wrong", "1.2.3.4")
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	if lim.failureCalls != 1 {
		t.Fatalf("limiter failure not recorded")
	}
}

func TestAuth_Login_UnknownUserMaskedAsUnauthorized(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byName: map[string]*model.User{}}
	s := NewAuthService(users, []byte("k"), time.Minute, &fakeLimiter{allowOK: true})

	_, err := s.Login(context.Background(), "ghost", "whatever", "1.2.3.4")
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for unknown user, got %v", err)
	}
}

func TestAuth_Login_StorageErrorNotMasked(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{getErr: errors.New("pgx: connection refused")}
	lim := &fakeLimiter{allowOK: true}
	s := NewAuthService(users, []byte("k"), time.Minute, lim)

	_, err := s.Login(context.Background(), "dave", "secret", "1.2.3.4")
	if err == nil || errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want raw storage error, got %v", err)
	}
	if lim.failureCalls != 0 {
		t.Fatalf("storage error must not count as a failed attempt")
	}
}

func TestAuth_Login_RateLimited(t *testing.T) {
	t.Parallel()
	s := NewAuthService(&fakeUsers{}, []byte("k"), time.Minute, &fakeLimiter{allowOK: false})

	_, err := s.Login(context.Background(), "anyone", "pwd", "1.2.3.4")
	if !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
}

func TestAuth_VerifyToken_Invalid(t *testing.T) {
	t.Parallel()
	s := NewAuthService(&fakeUsers{}, []byte("k"), time.Minute, &fakeLimiter{allowOK: true})

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := s.VerifyToken(tok); !errors.Is(err, errs.ErrUnauthorized) {
			t.Fatalf("VerifyToken(%q): want ErrUnauthorized, got %v", tok, err)
		}
	}
}

func TestAuth_VerifyToken_Expired(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byName: map[string]*model.User{}}
	// negative TTL puts expiry well past the verifier's leeway
	s := NewAuthService(users, []byte("k"), -time.Hour, &fakeLimiter{allowOK: true})

	tok, err := s.Register(context.Background(), "eve", "eve@example.com", "pwd")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := s.VerifyToken(tok.AccessToken); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for expired token, got %v", err)
	}
}

func TestAuth_VerifyToken_WrongKey(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byName: map[string]*model.User{}}
	issuer := NewAuthService(users, []byte("key-one"), time.Minute, &fakeLimiter{allowOK: true})
	verifier := NewAuthService(users, []byte("key-two"), time.Minute, &fakeLimiter{allowOK: true})

	tok, err := issuer.Register(context.Background(), "frank", "frank@example.com", "pwd")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := verifier.VerifyToken(tok.AccessToken); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for wrong key, got %v", err)
	}
}
