package limiter

import (
	"context"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PG tracks failed logins per (username, ip hash) in the login_attempts
// table and blocks the pair once maxFails failures land inside the window.
type PG struct {
	pool     pgxQuerier
	window   time.Duration
	maxFails int
	blockFor time.Duration
}

type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPG constructs a PostgreSQL-backed limiter over any querier,
// typically *pgxpool.Pool.
func NewPG(q pgxQuerier, window time.Duration, maxFails int, blockFor time.Duration) *PG {
	return &PG{pool: q, window: window, maxFails: maxFails, blockFor: blockFor}
}

// HashIP returns a stable hash of an IP string so raw addresses are never stored.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}

// Allow reports whether login is currently permitted and, if blocked, for how long.
func (l *PG) Allow(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM login_attempts WHERE username=$1 AND ip_hash=$2`
	var blockedUntil time.Time
	err := l.pool.QueryRow(ctx, q, username, ipHash).Scan(&blockedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if until := time.Until(blockedUntil); until > 0 {
		return false, until, nil
	}
	return true, 0, nil
}

// Success clears the failure counter after a successful login.
func (l *PG) Success(ctx context.Context, username string, ipHash []byte) error {
	const q = `DELETE FROM login_attempts WHERE username=$1 AND ip_hash=$2`
	_, err := l.pool.Exec(ctx, q, username, ipHash)
	return err
}

// Failure records a failed attempt. Failures older than the window restart
// the counter; reaching maxFails sets blocked_until in the same statement.
func (l *PG) Failure(ctx context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO login_attempts (username, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,1,'epoch',now())
ON CONFLICT (username, ip_hash) DO UPDATE
SET
  fail_count = CASE WHEN now() - login_attempts.updated_at > $3::interval
               THEN 1 ELSE login_attempts.fail_count + 1 END,
  blocked_until = CASE WHEN (CASE WHEN now() - login_attempts.updated_at > $3::interval
                        THEN 1 ELSE login_attempts.fail_count + 1 END) >= $4
                  THEN now() + $5::interval ELSE login_attempts.blocked_until END,
  updated_at = now()
RETURNING fail_count >= $4`
	var blocked bool
	if err := l.pool.QueryRow(ctx, q, username, ipHash, l.window, l.maxFails, l.blockFor).Scan(&blocked); err != nil {
		return false, 0, err
	}
	if blocked {
		return true, l.blockFor, nil
	}
	return false, 0, nil
}
