package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/example/elearning-platform/internal/persistence"
)

var _ persistence.IdentityRepository = (*Store)(nil)
var _ persistence.RevocationRepository = (*Store)(nil)

// CreateIdentity stores credentials. Emails are stored lower-cased and are unique.
func (s *Store) CreateIdentity(ctx context.Context, identity persistence.Identity) error {
	if identity.ID == "" || identity.Email == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO identities (id, email, password_hash, full_name, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		identity.ID,
		strings.ToLower(identity.Email),
		identity.PasswordHash,
		identity.FullName,
		s.timeArg(identity.CreatedAt),
	)
	return mapError(err)
}

// GetIdentity loads credentials by id.
func (s *Store) GetIdentity(ctx context.Context, id string) (persistence.Identity, error) {
	return s.scanIdentity(ctx, `SELECT id, email, password_hash, full_name, created_at FROM identities WHERE id = ?`, id)
}

// GetIdentityByEmail loads credentials by case-insensitive email.
func (s *Store) GetIdentityByEmail(ctx context.Context, email string) (persistence.Identity, error) {
	return s.scanIdentity(ctx, `SELECT id, email, password_hash, full_name, created_at FROM identities WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) scanIdentity(ctx context.Context, query string, arg string) (persistence.Identity, error) {
	var identity persistence.Identity
	err := s.db.QueryRowContext(ctx, s.rebind(query), arg).Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.FullName,
		timeValue{&identity.CreatedAt},
	)
	if err != nil {
		return persistence.Identity{}, mapError(err)
	}
	return identity, nil
}

// MarkRevoked records a signed-out session. Repeated calls keep the latest expiry.
func (s *Store) MarkRevoked(ctx context.Context, sessionID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO revoked_sessions (session_id, expires_at) VALUES (?, ?)
		ON CONFLICT (session_id) DO UPDATE SET expires_at = excluded.expires_at`),
		sessionID, s.timeArg(expiresAt),
	)
	return mapError(err)
}

// IsRevoked reports whether the session was signed out.
func (s *Store) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM revoked_sessions WHERE session_id = ?`), sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return true, nil
}

// PurgeRevoked deletes entries whose tokens have expired anyway.
func (s *Store) PurgeRevoked(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM revoked_sessions WHERE expires_at < ?`), s.timeArg(before))
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}
