// Package identity is the built-in identity provider: argon2id credentials,
// HS256 session tokens and server-side revocation on sign-out.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/elearning-platform/internal/application"
	"github.com/example/elearning-platform/internal/logging"
	"github.com/example/elearning-platform/internal/persistence"
)

// Messages returned to clients verbatim.
var (
	ErrEmailInvalid       = errors.New("Unable to validate email address: invalid format")
	ErrPasswordTooShort   = errors.New("Password should be at least 6 characters")
	ErrAlreadyRegistered  = errors.New("User already registered")
	ErrAuthSessionMissing = errors.New("Auth session missing!")
)

const minPasswordLength = 6

// Config configures a Provider.
type Config struct {
	Secret     []byte
	Issuer     string
	SessionTTL time.Duration
	HashParams HashParams
	Now        func() time.Time
	NewID      func() string
	Logger     *slog.Logger
}

// Provider implements application.IdentityProvider.
type Provider struct {
	credentials persistence.IdentityRepository
	revocations persistence.RevocationRepository
	tokens      *TokenIssuer
	params      HashParams
	now         func() time.Time
	newID       func() string
	logger      *slog.Logger
}

var _ application.IdentityProvider = (*Provider)(nil)

// NewProvider builds a Provider. Secret must be non-empty.
func NewProvider(credentials persistence.IdentityRepository, revocations persistence.RevocationRepository, cfg Config) (*Provider, error) {
	if credentials == nil || revocations == nil {
		return nil, errors.New("identity: credential and revocation stores are required")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("identity: secret is required")
	}
	if cfg.HashParams == (HashParams{}) {
		cfg.HashParams = DefaultHashParams
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Provider{
		credentials: credentials,
		revocations: revocations,
		tokens:      NewTokenIssuer(cfg.Secret, cfg.Issuer, cfg.SessionTTL),
		params:      cfg.HashParams,
		now:         cfg.Now,
		newID:       cfg.NewID,
		logger:      cfg.Logger,
	}, nil
}

func (p *Provider) log(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger.With("component", "identity")
	}
	return p.logger.With("component", "identity")
}

// SignUp registers credentials for email.
func (p *Provider) SignUp(ctx context.Context, email, password, fullName string) (application.Identity, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return application.Identity{}, err
	}
	if len(password) < minPasswordLength {
		return application.Identity{}, ErrPasswordTooShort
	}

	hash, err := HashPassword(password, p.params)
	if err != nil {
		return application.Identity{}, err
	}

	record := persistence.Identity{
		ID:           p.newID(),
		Email:        normalized,
		PasswordHash: hash,
		FullName:     fullName,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.credentials.CreateIdentity(ctx, record); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return application.Identity{}, ErrAlreadyRegistered
		}
		return application.Identity{}, fmt.Errorf("identity: create: %w", err)
	}

	return application.Identity{
		ID:        record.ID,
		Email:     record.Email,
		FullName:  record.FullName,
		CreatedAt: record.CreatedAt,
	}, nil
}

// SignIn checks credentials and opens a new session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (application.Session, error) {
	record, err := p.credentials.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return application.Session{}, fmt.Errorf("identity: unknown email: %w", application.ErrInvalidCredentials)
		}
		return application.Session{}, fmt.Errorf("identity: lookup: %w", err)
	}

	if err := VerifyPassword(record.PasswordHash, password); err != nil {
		if !errors.Is(err, errPasswordMismatch) {
			p.log(ctx).WarnContext(ctx, "stored hash unreadable", "user_id", record.ID, "error", err)
		}
		return application.Session{}, fmt.Errorf("identity: %w", application.ErrInvalidCredentials)
	}

	now := p.now().UTC()
	sessionID := p.newID()
	token, expiresAt, err := p.tokens.Issue(sessionID, record.ID, record.Email, now)
	if err != nil {
		return application.Session{}, err
	}

	return application.Session{
		ID:          sessionID,
		UserID:      record.ID,
		Email:       record.Email,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

// SignOut revokes the session behind token until it would have expired. A
// session that is already signed out counts as missing.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrAuthSessionMissing
	}
	claims, err := p.tokens.Parse(token, p.now())
	if err != nil {
		return ErrAuthSessionMissing
	}
	revoked, err := p.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("identity: revocation lookup: %w", err)
	}
	if revoked {
		return ErrAuthSessionMissing
	}
	if err := p.revocations.MarkRevoked(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("identity: revoke: %w", err)
	}
	return nil
}

// Session resolves token to its live session.
func (p *Provider) Session(ctx context.Context, token string) (application.Session, error) {
	if strings.TrimSpace(token) == "" {
		return application.Session{}, application.ErrNoSession
	}
	claims, err := p.tokens.Parse(token, p.now())
	if err != nil {
		return application.Session{}, fmt.Errorf("%w: %v", application.ErrNoSession, err)
	}

	revoked, err := p.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return application.Session{}, fmt.Errorf("identity: revocation lookup: %w", err)
	}
	if revoked {
		return application.Session{}, fmt.Errorf("%w: signed out", application.ErrNoSession)
	}

	return application.Session{
		ID:          claims.ID,
		UserID:      claims.Subject,
		Email:       claims.Email,
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		return "", ErrEmailInvalid
	}
	return strings.ToLower(addr.Address), nil
}
