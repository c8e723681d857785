package application

import (
	"context"
	"errors"
	"log/slog"
)

// Policy gates mutating operations on the caller's role.
type Policy struct {
	identity   IdentityProvider
	profiles   ProfileRepository
	authorizer Authorizer
	logger     *slog.Logger
}

// NewPolicy builds a Policy. A nil authorizer grants every action to admins only.
func NewPolicy(identity IdentityProvider, profiles ProfileRepository, authorizer Authorizer, logger *slog.Logger) *Policy {
	return &Policy{
		identity:   identity,
		profiles:   profiles,
		authorizer: authorizer,
		logger:     defaultLogger(logger),
	}
}

// Authorize resolves the caller's session and profile and checks that the
// profile's role may perform action on resource. A missing session yields a
// KindUnauthenticated error; a missing profile or a refused role yields
// KindForbidden. Reads are never routed through Authorize.
func (p *Policy) Authorize(ctx context.Context, caller Caller, resource, action string) (Session, error) {
	logger := serviceLogger(ctx, p.logger, "Policy", "Authorize", "resource", resource, "action", action)

	session, err := p.identity.Session(ctx, caller.Token)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			logger.WarnContext(ctx, "session lookup failed", "error", err)
		}
		return Session{}, unauthenticated(err)
	}

	profile, err := p.profiles.GetProfile(ctx, session.UserID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.WarnContext(ctx, "profile lookup failed", "error", err, "user_id", session.UserID)
		}
		return Session{}, forbidden(err)
	}

	allowed, err := roleAllows(ctx, p.authorizer, profile.Role, resource, action)
	if err != nil {
		return Session{}, unexpected("authorize %s %s: %w", resource, action, err)
	}
	if !allowed {
		logger.InfoContext(ctx, "role refused", "user_id", session.UserID, "role", string(profile.Role))
		return Session{}, forbidden(nil)
	}
	return session, nil
}

func roleAllows(ctx context.Context, authorizer Authorizer, role Role, resource, action string) (bool, error) {
	if authorizer == nil {
		return role == RoleAdmin, nil
	}
	return authorizer.Authorize(ctx, role, resource, action)
}
