package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// GuardOutcome is what the route guard wants done with a request.
type GuardOutcome int

const (
	GuardAllow GuardOutcome = iota
	GuardRedirectLogin
	GuardRedirectHome
)

func (o GuardOutcome) String() string {
	switch o {
	case GuardRedirectLogin:
		return "redirect_login"
	case GuardRedirectHome:
		return "redirect_home"
	default:
		return "allow"
	}
}

// GuardDecision is the outcome for one path, with the area that matched.
// Area is empty for unguarded paths.
type GuardDecision struct {
	Outcome GuardOutcome
	Area    string
}

// nestedOnly leaves the prefix itself public and guards only the pages below it.
type guardRule struct {
	prefix     string
	area       string
	adminOnly  bool
	nestedOnly bool
}

// Prefix rules in evaluation order. A prefix matches whole path segments, so
// "/admin" guards "/admin/x" but not "/administrator".
var guardRules = []guardRule{
	{prefix: "/admin", area: "admin", adminOnly: true},
	{prefix: "/student", area: "student"},
	{prefix: "/courses", area: "courses", nestedOnly: true},
	{prefix: "/dashboard", area: "dashboard"},
}

func (r guardRule) matches(path string) bool {
	if strings.HasPrefix(path, r.prefix+"/") {
		return true
	}
	return path == r.prefix && !r.nestedOnly
}

// RouteGuard decides, from the path alone, whether a page request may proceed.
type RouteGuard struct {
	identity   IdentityProvider
	profiles   ProfileRepository
	authorizer Authorizer
	logger     *slog.Logger
}

// NewRouteGuard builds a RouteGuard. A nil authorizer admits only admins to the admin area.
func NewRouteGuard(identity IdentityProvider, profiles ProfileRepository, authorizer Authorizer, logger *slog.Logger) *RouteGuard {
	return &RouteGuard{
		identity:   identity,
		profiles:   profiles,
		authorizer: authorizer,
		logger:     defaultLogger(logger),
	}
}

// Evaluate applies the prefix rules to path. Lookup failures never surface as
// errors: a failed session lookup counts as no session and a failed profile
// lookup counts as not admin.
func (g *RouteGuard) Evaluate(ctx context.Context, path string, caller Caller) GuardDecision {
	rule, ok := matchGuardRule(path)
	if !ok {
		return GuardDecision{Outcome: GuardAllow}
	}

	logger := serviceLogger(ctx, g.logger, "RouteGuard", "Evaluate", "area", rule.area)

	session, err := g.identity.Session(ctx, caller.Token)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			logger.WarnContext(ctx, "session lookup failed", "error", err)
		}
		return GuardDecision{Outcome: GuardRedirectLogin, Area: rule.area}
	}
	if !rule.adminOnly {
		return GuardDecision{Outcome: GuardAllow, Area: rule.area}
	}

	profile, err := g.profiles.GetProfile(ctx, session.UserID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.WarnContext(ctx, "profile lookup failed", "error", err, "user_id", session.UserID)
		}
		return GuardDecision{Outcome: GuardRedirectHome, Area: rule.area}
	}

	allowed, err := roleAllows(ctx, g.authorizer, profile.Role, ResourceAdminArea, ActionEnter)
	if err != nil {
		logger.WarnContext(ctx, "authorization failed", "error", err, "user_id", session.UserID)
		allowed = false
	}
	if !allowed {
		return GuardDecision{Outcome: GuardRedirectHome, Area: rule.area}
	}
	return GuardDecision{Outcome: GuardAllow, Area: rule.area}
}

func matchGuardRule(path string) (guardRule, bool) {
	for _, rule := range guardRules {
		if rule.matches(path) {
			return rule, true
		}
	}
	return guardRule{}, false
}
