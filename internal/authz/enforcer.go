// Package authz maps roles to permitted actions with a Casbin RBAC model.
package authz

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/example/elearning-platform/internal/application"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Enforcer implements application.Authorizer.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

var _ application.Authorizer = (*Enforcer)(nil)

// NewEnforcer loads the embedded model and role policy.
func NewEnforcer() (*Enforcer, error) {
	return NewEnforcerFromPolicy(embeddedPolicy)
}

// NewEnforcerFromPolicy loads the embedded model with the given CSV policy.
func NewEnforcerFromPolicy(policy string) (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("authz: load model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: create enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, policy); err != nil {
		return nil, err
	}
	return &Enforcer{enforcer: enforcer}, nil
}

// loadPolicy reads "p, sub, obj, act" and "g, member, role" lines.
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for n, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("authz: policy line %d: %w", n+1, err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("authz: policy line %d: %w", n+1, err)
			}
		default:
			return fmt.Errorf("authz: policy line %d: malformed rule %q", n+1, line)
		}
	}
	return nil
}

// Authorize reports whether role may perform action on resource.
func (e *Enforcer) Authorize(_ context.Context, role application.Role, resource, action string) (bool, error) {
	if role == "" {
		return false, nil
	}
	allowed, err := e.enforcer.Enforce(string(role), resource, action)
	if err != nil {
		return false, fmt.Errorf("authz: enforce: %w", err)
	}
	return allowed, nil
}
