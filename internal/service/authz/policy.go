package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/repositories"
	"lingoclass/internal/domain/services"
)

// RBAC with domains. A "*" domain, object or action in a policy matches
// anything. Subjects are "teacher:{id}" or "role:{name}".
const policyModel = `
[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub, r.dom) && (r.dom == p.dom || p.dom == "*") && (r.obj == p.obj || p.obj == "*") && (r.act == p.act || p.act == "*")
`

// ErrPolicyNotLoaded is returned by Check before the first Reload.
var ErrPolicyNotLoaded = errors.New("policy not loaded")

// rolePolicies are the fixed grants of each role.
var rolePolicies = [][]string{
	{roleSubject(models.RoleOrgOwner), "*", "*", "*"},
}

// CasbinPolicy is a PolicyStore backed by a casbin enforcer built from
// memberships and grants in the database.
type CasbinPolicy struct {
	members repositories.MembershipRepository
	grants  repositories.PermissionRepository
	logger  *slog.Logger

	mu       sync.RWMutex
	enforcer *casbin.Enforcer
}

// NewCasbinPolicy creates a policy store. Call Reload before use.
func NewCasbinPolicy(members repositories.MembershipRepository, grants repositories.PermissionRepository, logger *slog.Logger) *CasbinPolicy {
	return &CasbinPolicy{
		members: members,
		grants:  grants,
		logger:  logger,
	}
}

var _ services.PolicyStore = (*CasbinPolicy)(nil)

// Check reports whether the teacher holds resource/action in domain.
func (p *CasbinPolicy) Check(ctx context.Context, teacherID int64, domain, resource, action string) (bool, error) {
	p.mu.RLock()
	e := p.enforcer
	p.mu.RUnlock()

	if e == nil {
		return false, ErrPolicyNotLoaded
	}
	return e.Enforce(teacherSubject(teacherID), domain, resource, action)
}

// Reload rebuilds the enforcer from storage and swaps it in. On error the
// previous enforcer stays active.
func (p *CasbinPolicy) Reload(ctx context.Context) error {
	memberships, err := p.members.ListActiveOrganizationMemberships(ctx)
	if err != nil {
		return fmt.Errorf("load memberships: %w", err)
	}
	grants, err := p.grants.ListGrants(ctx)
	if err != nil {
		return fmt.Errorf("load grants: %w", err)
	}

	e, err := BuildEnforcer(memberships, grants)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.enforcer = e
	p.mu.Unlock()

	p.logger.Info("policies reloaded",
		"memberships", len(memberships),
		"grants", len(grants),
	)
	return nil
}

// BuildEnforcer creates an in-memory enforcer holding the role policies,
// one role binding per membership and one policy per grant.
func BuildEnforcer(memberships []models.TeacherOrganization, grants []models.PermissionGrant) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("parse policy model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	if _, err := e.AddPolicies(rolePolicies); err != nil {
		return nil, fmt.Errorf("add role policies: %w", err)
	}

	policies := make([][]string, 0, len(grants))
	for _, g := range grants {
		policies = append(policies, []string{
			teacherSubject(g.TeacherID),
			OrganizationDomain(g.OrganizationID),
			g.Resource,
			g.Action,
		})
	}
	if len(policies) > 0 {
		if _, err := e.AddPolicies(policies); err != nil {
			return nil, fmt.Errorf("add grants: %w", err)
		}
	}

	bindings := make([][]string, 0, len(memberships))
	for _, mb := range memberships {
		if !mb.IsActive {
			continue
		}
		bindings = append(bindings, []string{
			teacherSubject(mb.TeacherID),
			roleSubject(mb.Role),
			OrganizationDomain(mb.OrganizationID),
		})
	}
	if len(bindings) > 0 {
		if _, err := e.AddGroupingPolicies(bindings); err != nil {
			return nil, fmt.Errorf("add role bindings: %w", err)
		}
	}

	return e, nil
}

func teacherSubject(id int64) string {
	return fmt.Sprintf("teacher:%d", id)
}

func roleSubject(role string) string {
	return "role:" + role
}
