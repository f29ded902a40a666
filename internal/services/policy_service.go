package services

import (
	"fmt"
	"strings"

	"github.com/cuido/cuidosvc/domain"
)

// PolicyServiceImpl administers route permissions. Roles are given by name
// (PATIENT, caregiver, role_ADMIN) and stored under their role_ subject.
// *casbin.Enforcer satisfies domain.CasbinEnforcer as is.
type PolicyServiceImpl struct {
	enforcer domain.CasbinEnforcer
}

func NewPolicyService(enforcer domain.CasbinEnforcer) *PolicyServiceImpl {
	return &PolicyServiceImpl{enforcer: enforcer}
}

// AddPolicy grants role the action (a method regex) on resource and persists
// the policy table.
func (p *PolicyServiceImpl) AddPolicy(role, resource, action string) error {
	sub, err := subjectFor(role)
	if err != nil {
		return err
	}
	if _, err := p.enforcer.AddPolicy(sub, resource, action); err != nil {
		return fmt.Errorf("add policy: %w", err)
	}
	return p.enforcer.SavePolicy()
}

func (p *PolicyServiceImpl) RemovePolicy(role, resource, action string) error {
	sub, err := subjectFor(role)
	if err != nil {
		return err
	}
	if _, err := p.enforcer.RemovePolicy(sub, resource, action); err != nil {
		return fmt.Errorf("remove policy: %w", err)
	}
	return p.enforcer.SavePolicy()
}

func (p *PolicyServiceImpl) CheckPermission(role, resource, action string) (bool, error) {
	sub, err := subjectFor(role)
	if err != nil {
		return false, nil
	}
	return p.enforcer.Enforce(sub, resource, action)
}

// GetPolicies lists every rule, or nil when the adapter fails.
func (p *PolicyServiceImpl) GetPolicies() [][]string {
	policies, err := p.enforcer.GetPolicy()
	if err != nil {
		return nil
	}
	return policies
}

func subjectFor(role string) (string, error) {
	r := domain.Role(strings.ToUpper(strings.TrimPrefix(role, "role_")))
	if !r.Valid() {
		return "", domain.ErrInvalidRole
	}
	return "role_" + string(r), nil
}
