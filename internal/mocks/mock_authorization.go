package mocks

import (
	"slices"
	"sync"

	"github.com/cuido/cuidosvc/domain"
)

// defaultRules is the policy set both authorization mocks start with.
func defaultRules() [][]string {
	return [][]string{
		{"role_ADMIN", "/api/*", ".*"},
		{"role_PATIENT", "/api/auth/me", "GET"},
		{"role_CAREGIVER", "/api/auth/me", "GET"},
	}
}

// MockCasbinEnforcer keeps policies in memory. Enforce matches subject and
// object exactly; the action must be equal or the rule's action is ".*".
type MockCasbinEnforcer struct {
	AddPolicyFunc    func(params ...interface{}) (bool, error)
	RemovePolicyFunc func(params ...interface{}) (bool, error)
	EnforceFunc      func(rvals ...interface{}) (bool, error)
	GetPolicyFunc    func() ([][]string, error)
	SavePolicyFunc   func() error

	mu    sync.Mutex
	rules [][]string
}

func NewMockCasbinEnforcer() *MockCasbinEnforcer {
	return &MockCasbinEnforcer{rules: defaultRules()}
}

func asRule(params []interface{}) []string {
	rule := make([]string, 0, len(params))
	for _, p := range params {
		s, _ := p.(string)
		rule = append(rule, s)
	}
	return rule
}

func (m *MockCasbinEnforcer) indexOf(rule []string) int {
	return slices.IndexFunc(m.rules, func(r []string) bool { return slices.Equal(r, rule) })
}

func (m *MockCasbinEnforcer) AddPolicy(params ...interface{}) (bool, error) {
	if m.AddPolicyFunc != nil {
		return m.AddPolicyFunc(params...)
	}
	if len(params) < 3 {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rule := asRule(params)
	if m.indexOf(rule) >= 0 {
		return false, nil
	}
	m.rules = append(m.rules, rule)
	return true, nil
}

func (m *MockCasbinEnforcer) RemovePolicy(params ...interface{}) (bool, error) {
	if m.RemovePolicyFunc != nil {
		return m.RemovePolicyFunc(params...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(asRule(params))
	if i < 0 {
		return false, nil
	}
	m.rules = slices.Delete(m.rules, i, i+1)
	return true, nil
}

func (m *MockCasbinEnforcer) Enforce(rvals ...interface{}) (bool, error) {
	if m.EnforceFunc != nil {
		return m.EnforceFunc(rvals...)
	}
	if len(rvals) < 3 {
		return false, nil
	}
	req := asRule(rvals)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rules {
		if len(r) >= 3 && r[0] == req[0] && r[1] == req[1] && (r[2] == req[2] || r[2] == ".*") {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCasbinEnforcer) GetPolicy() ([][]string, error) {
	if m.GetPolicyFunc != nil {
		return m.GetPolicyFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rules))
	for i, r := range m.rules {
		out[i] = slices.Clone(r)
	}
	return out, nil
}

func (m *MockCasbinEnforcer) SavePolicy() error {
	if m.SavePolicyFunc != nil {
		return m.SavePolicyFunc()
	}
	return nil
}

// MockPolicyService lets only role_ADMIN through by default.
type MockPolicyService struct {
	AddPolicyFunc       func(role, resource, action string) error
	RemovePolicyFunc    func(role, resource, action string) error
	CheckPermissionFunc func(role, resource, action string) (bool, error)
	GetPoliciesFunc     func() [][]string
}

func NewMockPolicyService() *MockPolicyService { return &MockPolicyService{} }

func (m *MockPolicyService) AddPolicy(role, resource, action string) error {
	if m.AddPolicyFunc == nil {
		return nil
	}
	return m.AddPolicyFunc(role, resource, action)
}

func (m *MockPolicyService) RemovePolicy(role, resource, action string) error {
	if m.RemovePolicyFunc == nil {
		return nil
	}
	return m.RemovePolicyFunc(role, resource, action)
}

func (m *MockPolicyService) CheckPermission(role, resource, action string) (bool, error) {
	if m.CheckPermissionFunc != nil {
		return m.CheckPermissionFunc(role, resource, action)
	}
	return role == "role_ADMIN", nil
}

func (m *MockPolicyService) GetPolicies() [][]string {
	if m.GetPoliciesFunc != nil {
		return m.GetPoliciesFunc()
	}
	return defaultRules()
}

var (
	_ domain.CasbinEnforcer = (*MockCasbinEnforcer)(nil)
	_ domain.PolicyService  = (*MockPolicyService)(nil)
)
