package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/cuido/cuidosvc/domain"
	"gorm.io/gorm"
)

// Subject returns the Casbin subject for a role.
func Subject(role domain.Role) string {
	return "role_" + string(role)
}

// DefaultPolicies are the route permissions seeded into an empty policy table.
// Actions are regular expressions over the HTTP method.
func DefaultPolicies() [][]string {
	patient := Subject(domain.RolePatient)
	caregiver := Subject(domain.RoleCaregiver)
	admin := Subject(domain.RoleAdmin)

	policies := [][]string{
		{admin, "/api/*", ".*"},

		{patient, "/api/relationships/invite", "POST"},
		{patient, "/api/relationships/caregivers", "GET"},
		{patient, "/api/relationships/caregivers/count", "GET"},
		{patient, "/api/relationships/caregivers/:caregiverId", "DELETE"},

		{caregiver, "/api/relationships/:id/accept", "POST"},
		{caregiver, "/api/relationships/:id/reject", "POST"},
		{caregiver, "/api/relationships/invitations", "GET"},
		{caregiver, "/api/relationships/patients", "GET"},

		{caregiver, "/api/medications", "POST"},
		{caregiver, "/api/medications/:id", "DELETE"},
		{caregiver, "/api/medications/:id/deactivate", "PATCH"},
		{caregiver, "/api/appointments", "POST"},
		{caregiver, "/api/appointments/:id", "DELETE"},
		{caregiver, "/api/appointments/:id/complete", "PATCH"},

		{caregiver, "/api/tasks", "POST"},
		{caregiver, "/api/tasks/:id", "(PUT)|(DELETE)"},
		{caregiver, "/api/tasks/:id/move", "PATCH"},
		{caregiver, "/api/logbook", "POST"},
		{caregiver, "/api/logbook/:id", "(PUT)|(DELETE)"},
	}

	for _, sub := range []string{patient, caregiver} {
		policies = append(policies,
			[]string{sub, "/api/auth/me", "(GET)|(PUT)|(DELETE)"},
			[]string{sub, "/api/patients/:id/profile", "(GET)|(PUT)"},
			[]string{sub, "/api/auth/logout", "POST"},
			[]string{sub, "/api/auth/password", "PUT"},
			[]string{sub, "/api/medications", "GET"},
			[]string{sub, "/api/medications/:id", "GET"},
			[]string{sub, "/api/appointments", "GET"},
			[]string{sub, "/api/appointments/:id", "GET"},
			[]string{sub, "/api/reminders", "GET"},
			[]string{sub, "/api/reminders/:id", "DELETE"},
			[]string{sub, "/api/reminders/:id/*", "PATCH"},
			[]string{sub, "/api/documents", "(GET)|(POST)"},
			[]string{sub, "/api/documents/:id", "DELETE"},
			[]string{sub, "/api/documents/:id/download", "GET"},
			[]string{sub, "/api/tasks", "GET"},
			[]string{sub, "/api/tasks/:id", "GET"},
			[]string{sub, "/api/tasks/:id/toggle", "PATCH"},
			[]string{sub, "/api/logbook", "GET"},
			[]string{sub, "/api/logbook/:id", "GET"},
			[]string{sub, "/api/emergency-contacts", "(GET)|(POST)"},
			[]string{sub, "/api/emergency-contacts/:id", "(PUT)|(DELETE)"},
		)
	}
	return policies
}

// CasbinService owns the enforcer backed by the policy table.
type CasbinService struct{ E *casbin.Enforcer }

// NewCasbinService loads the model at modelPath and policies from db.
func NewCasbinService(db *gorm.DB, modelPath string) (*CasbinService, error) {
	m, err := model.NewModelFromFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	return newCasbinService(db, m)
}

// NewCasbinServiceFromString builds the enforcer from an inline model.
func NewCasbinServiceFromString(db *gorm.DB, modelText string) (*CasbinService, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}
	return newCasbinService(db, m)
}

func newCasbinService(db *gorm.DB, m model.Model) (*CasbinService, error) {
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}
	e, err := casbin.NewEnforcer(m, adp)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load casbin policies: %w", err)
	}
	return &CasbinService{E: e}, nil
}

// SeedDefaults inserts DefaultPolicies when no policy exists yet. It returns
// the number of rules added.
func (s *CasbinService) SeedDefaults() (int, error) {
	existing, err := s.E.GetPolicy()
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	added := 0
	for _, p := range DefaultPolicies() {
		ok, err := s.E.AddPolicy(p[0], p[1], p[2])
		if err != nil {
			return added, fmt.Errorf("failed to add policy %v: %w", p, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}
