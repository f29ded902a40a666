package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuido/cuidosvc/domain"
	"go.uber.org/zap"
)

const maxContactPhoneLen = 20

// EmergencyContactServiceImpl implements domain.EmergencyContactService
type EmergencyContactServiceImpl struct {
	contacts domain.EmergencyContactRepository
	guard    domain.AccessGuard
	tx       domain.Transactor
	log      *zap.Logger
}

// NewEmergencyContactService creates a new emergency contact service
func NewEmergencyContactService(contacts domain.EmergencyContactRepository, guard domain.AccessGuard, tx domain.Transactor, log *zap.Logger) domain.EmergencyContactService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EmergencyContactServiceImpl{contacts: contacts, guard: guard, tx: tx, log: log.Named("contacts")}
}

// Create adds a contact. Marking it primary demotes the patient's other
// primary contact.
func (s *EmergencyContactServiceImpl) Create(ctx context.Context, actor domain.Actor, in domain.ContactInput) (*domain.EmergencyContact, error) {
	if err := s.guard.RequireAccess(ctx, actor, in.PatientID); err != nil {
		return nil, err
	}
	c := &domain.EmergencyContact{PatientID: in.PatientID}
	if err := applyContact(c, in); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.contacts.Create(ctx, c); err != nil {
			return err
		}
		if c.Primary {
			return s.contacts.ClearPrimary(ctx, c.PatientID, c.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create emergency contact: %w", err)
	}
	return c, nil
}

// List implements domain.EmergencyContactService
func (s *EmergencyContactServiceImpl) List(ctx context.Context, actor domain.Actor, patientID uint) ([]domain.EmergencyContact, error) {
	if err := s.guard.RequireAccess(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.contacts.ListByPatient(ctx, patientID)
}

// Update replaces the editable fields of a contact.
func (s *EmergencyContactServiceImpl) Update(ctx context.Context, actor domain.Actor, id uint, in domain.ContactInput) (*domain.EmergencyContact, error) {
	c, err := s.contacts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.RequireAccess(ctx, actor, c.PatientID); err != nil {
		return nil, err
	}
	if err := applyContact(c, in); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if c.Primary {
			if err := s.contacts.ClearPrimary(ctx, c.PatientID, c.ID); err != nil {
				return err
			}
		}
		return s.contacts.Update(ctx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update emergency contact: %w", err)
	}
	return s.contacts.FindByID(ctx, id)
}

// Delete implements domain.EmergencyContactService
func (s *EmergencyContactServiceImpl) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	c, err := s.contacts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guard.RequireAccess(ctx, actor, c.PatientID); err != nil {
		return err
	}
	return s.contacts.Delete(ctx, id)
}

func applyContact(c *domain.EmergencyContact, in domain.ContactInput) error {
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	switch {
	case name == "":
		return domain.NewValidationError("contact name is required")
	case phone == "":
		return domain.NewValidationError("contact phone is required")
	case len(phone) > maxContactPhoneLen:
		return domain.NewValidationError("contact phone must be at most 20 characters")
	}
	c.Name = name
	c.Relation = strings.TrimSpace(in.Relation)
	c.Phone = phone
	c.Email = strings.TrimSpace(in.Email)
	c.Primary = in.Primary
	return nil
}
