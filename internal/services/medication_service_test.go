package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cuido/cuidosvc/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMedicationServiceImpl_Create(t *testing.T) {
	tests := []struct {
		name          string
		input         func(patientID uint) domain.MedicationInput
		expectedCount int
		expectedError error
	}{
		{
			name: "two daily slots over ten days",
			input: func(patientID uint) domain.MedicationInput {
				return domain.MedicationInput{
					PatientID: patientID, Name: "Losartan", Dose: "50 mg",
					StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 10),
					Schedules: []domain.ScheduleInput{{Time: "08:00"}, {Time: "20:00"}},
				}
			},
			expectedCount: 20,
		},
		{
			name: "monday and wednesday over two weeks",
			input: func(patientID uint) domain.MedicationInput {
				return domain.MedicationInput{
					PatientID: patientID, Name: "Vitamina D",
					StartDate: date(2024, 1, 29), EndDate: date(2024, 2, 11),
					Schedules: []domain.ScheduleInput{{Time: "09:30", Days: []string{"l", "X"}}},
				}
			},
			expectedCount: 4,
		},
		{
			name: "single day",
			input: func(patientID uint) domain.MedicationInput {
				return domain.MedicationInput{
					PatientID: patientID, Name: "Ibuprofeno", Dose: "400 mg",
					StartDate: date(2024, 3, 5), EndDate: date(2024, 3, 5),
					Schedules: []domain.ScheduleInput{{Time: "08:00"}, {Time: "14:00"}, {Time: "22:00"}},
				}
			},
			expectedCount: 3,
		},
		{
			name: "end before start",
			input: func(patientID uint) domain.MedicationInput {
				return domain.MedicationInput{
					PatientID: patientID, Name: "X",
					StartDate: date(2024, 3, 10), EndDate: date(2024, 3, 1),
					Schedules: []domain.ScheduleInput{{Time: "08:00"}},
				}
			},
			expectedError: domain.ErrValidation,
		},
		{
			name: "no schedules",
			input: func(patientID uint) domain.MedicationInput {
				return domain.MedicationInput{
					PatientID: patientID, Name: "X",
					StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 2),
				}
			},
			expectedError: domain.ErrValidation,
		},
		{
			name: "bad weekday letter",
			input: func(patientID uint) domain.MedicationInput {
				return domain.MedicationInput{
					PatientID: patientID, Name: "X",
					StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 2),
					Schedules: []domain.ScheduleInput{{Time: "08:00", Days: []string{"Q"}}},
				}
			},
			expectedError: domain.ErrValidation,
		},
		{
			name: "bad time of day",
			input: func(patientID uint) domain.MedicationInput {
				return domain.MedicationInput{
					PatientID: patientID, Name: "X",
					StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 2),
					Schedules: []domain.ScheduleInput{{Time: "25:99"}},
				}
			},
			expectedError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			patient := env.createUser(t, "p@example.com", domain.RolePatient)
			caregiver := env.createUser(t, "c@example.com", domain.RoleCaregiver)
			env.link(t, caregiver, patient)

			m, err := env.medicationSvc.Create(ctx, domain.ActorFor(caregiver), tt.input(patient.ID))
			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Fatalf("expected %v, got %v", tt.expectedError, err)
				}
				var n int64
				env.db.Table("medications").Count(&n)
				if n != 0 {
					t.Errorf("nothing should be stored on validation failure, found %d medications", n)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.ID == 0 || !m.Active || m.CaregiverID != caregiver.ID {
				t.Errorf("unexpected medication %+v", m)
			}

			rows, err := env.reminders.ListByPatient(ctx, patient.ID)
			if err != nil {
				t.Fatalf("list reminders: %v", err)
			}
			if len(rows) != tt.expectedCount {
				t.Fatalf("expected %d reminders, got %d", tt.expectedCount, len(rows))
			}
			for _, r := range rows {
				if r.Kind != domain.ReminderMedication || r.SourceID != m.ID || r.Status != domain.ReminderPending {
					t.Errorf("unexpected reminder %+v", r)
				}
			}
		})
	}
}

func TestMedicationServiceImpl_WeekdayFilterFallsOnSelectedDays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	patient := env.createUser(t, "p@example.com", domain.RolePatient)
	caregiver := env.createUser(t, "c@example.com", domain.RoleCaregiver)
	env.link(t, caregiver, patient)

	_, err := env.medicationSvc.Create(ctx, domain.ActorFor(caregiver), domain.MedicationInput{
		PatientID: patient.ID, Name: "Vitamina D",
		StartDate: date(2024, 1, 29), EndDate: date(2024, 2, 11),
		Schedules: []domain.ScheduleInput{{Time: "09:30", Days: []string{"L", "X"}}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rows, _ := env.reminders.ListByPatient(ctx, patient.ID)
	for _, r := range rows {
		wd := r.DateTime.UTC().Weekday()
		if wd != time.Monday && wd != time.Wednesday {
			t.Errorf("reminder on %s", wd)
		}
		if r.DateTime.UTC().Hour() != 9 || r.DateTime.UTC().Minute() != 30 {
			t.Errorf("unexpected time %v", r.DateTime)
		}
	}
}

func TestMedicationServiceImpl_CreateRequiresLinkedCaregiver(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	patient := env.createUser(t, "p@example.com", domain.RolePatient)
	caregiver := env.createUser(t, "c@example.com", domain.RoleCaregiver)
	if _, err := env.relationshipSvc.Invite(ctx, patient.ID, caregiver.Email); err != nil {
		t.Fatalf("invite: %v", err)
	}

	input := domain.MedicationInput{
		PatientID: patient.ID, Name: "Losartan",
		StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 2),
		Schedules: []domain.ScheduleInput{{Time: "08:00"}},
	}
	for _, actor := range []domain.Actor{domain.ActorFor(caregiver), domain.ActorFor(patient)} {
		if _, err := env.medicationSvc.Create(ctx, actor, input); !errors.Is(err, domain.ErrAccessDenied) {
			t.Errorf("actor %s: expected access denied, got %v", actor.Role, err)
		}
	}
}

func TestMedicationServiceImpl_DeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	patient := env.createUser(t, "p@example.com", domain.RolePatient)
	caregiver := env.createUser(t, "c@example.com", domain.RoleCaregiver)
	env.link(t, caregiver, patient)
	actor := domain.ActorFor(caregiver)

	keep, err := env.medicationSvc.Create(ctx, actor, domain.MedicationInput{
		PatientID: patient.ID, Name: "Keep",
		StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 3),
		Schedules: []domain.ScheduleInput{{Time: "08:00"}},
	})
	if err != nil {
		t.Fatalf("create keep: %v", err)
	}
	drop, err := env.medicationSvc.Create(ctx, actor, domain.MedicationInput{
		PatientID: patient.ID, Name: "Drop",
		StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 3),
		Schedules: []domain.ScheduleInput{{Time: "10:00"}, {Time: "18:00"}},
	})
	if err != nil {
		t.Fatalf("create drop: %v", err)
	}
	appt, err := env.appointmentSvc.Create(ctx, actor, domain.AppointmentInput{
		PatientID: patient.ID,
		DateTime:  time.Date(2024, 3, 2, 11, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}

	if err := env.medicationSvc.Delete(ctx, domain.ActorFor(patient), drop.ID); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("patient must not delete medications, got %v", err)
	}
	if err := env.medicationSvc.Delete(ctx, actor, drop.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := env.medications.FindByID(ctx, drop.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("medication should be gone, got %v", err)
	}
	var slots int64
	env.db.Table("medication_schedules").Where("medication_id = ?", drop.ID).Count(&slots)
	if slots != 0 {
		t.Errorf("expected slots to be deleted, found %d", slots)
	}

	rows, _ := env.reminders.ListByPatient(ctx, patient.ID)
	if len(rows) != 4 {
		t.Fatalf("expected 3 reminders of keep and 1 of the appointment, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Kind == domain.ReminderMedication && r.SourceID != keep.ID {
			t.Errorf("reminder of deleted medication survived: %+v", r)
		}
		if r.Kind == domain.ReminderAppointment && r.SourceID != appt.ID {
			t.Errorf("unexpected appointment reminder %+v", r)
		}
	}
}

func TestMedicationServiceImpl_DeactivateKeepsReminders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	patient := env.createUser(t, "p@example.com", domain.RolePatient)
	caregiver := env.createUser(t, "c@example.com", domain.RoleCaregiver)
	env.link(t, caregiver, patient)
	actor := domain.ActorFor(caregiver)

	m, err := env.medicationSvc.Create(ctx, actor, domain.MedicationInput{
		PatientID: patient.ID, Name: "Losartan",
		StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 2),
		Schedules: []domain.ScheduleInput{{Time: "08:00"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := env.medicationSvc.Deactivate(ctx, actor, m.ID)
	if err != nil || got.Active {
		t.Fatalf("deactivate: %+v, %v", got, err)
	}

	active, _ := env.medicationSvc.ListByPatient(ctx, domain.ActorFor(patient), patient.ID, true)
	if len(active) != 0 {
		t.Errorf("expected no active medications, got %d", len(active))
	}
	all, _ := env.medicationSvc.ListByPatient(ctx, domain.ActorFor(patient), patient.ID, false)
	if len(all) != 1 {
		t.Errorf("expected the medication to remain listed, got %d", len(all))
	}
	rows, _ := env.reminders.ListByPatient(ctx, patient.ID)
	if len(rows) != 2 {
		t.Errorf("deactivation keeps reminders, got %d", len(rows))
	}

	if _, err := env.medicationSvc.Get(ctx, domain.ActorFor(patient), m.ID); err != nil {
		t.Errorf("patient should read own medication: %v", err)
	}
}
