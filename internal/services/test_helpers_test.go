package services

import (
	"context"
	"testing"
	"time"

	"github.com/cuido/cuidosvc/domain"
	"github.com/cuido/cuidosvc/internal/infrastructure/repositories"
	"github.com/cuido/cuidosvc/internal/mocks"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixedNow is the clock reading used by every service test.
var fixedNow = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

// testEnv wires the services over an in-memory SQLite database.
type testEnv struct {
	db    *gorm.DB
	now   time.Time
	clock domain.Clock

	users         domain.UserRepository
	relationships domain.RelationshipRepository
	profiles      domain.PatientProfileRepository
	medications   domain.MedicationRepository
	appointments  domain.AppointmentRepository
	reminders     domain.ReminderRepository
	tokens        domain.ResetTokenRepository
	documents     domain.DocumentRepository
	tasks         domain.TaskRepository
	logbook       domain.LogEntryRepository
	contacts      domain.EmergencyContactRepository
	tx            domain.Transactor

	notifier *mocks.MockNotifier
	audit    *mocks.MockAuditLogger

	guard            domain.AccessGuard
	relationshipSvc  domain.RelationshipService
	profileSvc       domain.PatientProfileService
	reminderSvc      domain.ReminderService
	medicationSvc    domain.MedicationService
	appointmentSvc   domain.AppointmentService
	passwordResetSvc *PasswordResetServiceImpl
	taskSvc          domain.TaskService
	logbookSvc       domain.LogbookService
	contactSvc       domain.EmergencyContactService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(repositories.Models()...); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	env := &testEnv{
		db:            db,
		now:           fixedNow,
		users:         repositories.NewUserRepository(db),
		relationships: repositories.NewRelationshipRepository(db),
		profiles:      repositories.NewPatientProfileRepository(db),
		medications:   repositories.NewMedicationRepository(db),
		appointments:  repositories.NewAppointmentRepository(db),
		reminders:     repositories.NewReminderRepository(db),
		tokens:        repositories.NewResetTokenRepository(db),
		documents:     repositories.NewDocumentRepository(db),
		tasks:         repositories.NewTaskRepository(db),
		logbook:       repositories.NewLogEntryRepository(db),
		contacts:      repositories.NewEmergencyContactRepository(db),
		tx:            repositories.NewTransactor(db),
		notifier:      mocks.NewMockNotifier(),
		audit:         mocks.NewMockAuditLogger(),
	}
	env.clock = domain.ClockFunc(func() time.Time { return env.now })

	env.guard = NewAccessGuard(env.relationships, env.audit, env.clock, nil)
	env.relationshipSvc = NewRelationshipService(env.relationships, env.users, env.profiles, env.notifier, env.audit, env.clock, nil)
	env.profileSvc = NewPatientProfileService(env.profiles, env.guard, env.clock, nil)
	env.reminderSvc = NewReminderService(env.reminders, env.medications, env.appointments, env.guard, env.tx, time.UTC, nil)
	env.medicationSvc = NewMedicationService(env.medications, env.reminderSvc, env.guard, env.tx, env.clock, nil)
	env.appointmentSvc = NewAppointmentService(env.appointments, env.reminderSvc, env.guard, env.tx, env.clock, nil)
	env.passwordResetSvc = NewPasswordResetService(env.users, env.tokens, env.tx, fakeHasher{}, env.notifier, env.audit, env.clock, 15*time.Minute, nil)
	env.taskSvc = NewTaskService(env.tasks, env.guard, env.tx, env.clock, nil)
	env.logbookSvc = NewLogbookService(env.logbook, env.guard, time.UTC, env.clock, nil)
	env.contactSvc = NewEmergencyContactService(env.contacts, env.guard, env.tx, nil)
	return env
}

// fakeHasher keeps password tests fast.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed_" + password, nil }

func (fakeHasher) Verify(hashedPassword, password string) bool {
	return hashedPassword == "hashed_"+password
}

func (e *testEnv) createUser(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()

	u := &domain.User{
		FullName:     "Test " + string(role),
		Email:        email,
		Phone:        "+5491100000000",
		PasswordHash: "hashed_secret123",
		Role:         role,
		IsActive:     true,
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

// link creates an accepted relationship between caregiver and patient.
func (e *testEnv) link(t *testing.T, caregiver, patient *domain.User) *domain.Relationship {
	t.Helper()

	ctx := context.Background()
	rel, err := e.relationshipSvc.Invite(ctx, patient.ID, caregiver.Email)
	if err != nil {
		t.Fatalf("failed to invite: %v", err)
	}
	rel, err = e.relationshipSvc.Accept(ctx, domain.ActorFor(caregiver), rel.ID)
	if err != nil {
		t.Fatalf("failed to accept: %v", err)
	}
	return rel
}

// createTestContext creates a context for testing with timeout
func createTestContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// createValidUser creates a valid user entity for mock based tests
func createValidUser(t *testing.T) *domain.User {
	t.Helper()

	return &domain.User{
		ID:           1,
		FullName:     "Ana Pérez",
		Email:        "test@example.com",
		Phone:        "+5491100000000",
		PasswordHash: "hashed_password123",
		Role:         domain.RolePatient,
		IsActive:     true,
		CreatedAt:    fixedNow.Add(-24 * time.Hour),
		UpdatedAt:    fixedNow.Add(-1 * time.Hour),
	}
}

// createValidSession creates a valid session entity for testing
func createValidSession(t *testing.T, userID uint) *domain.Session {
	t.Helper()

	return &domain.Session{
		ID:        "3f1c2a52-9b9e-4c59-a3f4-6a1d2c0e7b11",
		UserID:    userID,
		ExpiresAt: fixedNow.Add(7 * 24 * time.Hour),
		CreatedAt: fixedNow,
	}
}

// assertAuthResult validates the structure and content of an AuthResult
func assertAuthResult(t *testing.T, result *domain.AuthResult, expectedUser *domain.User) {
	t.Helper()

	if result == nil {
		t.Fatal("AuthResult is nil")
	}
	if result.User == nil {
		t.Fatal("AuthResult.User is nil")
	}
	if result.User.ID != expectedUser.ID {
		t.Errorf("expected user ID %d, got %d", expectedUser.ID, result.User.ID)
	}
	if result.AccessToken == "" {
		t.Error("AccessToken is empty")
	}
	if result.RefreshToken == "" {
		t.Error("RefreshToken is empty")
	}
	if result.SessionID == "" {
		t.Error("SessionID is empty")
	}
	if result.ExpiresIn <= 0 {
		t.Errorf("expected positive ExpiresIn, got %d", result.ExpiresIn)
	}
}
