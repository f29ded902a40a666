package domain

import (
	"context"
	"io"
	"time"
)

// Clock is the source of "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Transactor runs fn inside a storage transaction. Repositories called with
// the ctx passed to fn take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error
	// LockByID loads the user and holds a row lock until the surrounding
	// transaction ends.
	LockByID(ctx context.Context, id uint) (*User, error)
	// Delete closes the account and removes every caregiver link it is part of.
	Delete(ctx context.Context, id uint) error
}

// SessionRepository defines session data access operations
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// RelationshipRepository persists caregiver-patient links. Create must report
// a duplicate (caregiver, patient) pair as ErrRelationshipExists.
type RelationshipRepository interface {
	Create(ctx context.Context, rel *Relationship) error
	FindByID(ctx context.Context, id uint) (*Relationship, error)
	FindByPair(ctx context.Context, caregiverID, patientID uint) (*Relationship, error)
	Update(ctx context.Context, rel *Relationship) error
	Delete(ctx context.Context, id uint) error
	ListByCaregiver(ctx context.Context, caregiverID uint) ([]Relationship, error)
	ListByPatient(ctx context.Context, patientID uint) ([]Relationship, error)
	ListByCaregiverAndState(ctx context.Context, caregiverID uint, state RelationshipState) ([]Relationship, error)
	ListByPatientAndState(ctx context.Context, patientID uint, state RelationshipState) ([]Relationship, error)
	CountAccepted(ctx context.Context, patientID uint) (int64, error)
}

// MedicationRepository persists medications together with their schedule slots.
type MedicationRepository interface {
	Create(ctx context.Context, m *Medication) error
	FindByID(ctx context.Context, id uint) (*Medication, error)
	ListByPatient(ctx context.Context, patientID uint, onlyActive bool) ([]Medication, error)
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
}

// AppointmentRepository persists appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	FindByID(ctx context.Context, id uint) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uint) ([]Appointment, error)
	SetCompleted(ctx context.Context, id uint, completed bool) error
	Delete(ctx context.Context, id uint) error
}

// ReminderRepository persists reminder instances. List methods order by
// DateTime ascending; ListInRange uses the half-open window [from, to).
type ReminderRepository interface {
	CreateBatch(ctx context.Context, reminders []Reminder) error
	FindByID(ctx context.Context, id uint) (*Reminder, error)
	UpdateStatus(ctx context.Context, id uint, status ReminderStatus) error
	Delete(ctx context.Context, id uint) error
	DeleteBySource(ctx context.Context, kind ReminderKind, sourceID uint) (int64, error)
	ListByPatient(ctx context.Context, patientID uint) ([]Reminder, error)
	ListInRange(ctx context.Context, patientID uint, from, to time.Time) ([]Reminder, error)
	ListByStatus(ctx context.Context, patientID uint, status ReminderStatus) ([]Reminder, error)
}

// ResetTokenRepository persists password reset codes.
type ResetTokenRepository interface {
	Create(ctx context.Context, token *PasswordResetToken) error
	FindUnusedByCode(ctx context.Context, code string) (*PasswordResetToken, error)
	InvalidateForUser(ctx context.Context, userID uint) (int64, error)
	MarkUsed(ctx context.Context, id uint) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// DocumentFilter narrows a document listing. Zero fields do not filter.
type DocumentFilter struct {
	Type     DocumentType
	Category FileCategory
}

// DocumentRepository persists document metadata. ListByPatient orders newest
// first.
type DocumentRepository interface {
	Create(ctx context.Context, doc *Document) error
	FindByID(ctx context.Context, id uint) (*Document, error)
	ListByPatient(ctx context.Context, patientID uint, filter DocumentFilter) ([]Document, error)
	Delete(ctx context.Context, id uint) error
}

// PatientProfileRepository persists patient medical profiles, one per patient.
type PatientProfileRepository interface {
	FindByPatient(ctx context.Context, patientID uint) (*PatientProfile, error)
	Save(ctx context.Context, p *PatientProfile) error
	ListByPatients(ctx context.Context, patientIDs []uint) ([]PatientProfile, error)
}

// TaskFilter narrows a task listing. Nil fields do not filter; the due date
// window is inclusive on both ends.
type TaskFilter struct {
	Completed *bool
	DueFrom   *time.Time
	DueTo     *time.Time
}

// TaskRepository persists care tasks. ListByPatient orders by Position.
type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, id uint) (*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id uint) error
	ListByPatient(ctx context.Context, patientID uint, filter TaskFilter) ([]Task, error)
	MaxPosition(ctx context.Context, patientID uint) (int, error)
	SetPosition(ctx context.Context, id uint, position int) error
}

// LogEntryRepository persists logbook entries. Listings order by Date, then
// CreatedAt, newest first.
type LogEntryRepository interface {
	Create(ctx context.Context, e *LogEntry) error
	FindByID(ctx context.Context, id uint) (*LogEntry, error)
	Update(ctx context.Context, e *LogEntry) error
	Delete(ctx context.Context, id uint) error
	ListByPatient(ctx context.Context, patientID uint, from, to *time.Time) ([]LogEntry, error)
	ListByCaregiver(ctx context.Context, caregiverID uint) ([]LogEntry, error)
	CountOnDate(ctx context.Context, patientID uint, date time.Time) (int64, error)
}

// EmergencyContactRepository persists emergency contacts. ListByPatient puts
// the primary contact first.
type EmergencyContactRepository interface {
	Create(ctx context.Context, c *EmergencyContact) error
	FindByID(ctx context.Context, id uint) (*EmergencyContact, error)
	Update(ctx context.Context, c *EmergencyContact) error
	Delete(ctx context.Context, id uint) error
	ListByPatient(ctx context.Context, patientID uint) ([]EmergencyContact, error)
	ClearPrimary(ctx context.Context, patientID, exceptID uint) error
}

// BlobStore stores document contents.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	FullName string
	Email    string
	Phone    string
	Address  string
	Password string
	Role     Role
}

// AuthService defines authentication business logic
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*User, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetUserProfile(ctx context.Context, userID uint) (*User, error)
	UpdateAccount(ctx context.Context, userID uint, in AccountInput) (*User, error)
	ChangePassword(ctx context.Context, userID uint, current, next string) error
	DeleteAccount(ctx context.Context, userID uint, password, sessionID string) error
}

// PasswordResetService runs the password recovery flow.
type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, code, newPassword string) error
	SweepExpired(ctx context.Context) (int64, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenService defines token operations
type TokenService interface {
	GenerateAccessToken(user *User, sessionID string) (string, error)
	GenerateRefreshToken(user *User, sessionID string) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	ValidateRefreshToken(token string) (*TokenClaims, error)
}

// NotificationService is the message transport used by Notifier.
type NotificationService interface {
	SendSMS(ctx context.Context, to, message string) error
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// Notifier sends the application's user-facing messages.
type Notifier interface {
	SendInvitation(ctx context.Context, caregiver, patient *User) error
	SendOTP(ctx context.Context, user *User, code string, ttl time.Duration) error
	SendPasswordChanged(ctx context.Context, user *User) error
	SendWelcome(ctx context.Context, user *User) error
}

// AccessGuard decides whether an actor may see or change a patient's data.
type AccessGuard interface {
	HasAccess(ctx context.Context, actor Actor, patientID uint) (bool, error)
	RequireAccess(ctx context.Context, actor Actor, patientID uint) error
	RequireCaregiver(ctx context.Context, actor Actor, patientID uint) error
	RequirePatient(ctx context.Context, actor Actor, patientID uint) error
	ResolvePatientID(ctx context.Context, actor Actor, requested *uint) (uint, error)
}

// RelationshipService manages caregiver invitations and links.
type RelationshipService interface {
	Invite(ctx context.Context, patientID uint, caregiverEmail string) (*Relationship, error)
	Accept(ctx context.Context, actor Actor, relationshipID uint) (*Relationship, error)
	Reject(ctx context.Context, actor Actor, relationshipID uint) (*Relationship, error)
	Unlink(ctx context.Context, patientID, caregiverID uint) error
	ListByCaregiver(ctx context.Context, caregiverID uint) ([]Relationship, error)
	ListByPatient(ctx context.Context, patientID uint) ([]Relationship, error)
	ListByPatientAndState(ctx context.Context, patientID uint, state RelationshipState) ([]Relationship, error)
	ListByCaregiverAndState(ctx context.Context, caregiverID uint, state RelationshipState) ([]Relationship, error)
	CountAccepted(ctx context.Context, patientID uint) (int64, error)
	PendingInvitations(ctx context.Context, caregiverID uint) ([]Relationship, error)
	LinkedPatients(ctx context.Context, caregiverID uint) ([]Relationship, error)
}

// ReminderGenerator turns medications and appointments into reminder rows.
type ReminderGenerator interface {
	GenerateFromMedication(ctx context.Context, m *Medication) ([]Reminder, error)
	GenerateFromAppointment(ctx context.Context, a *Appointment) (*Reminder, error)
	DeleteBySource(ctx context.Context, kind ReminderKind, sourceID uint) (int64, error)
}

// ReminderService exposes reminder queries and status changes.
type ReminderService interface {
	ReminderGenerator
	ListByPatient(ctx context.Context, actor Actor, patientID uint) ([]ReminderDetails, error)
	ListForDay(ctx context.Context, actor Actor, patientID uint, day time.Time) ([]ReminderDetails, error)
	ListInRange(ctx context.Context, actor Actor, patientID uint, from, to time.Time) ([]ReminderDetails, error)
	ListByStatus(ctx context.Context, actor Actor, patientID uint, status ReminderStatus) ([]ReminderDetails, error)
	ListPending(ctx context.Context, actor Actor, patientID uint) ([]ReminderDetails, error)
	CycleStatus(ctx context.Context, actor Actor, reminderID uint) (*Reminder, error)
	SetStatus(ctx context.Context, actor Actor, reminderID uint, status string) (*Reminder, error)
	Delete(ctx context.Context, actor Actor, reminderID uint) error
}

// ScheduleInput is one schedule slot as entered by a client.
type ScheduleInput struct {
	Time string
	Days []string
}

// MedicationInput carries the fields of a new medication.
type MedicationInput struct {
	PatientID uint
	Name      string
	Dose      string
	Frequency string
	Route     string
	StartDate time.Time
	EndDate   time.Time
	Notes     string
	Schedules []ScheduleInput
}

// MedicationService manages medications and their reminders.
type MedicationService interface {
	Create(ctx context.Context, actor Actor, in MedicationInput) (*Medication, error)
	Get(ctx context.Context, actor Actor, id uint) (*Medication, error)
	ListByPatient(ctx context.Context, actor Actor, patientID uint, onlyActive bool) ([]Medication, error)
	Deactivate(ctx context.Context, actor Actor, id uint) (*Medication, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

// AppointmentInput carries the fields of a new appointment.
type AppointmentInput struct {
	PatientID  uint
	DateTime   time.Time
	Location   string
	DoctorName string
	Specialty  string
	Reason     string
	Notes      string
}

// AppointmentService manages appointments and their reminders.
type AppointmentService interface {
	Create(ctx context.Context, actor Actor, in AppointmentInput) (*Appointment, error)
	Get(ctx context.Context, actor Actor, id uint) (*Appointment, error)
	ListByPatient(ctx context.Context, actor Actor, patientID uint) ([]Appointment, error)
	MarkCompleted(ctx context.Context, actor Actor, id uint) (*Appointment, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

// DocumentService manages patient documents.
type DocumentService interface {
	Upload(ctx context.Context, actor Actor, doc *Document, body io.Reader) (*Document, error)
	List(ctx context.Context, actor Actor, patientID uint, filter DocumentFilter) ([]Document, error)
	Download(ctx context.Context, actor Actor, id uint) (*Document, io.ReadCloser, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

// PatientProfileService reads and edits a patient's medical profile.
type PatientProfileService interface {
	Get(ctx context.Context, actor Actor, patientID uint) (*PatientProfile, error)
	Update(ctx context.Context, actor Actor, patientID uint, in PatientProfileInput) (*PatientProfile, error)
}

// TaskInput carries the editable fields of a task.
type TaskInput struct {
	PatientID   uint
	Title       string
	Description string
	DueDate     *time.Time
	Priority    string
	Completed   *bool
}

// TaskService manages a patient's care tasks.
type TaskService interface {
	Create(ctx context.Context, actor Actor, in TaskInput) (*Task, error)
	Get(ctx context.Context, actor Actor, id uint) (*Task, error)
	List(ctx context.Context, actor Actor, patientID uint, filter TaskFilter) ([]Task, error)
	Update(ctx context.Context, actor Actor, id uint, in TaskInput) (*Task, error)
	ToggleCompleted(ctx context.Context, actor Actor, id uint) (*Task, error)
	Move(ctx context.Context, actor Actor, id uint, direction string) ([]Task, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

// LogEntryInput carries the editable fields of a logbook entry.
type LogEntryInput struct {
	PatientID    uint
	Date         time.Time
	Title        string
	Description  string
	Symptoms     string
	Observations string
}

// LogbookService manages the care logbook.
type LogbookService interface {
	Create(ctx context.Context, actor Actor, in LogEntryInput) (*LogEntry, error)
	Get(ctx context.Context, actor Actor, id uint) (*LogEntry, error)
	List(ctx context.Context, actor Actor, patientID uint, from, to *time.Time) ([]LogEntry, error)
	ListMine(ctx context.Context, actor Actor) ([]LogEntry, error)
	Update(ctx context.Context, actor Actor, id uint, in LogEntryInput) (*LogEntry, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

// ContactInput carries the editable fields of an emergency contact.
type ContactInput struct {
	PatientID uint
	Name      string
	Relation  string
	Phone     string
	Email     string
	Primary   bool
}

// EmergencyContactService manages a patient's emergency contacts.
type EmergencyContactService interface {
	Create(ctx context.Context, actor Actor, in ContactInput) (*EmergencyContact, error)
	List(ctx context.Context, actor Actor, patientID uint) ([]EmergencyContact, error)
	Update(ctx context.Context, actor Actor, id uint, in ContactInput) (*EmergencyContact, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
