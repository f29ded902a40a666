package domain

import "time"

// Role is the account type of a user.
type Role string

const (
	RolePatient   Role = "PATIENT"
	RoleCaregiver Role = "CAREGIVER"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleCaregiver, RoleAdmin:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID           uint
	FullName     string
	Email        string
	Phone        string
	Address      string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID    uint
	Role  Role
	Email string
}

// ActorFor builds the Actor view of a user.
func ActorFor(u *User) Actor {
	return Actor{ID: u.ID, Role: u.Role, Email: u.Email}
}

// RelationshipState is the lifecycle state of a caregiver-patient link.
type RelationshipState string

const (
	RelationshipPending  RelationshipState = "PENDING"
	RelationshipAccepted RelationshipState = "ACCEPTED"
	RelationshipRejected RelationshipState = "REJECTED"
)

// Relationship links one caregiver to one patient.
type Relationship struct {
	ID          uint
	CaregiverID uint
	PatientID   uint
	IsPrimary   bool
	State       RelationshipState
	InvitedAt   time.Time
	AcceptedAt  *time.Time

	// Populated by list queries for display.
	Caregiver *User
	Patient   *User

	// Set only on a caregiver's accepted links.
	PatientProfile *PatientProfile
}

// Normalize stamps the timestamps implied by the current state.
func (r *Relationship) Normalize(now time.Time) {
	if r.State == "" {
		r.State = RelationshipPending
	}
	if r.InvitedAt.IsZero() {
		r.InvitedAt = now
	}
	if r.State == RelationshipAccepted && r.AcceptedAt == nil {
		accepted := now
		r.AcceptedAt = &accepted
	}
}

// Transition answers a pending invitation. Re-applying the current terminal
// state is a no-op; moving between terminal states fails.
func (r *Relationship) Transition(to RelationshipState, now time.Time) error {
	if to != RelationshipAccepted && to != RelationshipRejected {
		return ErrInvalidState
	}
	if r.State != to && r.State != RelationshipPending {
		return ErrRelationshipSettled
	}
	r.State = to
	r.Normalize(now)
	return nil
}

// Medication is a recurring medication plan for a patient.
type Medication struct {
	ID          uint
	PatientID   uint
	CaregiverID uint
	Name        string
	Dose        string
	Frequency   string
	Route       string
	StartDate   time.Time
	EndDate     time.Time
	Active      bool
	Notes       string
	Schedules   []ScheduleSlot
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ScheduleSlot is a time of day, optionally restricted to some weekdays.
type ScheduleSlot struct {
	ID           uint
	MedicationID uint
	TimeOfDay    TimeOfDay
	Days         WeekdaySet
}

// Appointment is a single medical appointment.
type Appointment struct {
	ID          uint
	PatientID   uint
	CaregiverID uint
	DateTime    time.Time
	Location    string
	DoctorName  string
	Specialty   string
	Reason      string
	Notes       string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReminderKind discriminates what produced a reminder.
type ReminderKind string

const (
	ReminderMedication  ReminderKind = "MEDICATION"
	ReminderAppointment ReminderKind = "APPOINTMENT"
)

// ReminderStatus is the state of a reminder instance.
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "PENDING"
	ReminderCompleted ReminderStatus = "COMPLETED"
	ReminderCancelled ReminderStatus = "CANCELLED"
)

// Reminder is one concrete, timestamped occurrence derived from a medication
// schedule or an appointment. SourceID refers to a Medication or an
// Appointment depending on Kind.
type Reminder struct {
	ID          uint
	Kind        ReminderKind
	SourceID    uint
	PatientID   uint
	DateTime    time.Time
	Status      ReminderStatus
	Description string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReminderDetails is a reminder enriched with details of its source.
type ReminderDetails struct {
	Reminder

	MedicationName string
	Dose           string

	Location   string
	DoctorName string
	Specialty  string
	Reason     string
}

// PasswordResetToken is a one-time numeric code for password recovery.
type PasswordResetToken struct {
	ID        uint
	UserID    uint
	Code      string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Expired reports whether the token is past its validity window at now.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Document is a file stored for a patient.
type Document struct {
	ID          uint
	PatientID   uint
	UploadedBy  uint
	Name        string
	Type        DocumentType
	Category    FileCategory
	Description string
	ContentType string
	Size        int64
	StorageKey  string
	CreatedAt   time.Time
}

// AuthResult represents authentication outcome
type AuthResult struct {
	User         *User
	AccessToken  string
	RefreshToken string
	SessionID    string
	ExpiresIn    int64
}

// Session represents a user session
type Session struct {
	ID        string
	UserID    uint
	ExpiresAt time.Time
	CreatedAt time.Time
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	Role      Role   `json:"role"`
	Email     string `json:"email,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
