package domain

import "errors"

// Error kinds. Every error returned by the services is one of these, or wraps
// one of them, so callers can classify with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidState       = errors.New("invalid state")
	ErrAccessDenied       = errors.New("access denied")
	ErrExpired            = errors.New("expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("too many requests")
	ErrValidation         = errors.New("validation error")
)

// kindError is a specific error that classifies as one of the kinds above.
type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{msg: msg, kind: kind}
}

// NewValidationError returns an ErrValidation carrying a caller-facing message.
func NewValidationError(msg string) error {
	return newKindError(ErrValidation, msg)
}

// Account errors
var (
	ErrUserNotFound      = newKindError(ErrNotFound, "user not found")
	ErrUserAlreadyExists = newKindError(ErrConflict, "user already exists")
	ErrUserInactive      = newKindError(ErrAccessDenied, "user account is inactive")
	ErrUnauthenticated   = errors.New("no authenticated user")
)

// Token and session errors. All of them classify as ErrUnauthenticated.
var (
	ErrTokenInvalid    = newKindError(ErrUnauthenticated, "invalid token")
	ErrTokenExpired    = newKindError(ErrUnauthenticated, "token has expired")
	ErrTokenMalformed  = newKindError(ErrUnauthenticated, "malformed token")
	ErrSessionNotFound = newKindError(ErrUnauthenticated, "session not found")
	ErrSessionExpired  = newKindError(ErrUnauthenticated, "session has expired")
)

// Relationship errors
var (
	ErrRelationshipNotFound = newKindError(ErrNotFound, "relationship not found")
	ErrRelationshipExists   = newKindError(ErrConflict, "an invitation or relationship with this caregiver already exists")
	ErrNotACaregiver        = newKindError(ErrInvalidRole, "user is not a caregiver")
	ErrRelationshipSettled  = newKindError(ErrConflict, "invitation has already been answered")
)

// Reminder errors
var (
	ErrReminderNotFound      = newKindError(ErrNotFound, "reminder not found")
	ErrUnknownReminderStatus = newKindError(ErrInvalidState, "unknown reminder status")
	ErrInvalidDateRange      = newKindError(ErrValidation, "end date must not be before start date")
	ErrNoSchedules           = newKindError(ErrValidation, "medication requires at least one schedule")
	ErrInvalidTimeOfDay      = newKindError(ErrValidation, "time of day must be HH:MM")
	ErrInvalidWeekday        = newKindError(ErrValidation, "unknown weekday letter")
)

// Medication and appointment errors
var (
	ErrMedicationNotFound  = newKindError(ErrNotFound, "medication not found")
	ErrAppointmentNotFound = newKindError(ErrNotFound, "appointment not found")
)

// Password reset errors
var (
	ErrResetCodeInvalid = newKindError(ErrInvalidCredentials, "reset code is invalid or already used")
	ErrResetCodeExpired = newKindError(ErrExpired, "reset code has expired")
)

// Document errors
var (
	ErrDocumentNotFound    = newKindError(ErrNotFound, "document not found")
	ErrDocumentTooLarge    = newKindError(ErrValidation, "document exceeds the maximum upload size")
	ErrInvalidFileName     = newKindError(ErrValidation, "invalid file name")
	ErrUnsupportedFileType = newKindError(ErrValidation, "unsupported file type; allowed: PDF, DOC, DOCX, PNG, JPG, JPEG, MP4, AVI")
	ErrFileTypeMismatch    = newKindError(ErrValidation, "file content type does not match its extension")
	ErrInvalidDocumentType = newKindError(ErrValidation, "document type must be MEDICAL_RECORD, STUDY, PRESCRIPTION or OTHER")
	ErrInvalidFileCategory = newKindError(ErrValidation, "file category must be DOCUMENT, IMAGE or VIDEO")
)

// Care record errors
var (
	ErrTaskNotFound     = newKindError(ErrNotFound, "task not found")
	ErrInvalidPriority  = newKindError(ErrValidation, "priority must be LOW, MEDIUM or HIGH")
	ErrInvalidDirection = newKindError(ErrValidation, "direction must be up or down")
	ErrLogEntryNotFound = newKindError(ErrNotFound, "logbook entry not found")
	ErrContactNotFound  = newKindError(ErrNotFound, "emergency contact not found")
)

// Patient profile errors
var (
	ErrPatientProfileNotFound = newKindError(ErrNotFound, "patient profile not found")
	ErrInvalidBloodType       = newKindError(ErrValidation, "blood type must be one of A+, A-, B+, B-, AB+, AB-, O+, O-")
)

// Authorization errors
var (
	ErrPatientAccessDenied  = newKindError(ErrAccessDenied, "you do not have access to this patient's data")
	ErrCaregiverOnly        = newKindError(ErrAccessDenied, "only an authorized caregiver can perform this action")
	ErrPatientOnly          = newKindError(ErrAccessDenied, "only the patient can perform this action")
	ErrPatientIDRequired    = newKindError(ErrAccessDenied, "caregivers must specify the patient id")
	ErrRoleNotAuthorized    = newKindError(ErrAccessDenied, "role not authorized")
	ErrInvitationNotForUser = newKindError(ErrAccessDenied, "invitation belongs to another caregiver")
)
