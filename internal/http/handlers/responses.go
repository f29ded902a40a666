package handlers

import (
	"time"

	"github.com/cuido/cuidosvc/domain"
)

type userView struct {
	ID        uint        `json:"id"`
	FullName  string      `json:"full_name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone,omitempty"`
	Address   string      `json:"address,omitempty"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func newUserView(u *domain.User) *userView {
	if u == nil {
		return nil
	}
	return &userView{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type relationshipView struct {
	ID          uint                     `json:"id"`
	CaregiverID uint                     `json:"caregiver_id"`
	PatientID   uint                     `json:"patient_id"`
	IsPrimary   bool                     `json:"is_primary"`
	State       domain.RelationshipState `json:"state"`
	InvitedAt   time.Time                `json:"invited_at"`
	AcceptedAt  *time.Time               `json:"accepted_at,omitempty"`
	Caregiver   *userView                `json:"caregiver,omitempty"`
	Patient     *userView                `json:"patient,omitempty"`
	Profile     *profileView             `json:"patient_profile,omitempty"`
}

func newRelationshipView(r *domain.Relationship) relationshipView {
	return relationshipView{
		ID:          r.ID,
		CaregiverID: r.CaregiverID,
		PatientID:   r.PatientID,
		IsPrimary:   r.IsPrimary,
		State:       r.State,
		InvitedAt:   r.InvitedAt,
		AcceptedAt:  r.AcceptedAt,
		Caregiver:   newUserView(r.Caregiver),
		Patient:     newUserView(r.Patient),
		Profile:     newProfileView(r.PatientProfile),
	}
}

type profileView struct {
	PatientID         uint       `json:"patient_id"`
	BloodType         string     `json:"blood_type,omitempty"`
	WeightKg          *float64   `json:"weight_kg,omitempty"`
	HeightCm          *float64   `json:"height_cm,omitempty"`
	Allergies         string     `json:"allergies,omitempty"`
	MedicalConditions string     `json:"medical_conditions,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	HealthInsurance   string     `json:"health_insurance,omitempty"`
	MemberNumber      string     `json:"member_number,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

func newProfileView(p *domain.PatientProfile) *profileView {
	if p == nil {
		return nil
	}
	v := &profileView{
		PatientID:         p.PatientID,
		BloodType:         p.BloodType,
		WeightKg:          p.WeightKg,
		HeightCm:          p.HeightCm,
		Allergies:         p.Allergies,
		MedicalConditions: p.MedicalConditions,
		Notes:             p.Notes,
		HealthInsurance:   p.HealthInsurance,
		MemberNumber:      p.MemberNumber,
	}
	if !p.UpdatedAt.IsZero() {
		v.UpdatedAt = &p.UpdatedAt
	}
	return v
}

func newRelationshipViews(rels []domain.Relationship) []relationshipView {
	out := make([]relationshipView, 0, len(rels))
	for i := range rels {
		out = append(out, newRelationshipView(&rels[i]))
	}
	return out
}

type scheduleView struct {
	Time string   `json:"time"`
	Days []string `json:"days"`
}

type medicationView struct {
	ID          uint           `json:"id"`
	PatientID   uint           `json:"patient_id"`
	CaregiverID uint           `json:"caregiver_id"`
	Name        string         `json:"name"`
	Dose        string         `json:"dose,omitempty"`
	Frequency   string         `json:"frequency,omitempty"`
	Route       string         `json:"route,omitempty"`
	StartDate   string         `json:"start_date"`
	EndDate     string         `json:"end_date"`
	Active      bool           `json:"active"`
	Notes       string         `json:"notes,omitempty"`
	Schedules   []scheduleView `json:"schedules"`
}

func newMedicationView(m *domain.Medication) medicationView {
	v := medicationView{
		ID:          m.ID,
		PatientID:   m.PatientID,
		CaregiverID: m.CaregiverID,
		Name:        m.Name,
		Dose:        m.Dose,
		Frequency:   m.Frequency,
		Route:       m.Route,
		StartDate:   m.StartDate.Format(dateLayout),
		EndDate:     m.EndDate.Format(dateLayout),
		Active:      m.Active,
		Notes:       m.Notes,
		Schedules:   make([]scheduleView, 0, len(m.Schedules)),
	}
	for _, s := range m.Schedules {
		v.Schedules = append(v.Schedules, scheduleView{Time: s.TimeOfDay.String(), Days: s.Days.Letters()})
	}
	return v
}

type appointmentView struct {
	ID          uint      `json:"id"`
	PatientID   uint      `json:"patient_id"`
	CaregiverID uint      `json:"caregiver_id"`
	DateTime    time.Time `json:"date_time"`
	Location    string    `json:"location,omitempty"`
	DoctorName  string    `json:"doctor_name,omitempty"`
	Specialty   string    `json:"specialty,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Completed   bool      `json:"completed"`
}

func newAppointmentView(a *domain.Appointment) appointmentView {
	return appointmentView{
		ID:          a.ID,
		PatientID:   a.PatientID,
		CaregiverID: a.CaregiverID,
		DateTime:    a.DateTime,
		Location:    a.Location,
		DoctorName:  a.DoctorName,
		Specialty:   a.Specialty,
		Reason:      a.Reason,
		Notes:       a.Notes,
		Completed:   a.Completed,
	}
}

type reminderView struct {
	ID          uint                  `json:"id"`
	Kind        domain.ReminderKind   `json:"kind"`
	SourceID    uint                  `json:"source_id"`
	PatientID   uint                  `json:"patient_id"`
	DateTime    time.Time             `json:"date_time"`
	Status      domain.ReminderStatus `json:"status"`
	Description string                `json:"description"`
	Notes       string                `json:"notes,omitempty"`

	MedicationName string `json:"medication_name,omitempty"`
	Dose           string `json:"dose,omitempty"`
	Location       string `json:"location,omitempty"`
	DoctorName     string `json:"doctor_name,omitempty"`
	Specialty      string `json:"specialty,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

func newReminderView(r *domain.ReminderDetails) reminderView {
	return reminderView{
		ID:             r.ID,
		Kind:           r.Kind,
		SourceID:       r.SourceID,
		PatientID:      r.PatientID,
		DateTime:       r.DateTime,
		Status:         r.Status,
		Description:    r.Description,
		Notes:          r.Notes,
		MedicationName: r.MedicationName,
		Dose:           r.Dose,
		Location:       r.Location,
		DoctorName:     r.DoctorName,
		Specialty:      r.Specialty,
		Reason:         r.Reason,
	}
}

type documentView struct {
	ID          uint                `json:"id"`
	PatientID   uint                `json:"patient_id"`
	UploadedBy  uint                `json:"uploaded_by"`
	Name        string              `json:"name"`
	Type        domain.DocumentType `json:"type"`
	Category    domain.FileCategory `json:"category"`
	Description string              `json:"description,omitempty"`
	ContentType string              `json:"content_type"`
	Size        int64               `json:"size"`
	CreatedAt   time.Time           `json:"created_at"`
}

func newDocumentView(d *domain.Document) documentView {
	return documentView{
		ID:          d.ID,
		PatientID:   d.PatientID,
		UploadedBy:  d.UploadedBy,
		Name:        d.Name,
		Type:        d.Type,
		Category:    d.Category,
		Description: d.Description,
		ContentType: d.ContentType,
		Size:        d.Size,
		CreatedAt:   d.CreatedAt,
	}
}

type taskView struct {
	ID          uint                `json:"id"`
	PatientID   uint                `json:"patient_id"`
	CaregiverID uint                `json:"caregiver_id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	DueDate     string              `json:"due_date,omitempty"`
	Priority    domain.TaskPriority `json:"priority"`
	Completed   bool                `json:"completed"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Position    int                 `json:"position"`
	Overdue     bool                `json:"overdue"`
	CreatedAt   time.Time           `json:"created_at"`
}

func newTaskView(t *domain.Task, now time.Time) taskView {
	v := taskView{
		ID:          t.ID,
		PatientID:   t.PatientID,
		CaregiverID: t.CaregiverID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		Position:    t.Position,
		Overdue:     t.Overdue(now),
		CreatedAt:   t.CreatedAt,
	}
	if t.DueDate != nil {
		v.DueDate = t.DueDate.In(now.Location()).Format(dateLayout)
	}
	return v
}

func newTaskViews(tasks []domain.Task, now time.Time) []taskView {
	out := make([]taskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, newTaskView(&tasks[i], now))
	}
	return out
}

type logEntryView struct {
	ID           uint      `json:"id"`
	PatientID    uint      `json:"patient_id"`
	CaregiverID  uint      `json:"caregiver_id"`
	Date         string    `json:"date"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Symptoms     string    `json:"symptoms,omitempty"`
	Observations string    `json:"observations,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func newLogEntryView(e *domain.LogEntry, loc *time.Location) logEntryView {
	return logEntryView{
		ID:           e.ID,
		PatientID:    e.PatientID,
		CaregiverID:  e.CaregiverID,
		Date:         e.Date.In(loc).Format(dateLayout),
		Title:        e.Title,
		Description:  e.Description,
		Symptoms:     e.Symptoms,
		Observations: e.Observations,
		CreatedAt:    e.CreatedAt,
	}
}

func newLogEntryViews(entries []domain.LogEntry, loc *time.Location) []logEntryView {
	out := make([]logEntryView, 0, len(entries))
	for i := range entries {
		out = append(out, newLogEntryView(&entries[i], loc))
	}
	return out
}

type contactView struct {
	ID        uint   `json:"id"`
	PatientID uint   `json:"patient_id"`
	Name      string `json:"name"`
	Relation  string `json:"relation,omitempty"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	Primary   bool   `json:"is_primary"`
}

func newContactView(c *domain.EmergencyContact) contactView {
	return contactView{
		ID:        c.ID,
		PatientID: c.PatientID,
		Name:      c.Name,
		Relation:  c.Relation,
		Phone:     c.Phone,
		Email:     c.Email,
		Primary:   c.Primary,
	}
}
