package domain

import (
	"fmt"
	"strings"
	"time"
)

// weekdayLetters are the single-letter weekday codes used by clients, Monday first.
var weekdayLetters = [...]struct {
	day    time.Weekday
	letter string
}{
	{time.Monday, "L"},
	{time.Tuesday, "M"},
	{time.Wednesday, "X"},
	{time.Thursday, "J"},
	{time.Friday, "V"},
	{time.Saturday, "S"},
	{time.Sunday, "D"},
}

// WeekdaySet is a bitset of weekdays indexed by time.Weekday. The zero value
// is an empty set, which a schedule slot treats as every day.
type WeekdaySet uint8

// NewWeekdaySet returns the set containing days.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// ParseWeekdays parses weekday letters (L M X J V S D, case-insensitive).
func ParseWeekdays(letters []string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, raw := range letters {
		l := strings.ToUpper(strings.TrimSpace(raw))
		if l == "" {
			continue
		}
		found := false
		for _, wl := range weekdayLetters {
			if wl.letter == l {
				s |= 1 << uint(wl.day)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, raw)
		}
	}
	return s, nil
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Empty reports whether no weekday is set.
func (s WeekdaySet) Empty() bool {
	return s == 0
}

// Applies reports whether a slot with this filter fires on d.
func (s WeekdaySet) Applies(d time.Weekday) bool {
	return s.Empty() || s.Has(d)
}

// Letters returns the set as weekday letters, Monday first.
func (s WeekdaySet) Letters() []string {
	out := make([]string, 0, 7)
	for _, wl := range weekdayLetters {
		if s.Has(wl.day) {
			out = append(out, wl.letter)
		}
	}
	return out
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS" (seconds are dropped).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns the instant at this time of day on the calendar date of day,
// in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

// DayStart truncates t to midnight of its calendar date in its location.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayWindow returns the half-open window [start of day, start of next day).
func DayWindow(day time.Time) (time.Time, time.Time) {
	start := DayStart(day)
	return start, start.AddDate(0, 0, 1)
}

// ValidateSchedule checks the preconditions for expanding a medication.
func ValidateSchedule(m *Medication) error {
	if DayStart(m.EndDate).Before(DayStart(m.StartDate)) {
		return ErrInvalidDateRange
	}
	if len(m.Schedules) == 0 {
		return ErrNoSchedules
	}
	return nil
}

// ExpandMedication produces one pending reminder per applicable slot for every
// calendar date from StartDate to EndDate inclusive. Dates are taken in
// StartDate's location.
func ExpandMedication(m *Medication) ([]Reminder, error) {
	if err := ValidateSchedule(m); err != nil {
		return nil, err
	}

	loc := m.StartDate.Location()
	first := DayStart(m.StartDate)
	last := DayStart(m.EndDate.In(loc))
	description := MedicationDescription(m.Name, m.Dose)

	days := int(last.Sub(first).Hours()/24) + 1
	out := make([]Reminder, 0, days*len(m.Schedules))
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		for _, slot := range m.Schedules {
			if !slot.Days.Applies(day.Weekday()) {
				continue
			}
			out = append(out, Reminder{
				Kind:        ReminderMedication,
				SourceID:    m.ID,
				PatientID:   m.PatientID,
				DateTime:    slot.TimeOfDay.On(day),
				Status:      ReminderPending,
				Description: description,
			})
		}
	}
	return out, nil
}

// AppointmentReminder derives the single reminder for an appointment.
func AppointmentReminder(a *Appointment) Reminder {
	return Reminder{
		Kind:        ReminderAppointment,
		SourceID:    a.ID,
		PatientID:   a.PatientID,
		DateTime:    a.DateTime,
		Status:      ReminderPending,
		Description: AppointmentDescription(a.Specialty, a.DoctorName),
		Notes:       a.Reason,
	}
}

// MedicationDescription renders "name" or "name - dose".
func MedicationDescription(name, dose string) string {
	if dose == "" {
		return name
	}
	return name + " - " + dose
}

// AppointmentDescription renders "Cita médica[ - specialty][ con doctor]".
func AppointmentDescription(specialty, doctor string) string {
	d := "Cita médica"
	if specialty != "" {
		d += " - " + specialty
	}
	if doctor != "" {
		d += " con " + doctor
	}
	return d
}

// ParseReminderStatus parses a status name, case-insensitively.
func ParseReminderStatus(s string) (ReminderStatus, error) {
	switch st := ReminderStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case ReminderPending, ReminderCompleted, ReminderCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReminderStatus, s)
}

// Next returns the following status in the cycle
// PENDING -> COMPLETED -> CANCELLED -> PENDING. Unknown states restart at PENDING.
func (s ReminderStatus) Next() ReminderStatus {
	switch s {
	case ReminderPending:
		return ReminderCompleted
	case ReminderCompleted:
		return ReminderCancelled
	default:
		return ReminderPending
	}
}
