package repositories

// Models lists every table owned by this package, in migration order.
func Models() []interface{} {
	return []interface{}{
		&DBUser{},
		&DBRelationship{},
		&DBPatientProfile{},
		&DBMedication{},
		&DBScheduleSlot{},
		&DBAppointment{},
		&DBReminder{},
		&DBPasswordResetToken{},
		&DBDocument{},
		&DBTask{},
		&DBLogEntry{},
		&DBEmergencyContact{},
	}
}
