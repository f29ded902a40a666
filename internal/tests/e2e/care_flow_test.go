package e2e

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reminderJSON struct {
	ID             uint   `json:"id"`
	Kind           string `json:"kind"`
	SourceID       uint   `json:"source_id"`
	Status         string `json:"status"`
	Description    string `json:"description"`
	MedicationName string `json:"medication_name"`
	DoctorName     string `json:"doctor_name"`
}

func (s *testServer) reminders(token, query string) []reminderJSON {
	s.t.Helper()
	resp := s.do(http.MethodGet, "/api/reminders"+query, token, nil)
	require.Equal(s.t, http.StatusOK, resp.Status, "body: %s", resp.Body)
	var out []reminderJSON
	resp.into(s.t, &out)
	return out
}

func TestRelationshipFlow(t *testing.T) {
	s := newTestServer(t)
	patient := s.signUp("Ana", "ana@cuido.test", "PATIENT")
	caregiver := s.signUp("Luis", "luis@cuido.test", "CAREGIVER")
	other := s.signUp("Eva", "eva@cuido.test", "PATIENT")

	resp := s.do(http.MethodPost, "/api/relationships/invite", patient.AccessToken, map[string]string{
		"caregiver_email": other.Email,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Status, "only caregivers can be invited")

	resp = s.do(http.MethodPost, "/api/relationships/invite", caregiver.AccessToken, map[string]string{
		"caregiver_email": patient.Email,
	})
	assert.Equal(t, http.StatusForbidden, resp.Status, "caregivers cannot invite")

	resp = s.do(http.MethodPost, "/api/relationships/invite", patient.AccessToken, map[string]string{
		"caregiver_email": caregiver.Email,
	})
	require.Equal(t, http.StatusCreated, resp.Status, "body: %s", resp.Body)
	var rel struct {
		ID    uint   `json:"id"`
		State string `json:"state"`
	}
	resp.into(t, &rel)
	assert.Equal(t, "PENDING", rel.State)

	resp = s.do(http.MethodPost, "/api/relationships/invite", patient.AccessToken, map[string]string{
		"caregiver_email": caregiver.Email,
	})
	assert.Equal(t, http.StatusConflict, resp.Status)

	resp = s.do(http.MethodGet, "/api/relationships/invitations", caregiver.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var invitations []struct {
		ID uint `json:"id"`
	}
	resp.into(t, &invitations)
	require.Len(t, invitations, 1)

	resp = s.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/accept", rel.ID), caregiver.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = s.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/reject", rel.ID), caregiver.AccessToken, nil)
	assert.Equal(t, http.StatusConflict, resp.Status, "answered invitations stay answered")

	resp = s.do(http.MethodGet, "/api/relationships/caregivers/count", patient.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var count struct {
		Count int64 `json:"count"`
	}
	resp.into(t, &count)
	assert.Equal(t, int64(1), count.Count)

	resp = s.do(http.MethodGet, "/api/relationships/patients", caregiver.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var patients []struct {
		PatientID uint `json:"patient_id"`
	}
	resp.into(t, &patients)
	require.Len(t, patients, 1)
	assert.Equal(t, patient.ID, patients[0].PatientID)

	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/relationships/caregivers/%d", caregiver.ID), patient.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, resp.Status)

	resp = s.do(http.MethodGet, fmt.Sprintf("/api/medications?patient_id=%d", patient.ID), caregiver.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status, "unlinked caregivers lose access")
}

func TestMedicationAndReminderFlow(t *testing.T) {
	s := newTestServer(t)
	patient := s.signUp("Ana", "ana@cuido.test", "PATIENT")
	caregiver := s.signUp("Luis", "luis@cuido.test", "CAREGIVER")
	stranger := s.signUp("Eva", "eva@cuido.test", "CAREGIVER")
	s.link(patient, caregiver)

	medication := map[string]interface{}{
		"patient_id": patient.ID,
		"name":       "Enalapril",
		"dose":       "10mg",
		"start_date": "2026-03-01",
		"end_date":   "2026-03-02",
		"schedules": []map[string]interface{}{
			{"time": "08:00"},
			{"time": "20:00"},
		},
	}

	resp := s.do(http.MethodPost, "/api/medications", patient.AccessToken, medication)
	assert.Equal(t, http.StatusForbidden, resp.Status, "patients cannot create medications")

	resp = s.do(http.MethodPost, "/api/medications", stranger.AccessToken, medication)
	assert.Equal(t, http.StatusForbidden, resp.Status, "unlinked caregivers cannot create medications")

	resp = s.do(http.MethodPost, "/api/medications", caregiver.AccessToken, medication)
	require.Equal(t, http.StatusCreated, resp.Status, "body: %s", resp.Body)
	var med struct {
		ID     uint `json:"id"`
		Active bool `json:"active"`
	}
	resp.into(t, &med)
	assert.True(t, med.Active)

	all := s.reminders(patient.AccessToken, "")
	require.Len(t, all, 4)
	for _, r := range all {
		assert.Equal(t, "MEDICATION", r.Kind)
		assert.Equal(t, "PENDING", r.Status)
		assert.Equal(t, "Enalapril - 10mg", r.Description)
		assert.Equal(t, "Enalapril", r.MedicationName)
	}

	day := s.reminders(caregiver.AccessToken, fmt.Sprintf("?patient_id=%d&date=2026-03-02", patient.ID))
	assert.Len(t, day, 2)

	window := s.reminders(caregiver.AccessToken, fmt.Sprintf("?patient_id=%d&from=2026-03-01&to=2026-03-02", patient.ID))
	assert.Len(t, window, 2, "the window is half-open")

	resp = s.do(http.MethodGet, "/api/reminders", caregiver.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status, "caregivers must name the patient")

	resp = s.do(http.MethodGet, fmt.Sprintf("/api/reminders?patient_id=%d", patient.ID), stranger.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	first := all[0].ID
	resp = s.do(http.MethodPatch, fmt.Sprintf("/api/reminders/%d/cycle", first), patient.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status, "body: %s", resp.Body)
	var cycled reminderJSON
	resp.into(t, &cycled)
	assert.Equal(t, "COMPLETED", cycled.Status)

	resp = s.do(http.MethodPatch, fmt.Sprintf("/api/reminders/%d/status", all[1].ID), caregiver.AccessToken, map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, resp.Status)

	resp = s.do(http.MethodPatch, fmt.Sprintf("/api/reminders/%d/status", all[1].ID), caregiver.AccessToken, map[string]string{"status": "SNOOZED"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	pending := s.reminders(patient.AccessToken, "?status=PENDING")
	assert.Len(t, pending, 2)

	resp = s.do(http.MethodPatch, fmt.Sprintf("/api/medications/%d/deactivate", med.ID), caregiver.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	resp = s.do(http.MethodGet, fmt.Sprintf("/api/medications?patient_id=%d&active=true", patient.ID), caregiver.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var active []struct{}
	resp.into(t, &active)
	assert.Empty(t, active)
	assert.Len(t, s.reminders(patient.AccessToken, ""), 4, "deactivation keeps reminders")

	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/medications/%d", med.ID), caregiver.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, resp.Status)
	assert.Empty(t, s.reminders(patient.AccessToken, ""), "deleting a medication removes its reminders")
}

func TestAppointmentFlow(t *testing.T) {
	s := newTestServer(t)
	patient := s.signUp("Ana", "ana@cuido.test", "PATIENT")
	caregiver := s.signUp("Luis", "luis@cuido.test", "CAREGIVER")
	s.link(patient, caregiver)

	resp := s.do(http.MethodPost, "/api/appointments", caregiver.AccessToken, map[string]interface{}{
		"patient_id":  patient.ID,
		"date_time":   "2026-03-05T10:30:00Z",
		"doctor_name": "Dr. Ruiz",
		"specialty":   "Cardiología",
		"reason":      "Control",
	})
	require.Equal(t, http.StatusCreated, resp.Status, "body: %s", resp.Body)
	var appt struct {
		ID        uint `json:"id"`
		Completed bool `json:"completed"`
	}
	resp.into(t, &appt)

	rems := s.reminders(patient.AccessToken, "")
	require.Len(t, rems, 1)
	assert.Equal(t, "APPOINTMENT", rems[0].Kind)
	assert.Equal(t, appt.ID, rems[0].SourceID)
	assert.Equal(t, "Cita médica - Cardiología con Dr. Ruiz", rems[0].Description)
	assert.Equal(t, "Dr. Ruiz", rems[0].DoctorName)

	resp = s.do(http.MethodPatch, fmt.Sprintf("/api/appointments/%d/complete", appt.ID), patient.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = s.do(http.MethodPatch, fmt.Sprintf("/api/appointments/%d/complete", appt.ID), caregiver.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	resp.into(t, &appt)
	assert.True(t, appt.Completed)

	resp = s.do(http.MethodGet, fmt.Sprintf("/api/appointments/%d", appt.ID), patient.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.Status)

	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/appointments/%d", appt.ID), caregiver.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, resp.Status)
	assert.Empty(t, s.reminders(patient.AccessToken, ""))

	resp = s.do(http.MethodGet, fmt.Sprintf("/api/appointments/%d", appt.ID), patient.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestDocumentFlow(t *testing.T) {
	s := newTestServer(t)
	patient := s.signUp("Ana", "ana@cuido.test", "PATIENT")
	caregiver := s.signUp("Luis", "luis@cuido.test", "CAREGIVER")
	s.link(patient, caregiver)

	content := []byte("%PDF-1.4 lab results")
	resp := s.upload(fmt.Sprintf("/api/documents?patient_id=%d", patient.ID), caregiver.AccessToken, "análisis.pdf", content,
		map[string]string{"type": "STUDY"})
	require.Equal(t, http.StatusCreated, resp.Status, "body: %s", resp.Body)
	var doc struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		UploadedBy  uint   `json:"uploaded_by"`
		Type        string `json:"type"`
		Category    string `json:"category"`
		ContentType string `json:"content_type"`
	}
	resp.into(t, &doc)
	assert.Equal(t, "análisis.pdf", doc.Name)
	assert.Equal(t, caregiver.ID, doc.UploadedBy)
	assert.Equal(t, "STUDY", doc.Type)
	assert.Equal(t, "DOCUMENT", doc.Category)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, 1, s.blobs.len())

	resp = s.upload("/api/documents", patient.AccessToken, "ficha.png", []byte("\x89PNG"),
		map[string]string{"type": "MEDICAL_RECORD"})
	require.Equal(t, http.StatusCreated, resp.Status, "body: %s", resp.Body)

	resp = s.upload("/api/documents", patient.AccessToken, "setup.exe", []byte("MZ"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status, "executables are not accepted")
	assert.Equal(t, 2, s.blobs.len())

	resp = s.do(http.MethodGet, "/api/documents", patient.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var docs []struct {
		Name string `json:"name"`
	}
	resp.into(t, &docs)
	assert.Len(t, docs, 2)

	resp = s.do(http.MethodGet, "/api/documents?type=MEDICAL_RECORD", patient.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	resp.into(t, &docs)
	require.Len(t, docs, 1)
	assert.Equal(t, "ficha.png", docs[0].Name)

	resp = s.do(http.MethodGet, "/api/documents?category=IMAGE", patient.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	resp.into(t, &docs)
	assert.Len(t, docs, 1)

	resp = s.do(http.MethodGet, fmt.Sprintf("/api/documents/%d/download", doc.ID), patient.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, content, resp.Body)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	resp = s.upload("/api/documents", patient.AccessToken, "huge.bin", make([]byte, (1<<20)+1), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/documents/%d", doc.ID), patient.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, resp.Status)
	assert.Equal(t, 1, s.blobs.len())
}

func TestPatientProfileFlow(t *testing.T) {
	s := newTestServer(t)
	patient := s.signUp("Ana", "ana@cuido.test", "PATIENT")
	caregiver := s.signUp("Luis", "luis@cuido.test", "CAREGIVER")
	stranger := s.signUp("Eva", "eva@cuido.test", "CAREGIVER")

	resp := s.do(http.MethodPut, "/api/patients/me/profile", patient.AccessToken, map[string]interface{}{
		"blood_type":       "0+",
		"weight_kg":        70,
		"health_insurance": "OSDE",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Status, "unknown blood type")

	resp = s.do(http.MethodPut, "/api/patients/me/profile", patient.AccessToken, map[string]interface{}{
		"blood_type":       "o+",
		"weight_kg":        70.5,
		"height_cm":        162,
		"allergies":        "penicilina",
		"health_insurance": "OSDE",
		"member_number":    "61 234 567 8 01",
	})
	require.Equal(t, http.StatusOK, resp.Status, "body: %s", resp.Body)
	var profile struct {
		PatientID       uint     `json:"patient_id"`
		BloodType       string   `json:"blood_type"`
		WeightKg        *float64 `json:"weight_kg"`
		HealthInsurance string   `json:"health_insurance"`
		Notes           string   `json:"notes"`
	}
	resp.into(t, &profile)
	assert.Equal(t, patient.ID, profile.PatientID)
	assert.Equal(t, "O+", profile.BloodType)

	profilePath := fmt.Sprintf("/api/patients/%d/profile", patient.ID)
	resp = s.do(http.MethodGet, profilePath, caregiver.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status, "not linked yet")

	s.link(patient, caregiver)

	resp = s.do(http.MethodPut, profilePath, caregiver.AccessToken, map[string]interface{}{"notes": "usa bastón"})
	require.Equal(t, http.StatusOK, resp.Status, "body: %s", resp.Body)
	resp.into(t, &profile)
	assert.Equal(t, "usa bastón", profile.Notes)
	assert.Equal(t, "OSDE", profile.HealthInsurance)
	require.NotNil(t, profile.WeightKg)
	assert.Equal(t, 70.5, *profile.WeightKg)

	resp = s.do(http.MethodGet, profilePath, stranger.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = s.do(http.MethodGet, "/api/relationships/patients", caregiver.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var linked []struct {
		PatientID uint `json:"patient_id"`
		Profile   *struct {
			BloodType string `json:"blood_type"`
			Notes     string `json:"notes"`
		} `json:"patient_profile"`
	}
	resp.into(t, &linked)
	require.Len(t, linked, 1)
	require.NotNil(t, linked[0].Profile)
	assert.Equal(t, "O+", linked[0].Profile.BloodType)
	assert.Equal(t, "usa bastón", linked[0].Profile.Notes)
}

func TestAdminPolicies(t *testing.T) {
	s := newTestServer(t)
	patient := s.signUp("Ana", "ana@cuido.test", "PATIENT")
	admin := s.admin()

	resp := s.do(http.MethodGet, "/api/admin/policies", patient.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = s.do(http.MethodGet, "/api/admin/policies", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var policies [][]string
	resp.into(t, &policies)
	assert.NotEmpty(t, policies)

	rule := map[string]string{"role": "role_PATIENT", "resource": "/api/reminders", "action": "GET"}
	resp = s.do(http.MethodDelete, "/api/admin/policies", admin.AccessToken, rule)
	require.Equal(t, http.StatusNoContent, resp.Status)

	resp = s.do(http.MethodGet, "/api/reminders", patient.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = s.do(http.MethodPost, "/api/admin/policies", admin.AccessToken, rule)
	require.Equal(t, http.StatusNoContent, resp.Status)

	resp = s.do(http.MethodGet, "/api/reminders", patient.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.Status)
}
