package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuido/cuidosvc/domain"
	"github.com/cuido/cuidosvc/internal/http/middleware"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withActor stands in for AuthMiddleware.
func withActor(a domain.Actor, sessionID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, a.ID)
		c.Set(middleware.ContextUserRole, a.Role)
		c.Set(middleware.ContextEmail, a.Email)
		if sessionID != "" {
			c.Set(middleware.ContextSessionID, sessionID)
		}
		c.Next()
	}
}

var (
	patientActor   = domain.Actor{ID: 10, Role: domain.RolePatient, Email: "paciente@example.com"}
	caregiverActor = domain.Actor{ID: 20, Role: domain.RoleCaregiver, Email: "cuidador@example.com"}
)

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
	}
	return body
}

func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	d, ok := decode(t, w)["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %s", w.Body.String())
	}
	return d
}

func dataList(t *testing.T, w *httptest.ResponseRecorder) []interface{} {
	t.Helper()

	d, ok := decode(t, w)["data"].([]interface{})
	if !ok {
		t.Fatalf("response has no data list: %s", w.Body.String())
	}
	return d
}
