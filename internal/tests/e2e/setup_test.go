package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cuido/cuidosvc/domain"
	"github.com/cuido/cuidosvc/internal/app"
	"github.com/cuido/cuidosvc/internal/config"
	"github.com/cuido/cuidosvc/internal/infrastructure/auth"
	"github.com/cuido/cuidosvc/internal/infrastructure/database"
	"github.com/cuido/cuidosvc/internal/infrastructure/repositories"
)

// testServer runs the full router over SQLite, miniredis and an in-memory
// blob store.
type testServer struct {
	t      *testing.T
	server *httptest.Server
	c      *app.Container
	redis  *miniredis.Miniredis
	blobs  *memoryBlobs
}

func testConfig() *config.Config {
	return &config.Config{
		GinMode:           gin.TestMode,
		Location:          time.UTC,
		JWTSecret:         "e2e-secret-with-enough-length",
		JWTIssuer:         "cuidosvc-test",
		AccessTTL:         15 * time.Minute,
		RefreshTTL:        24 * time.Hour,
		OTPTTL:            15 * time.Minute,
		OTPSweepInterval:  time.Hour,
		RateLimitCapacity: 1000,
		RateLimitPeriod:   time.Minute,
		MaxUploadBytes:    1 << 20,
		AppURL:            "http://localhost:5173",
		CasbinModelPath:   "../../../config/rbac_model.conf",
	}
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	log := zap.NewNop()
	require.NoError(t, database.AutoMigrate(db, log))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	blobs := newMemoryBlobs()
	c, err := app.NewContainerFrom(cfg, log, domain.SystemClock{}, db, rdb, blobs)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	_, err = c.Casbin.SeedDefaults()
	require.NoError(t, err)

	srv := httptest.NewServer(c.Router())
	t.Cleanup(srv.Close)

	return &testServer{t: t, server: srv, c: c, redis: mr, blobs: blobs}
}

// response is a decoded API envelope.
type response struct {
	Status int
	Header http.Header
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Body   []byte
}

func (r *response) into(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v), "body: %s", r.Body)
}

func (s *testServer) send(req *http.Request, token string) *response {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.server.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)

	out := &response{Status: resp.StatusCode, Header: resp.Header, Body: body}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") && len(body) > 0 {
		require.NoError(s.t, json.Unmarshal(body, out), "body: %s", body)
	}
	return out
}

func (s *testServer) do(method, path, token string, payload interface{}) *response {
	s.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, body)
	require.NoError(s.t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

func (s *testServer) upload(path, token, filename string, content []byte, fields map[string]string) *response {
	s.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("file", filename)
	require.NoError(s.t, err)
	_, err = part.Write(content)
	require.NoError(s.t, err)
	require.NoError(s.t, w.Close())

	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, &buf)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.send(req, token)
}

// account is a registered and logged in user.
type account struct {
	ID           uint
	Email        string
	Password     string
	AccessToken  string
	RefreshToken string
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func (s *testServer) register(name, email, role string) {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"full_name": name,
		"email":     email,
		"password":  "secret123",
		"role":      role,
	})
	require.Equal(s.t, http.StatusCreated, resp.Status, "body: %s", resp.Body)
}

func (s *testServer) login(email, password string) *account {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(s.t, http.StatusOK, resp.Status, "body: %s", resp.Body)

	var lr loginResponse
	resp.into(s.t, &lr)
	return &account{
		ID:           lr.User.ID,
		Email:        email,
		Password:     password,
		AccessToken:  lr.AccessToken,
		RefreshToken: lr.RefreshToken,
	}
}

func (s *testServer) signUp(name, email, role string) *account {
	s.t.Helper()
	s.register(name, email, role)
	return s.login(email, "secret123")
}

// admin inserts an administrator directly, since the public endpoint only
// creates patients and caregivers.
func (s *testServer) admin() *account {
	s.t.Helper()
	hash, err := auth.NewPasswordService().Hash("admin-secret")
	require.NoError(s.t, err)
	now := time.Now()
	require.NoError(s.t, s.c.UserRepo.Create(context.Background(), &domain.User{
		FullName:     "Admin",
		Email:        "admin@cuido.test",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
	return s.login("admin@cuido.test", "admin-secret")
}

// link invites caregiver on behalf of patient and accepts the invitation.
func (s *testServer) link(patient, caregiver *account) uint {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/relationships/invite", patient.AccessToken, map[string]string{
		"caregiver_email": caregiver.Email,
	})
	require.Equal(s.t, http.StatusCreated, resp.Status, "body: %s", resp.Body)
	var rel struct {
		ID uint `json:"id"`
	}
	resp.into(s.t, &rel)

	resp = s.do(http.MethodPost, fmt.Sprintf("/api/relationships/%d/accept", rel.ID), caregiver.AccessToken, nil)
	require.Equal(s.t, http.StatusOK, resp.Status, "body: %s", resp.Body)
	return rel.ID
}

// latestResetCode reads the newest unused reset code issued to userID.
func (s *testServer) latestResetCode(userID uint) string {
	s.t.Helper()
	var row repositories.DBPasswordResetToken
	err := s.c.DB.Where("user_id = ? AND used = ?", userID, false).Order("id DESC").First(&row).Error
	require.NoError(s.t, err)
	return row.Code
}

// memoryBlobs keeps uploaded documents in memory.
type memoryBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{objects: make(map[string][]byte)}
}

func (m *memoryBlobs) Put(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryBlobs) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryBlobs) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
