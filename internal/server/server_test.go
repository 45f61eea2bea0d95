package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"detox-form-api/internal/common/auth"
	"detox-form-api/internal/common/config"
	"detox-form-api/internal/common/logger"
	"detox-form-api/internal/guard"
	"detox-form-api/internal/models"
	"detox-form-api/internal/stats"
	"detox-form-api/internal/store"
)

type recordingMirror struct {
	appended chan *models.Application
}

func (m *recordingMirror) Append(_ context.Context, app *models.Application) error {
	m.appended <- app
	return nil
}

type recordingMailer struct {
	notified chan *models.Application
}

func (m *recordingMailer) NotifySubmission(_ context.Context, app *models.Application) error {
	m.notified <- app
	return nil
}

type testEnv struct {
	server *Server
	store  *store.Store
	tokens *auth.TokenManager
	mirror *recordingMirror
	mailer *recordingMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := logger.NewNoOpLogger()
	dataDir := t.TempDir()
	uploadsDir := t.TempDir()

	st, err := store.New(dataDir, log)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.Name = "detox-form-api"
	cfg.App.Version = "test"
	cfg.Server.Port = 0
	cfg.Server.BodyLimit = 10 * 1024 * 1024
	cfg.Server.ShutdownTimeout = 1000
	cfg.Admin.Email = "admin@example.com"
	cfg.Admin.Password = "test-password"
	cfg.Admin.JWTSecret = "test-secret"
	cfg.Admin.TokenExpiry = 1
	cfg.RateLimit.Window = 60000
	cfg.RateLimit.MaxRequests = 1000
	cfg.Uploads.MaxFileSize = 5 * 1024 * 1024
	cfg.Uploads.MaxFiles = 5
	cfg.Uploads.AllowedTypes = []string{"jpg", "jpeg", "png", "pdf", "doc", "docx"}

	tokens := auth.NewTokenManager(cfg.Admin.JWTSecret, cfg.Admin.TokenExpiry)
	engine := stats.New(uploadsDir, "UTC", log)
	g := guard.NewMemory(ctx, 2*time.Minute, 5*time.Minute, time.Minute, log)

	mirror := &recordingMirror{appended: make(chan *models.Application, 8)}
	mailer := &recordingMailer{notified: make(chan *models.Application, 8)}

	srv := New(Deps{
		Config:       cfg,
		Logger:       log,
		Tokens:       tokens,
		Applications: NewApplicationHandler(st, g, mirror, mailer, log),
		Admin:        NewAdminHandler(cfg.Admin, tokens, st, engine, nil, uploadsDir, log),
		Files:        NewFilesHandler(uploadsDir, cfg.Uploads, log),
		Obs:          nil,
	})

	return &testEnv{server: srv, store: st, tokens: tokens, mirror: mirror, mailer: mailer}
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := e.tokens.Issue("admin@example.com")
	require.NoError(t, err)
	return token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.server.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func validSubmission() map[string]interface{} {
	return map[string]interface{}{
		"fullName":         "Ayşe Yılmaz",
		"age":              32,
		"height":           168,
		"weight":           60,
		"occupation":       "Mühendis",
		"email":            "ayse@example.com",
		"phone":            "05321234567",
		"healthConditions": []string{"Tansiyon"},
		"aydinlatmaMetni":  "Okudum",
		"acikRizaMetni":    "Onaylıyorum",
	}
}

func TestSubmitApplication(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/v1/applications", "", validSubmission())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["applicationId"])
	assert.NotEmpty(t, data["submissionTime"])
	assert.Equal(t, "pending", data["status"])

	select {
	case app := <-env.mirror.appended:
		assert.Equal(t, "Ayşe Yılmaz", app.FullName)
	case <-time.After(time.Second):
		t.Fatal("submission was not mirrored to the sheet")
	}
	select {
	case app := <-env.mailer.notified:
		assert.Equal(t, data["applicationId"], app.ID)
	case <-time.After(time.Second):
		t.Fatal("submission did not trigger a notification")
	}
}

func TestSubmitValidationFailure(t *testing.T) {
	env := newTestEnv(t)

	payload := validSubmission()
	payload["age"] = 15
	payload["email"] = "not-an-email"

	resp := env.request(t, http.MethodPost, "/api/v1/applications", "", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	assert.Equal(t, false, body["success"])
	errs := body["errors"].([]interface{})
	assert.Len(t, errs, 2)
}

func TestSubmitPayloadShapeFailure(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]interface{}{
		"fullName": 42,
	}

	resp := env.request(t, http.MethodPost, "/api/v1/applications", "", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitDuplicateBlocked(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/v1/applications", "", validSubmission())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.request(t, http.MethodPost, "/api/v1/applications", "", validSubmission())
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	assert.Contains(t, body["message"], "2 dakika")
}

func TestSubmitDuplicateBlockedBeforeValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/v1/applications", "", validSubmission())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// an invalid resubmission inside the cooldown is still throttled
	payload := validSubmission()
	payload["email"] = "not-an-email"
	resp = env.request(t, http.MethodPost, "/api/v1/applications", "", payload)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestSubmitInvalidAttemptStartsCooldown(t *testing.T) {
	env := newTestEnv(t)

	payload := validSubmission()
	payload["email"] = "not-an-email"
	resp := env.request(t, http.MethodPost, "/api/v1/applications", "", payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// the failed attempt already claimed the fingerprint
	resp = env.request(t, http.MethodPost, "/api/v1/applications", "", validSubmission())
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestSubmitNonNumericAgeReportsFieldError(t *testing.T) {
	env := newTestEnv(t)

	payload := validSubmission()
	payload["age"] = "abc"

	resp := env.request(t, http.MethodPost, "/api/v1/applications", "", payload)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	errs := body["errors"].([]interface{})
	require.Len(t, errs, 1)
	first := errs[0].(map[string]interface{})
	assert.Equal(t, "age", first["field"])
}

func TestApplicationListRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/v1/applications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/v1/applications", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestApplicationLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodPost, "/api/v1/applications", "", validSubmission())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeEnvelope(t, resp)["data"].(map[string]interface{})["applicationId"].(string)

	// list
	resp = env.request(t, http.MethodGet, "/api/v1/applications?status=pending", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	assert.Len(t, data["applications"], 1)

	// fetch full record
	resp = env.request(t, http.MethodGet, "/api/v1/applications/"+id, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// approve with a note
	resp = env.request(t, http.MethodPut, "/api/v1/applications/"+id+"/status", token, map[string]string{
		"status":     "approved",
		"adminNotes": "uygun",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	app, err := env.store.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, "approved", app.Status)
	assert.Equal(t, "uygun", app.AdminNotes)

	// soft delete
	resp = env.request(t, http.MethodDelete, "/api/v1/applications/"+id, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/v1/applications/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodPost, "/api/v1/applications", "", validSubmission())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeEnvelope(t, resp)["data"].(map[string]interface{})["applicationId"].(string)

	resp = env.request(t, http.MethodPut, "/api/v1/applications/"+id+"/status", token, map[string]string{
		"status": "archived",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("wrong password", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/v1/admin/login", "", map[string]string{
			"email":    "admin@example.com",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid credentials", func(t *testing.T) {
		resp := env.request(t, http.MethodPost, "/api/v1/admin/login", "", map[string]string{
			"email":    "admin@example.com",
			"password": "test-password",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		data := decodeEnvelope(t, resp)["data"].(map[string]interface{})
		token := data["token"].(string)
		require.NotEmpty(t, token)

		user := data["user"].(map[string]interface{})
		assert.Equal(t, "admin", user["role"])

		// the issued token opens the admin endpoints
		resp = env.request(t, http.MethodGet, "/api/v1/admin/dashboard", token, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAdminDashboard(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodPost, "/api/v1/applications", "", validSubmission())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/v1/admin/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	overview := data["overview"].(map[string]interface{})
	assert.Equal(t, float64(1), overview["totalApplications"])
	assert.Equal(t, float64(1), overview["pendingApplications"])
	assert.Len(t, data["dailyStatistics"], 30)
}

func TestAdminStatistics(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodGet, "/api/v1/admin/statistics?period=7d", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, "7d", data["period"])

	dist := data["timeDistribution"].(map[string]interface{})
	assert.Len(t, dist["hourly"], 24)
	assert.Len(t, dist["weekday"], 7)
}

func TestAdminSystem(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodGet, "/api/v1/admin/system", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	server := data["server"].(map[string]interface{})
	assert.NotEmpty(t, server["goVersion"])
	assert.NotEmpty(t, data["storage"])
}

func TestAdminSheetsDisabled(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodGet, "/api/v1/admin/sheets/test", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodPost, "/api/v1/applications", "", validSubmission())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/v1/admin/export/applications?format=csv", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "applications_")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), ".csv")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), `"ID","Ad Soyad"`))
	assert.Contains(t, string(raw), "Ayşe Yılmaz")
}

func TestExportUnknownFormat(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodGet, "/api/v1/admin/export/applications?format=xml", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("files", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestFileUploadAndServe(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	buf, contentType := multipartBody(t, "kan_tahlili.pdf", []byte("%PDF-1.4 test"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", buf)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp, err := env.server.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	files := data["files"].([]interface{})
	require.Len(t, files, 1)

	uploaded := files[0].(map[string]interface{})
	assert.Equal(t, "kan_tahlili.pdf", uploaded["originalName"])
	name := uploaded["filename"].(string)
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.NotEqual(t, "kan_tahlili.pdf", name, "stored name is randomized")

	// download renders inline for PDFs
	resp = env.request(t, http.MethodGet, "/api/v1/files/"+name, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "inline", resp.Header.Get(fiber.HeaderContentDisposition))

	// info
	resp = env.request(t, http.MethodGet, "/api/v1/files/"+name+"/info", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, name, info["filename"])

	// list
	resp = env.request(t, http.MethodGet, "/api/v1/files", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listing := decodeEnvelope(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), listing["count"])

	// delete, then the file is gone
	resp = env.request(t, http.MethodDelete, "/api/v1/files/"+name, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/v1/files/"+name, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFileUploadRejectsDisallowedType(t *testing.T) {
	env := newTestEnv(t)

	buf, contentType := multipartBody(t, "script.exe", []byte("MZ"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", buf)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp, err := env.server.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFileTraversalRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	resp := env.request(t, http.MethodGet, "/api/v1/files/..%2F..%2Fetc%2Fpasswd/info", token, nil)
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestHealthAndServiceDescription(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/v1/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "detox-form-api", body["service"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	// generate at least one sample before scraping
	resp := env.request(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "http_requests_total")
}
