package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/taskdeck-be/internal/auth"
	"github.com/isdelr/taskdeck-be/internal/config"
	"github.com/isdelr/taskdeck-be/internal/database"
	"github.com/isdelr/taskdeck-be/internal/models"
	"github.com/isdelr/taskdeck-be/internal/services"
)

func newTestRouter(t *testing.T, mode config.Mode) http.Handler {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cfg := &config.Config{
		Mode:           mode,
		JWTSecret:      "test-secret",
		TokenTTL:       30 * time.Minute,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	return NewRouter(cfg, tokens, services.NewUserService(db), services.NewTaskService(db))
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type authResponse struct {
	Session struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	} `json:"session"`
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
}

func signUp(t *testing.T, router http.Handler, name, email, password string) authResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/auth/sign-up/email", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("sign-up: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("sign-up: failed to decode response: %v", err)
	}
	return resp
}

func TestSignUpAndSignIn(t *testing.T) {
	router := newTestRouter(t, config.Production)

	resp := signUp(t, router, "Alice", "alice@x.com", "pw1")
	if resp.Session.AccessToken == "" || resp.Session.TokenType != "bearer" {
		t.Errorf("unexpected session: %+v", resp.Session)
	}
	if resp.User.ID == "" || resp.User.Email != "alice@x.com" || resp.User.Name != "Alice" {
		t.Errorf("unexpected user: %+v", resp.User)
	}

	// The issued token's subject resolves to the created user.
	tokens := auth.NewTokenService("test-secret", 30*time.Minute)
	identity, err := tokens.Verify(resp.Session.AccessToken)
	if err != nil {
		t.Fatalf("failed to verify issued token: %v", err)
	}
	if identity.UserID != resp.User.ID {
		t.Errorf("token subject %q does not match created user %q", identity.UserID, resp.User.ID)
	}

	// All three sign-up fields are required.
	for _, body := range []map[string]string{
		{"email": "carol@x.com", "password": "pw3"},
		{"name": "Carol", "password": "pw3"},
		{"name": "Carol", "email": "carol@x.com"},
	} {
		if rec := doJSON(t, router, http.MethodPost, "/api/auth/sign-up/email", "", body); rec.Code != http.StatusBadRequest {
			t.Errorf("sign-up with missing field %v: expected 400, got %d", body, rec.Code)
		}
	}

	// Duplicate email registers as a conflict on the public contract.
	rec := doJSON(t, router, http.MethodPost, "/api/auth/sign-up/email", "", map[string]string{
		"name": "Alice Again", "email": "alice@x.com", "password": "pw2",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate email: expected 400, got %d", rec.Code)
	}

	// Sign-in returns the same shape.
	rec = doJSON(t, router, http.MethodPost, "/api/auth/sign-in/email", "", map[string]string{
		"email": "alice@x.com", "password": "pw1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("sign-in: expected 200, got %d", rec.Code)
	}
}

func TestSignIn_UniformFailure(t *testing.T) {
	router := newTestRouter(t, config.Production)
	signUp(t, router, "Alice", "alice@x.com", "pw1")

	wrongPassword := doJSON(t, router, http.MethodPost, "/api/auth/sign-in/email", "", map[string]string{
		"email": "alice@x.com", "password": "nope",
	})
	unknownEmail := doJSON(t, router, http.MethodPost, "/api/auth/sign-in/email", "", map[string]string{
		"email": "nobody@x.com", "password": "pw1",
	})

	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Error("login failures must be indistinguishable")
	}
}

func TestSignOut(t *testing.T) {
	router := newTestRouter(t, config.Production)
	rec := doJSON(t, router, http.MethodPost, "/api/auth/sign-out", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMe(t *testing.T) {
	router := newTestRouter(t, config.Production)
	alice := signUp(t, router, "Alice", "alice@x.com", "pw1")

	rec := doJSON(t, router, http.MethodGet, "/api/auth/me", alice.Session.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var user struct {
		ID string `json:"id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &user)
	if user.ID != alice.User.ID {
		t.Errorf("expected user %q, got %q", alice.User.ID, user.ID)
	}

	if rec := doJSON(t, router, http.MethodGet, "/api/auth/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}

// Full lifecycle: register -> create -> toggle -> cross-user access denied.
func TestTaskLifecycle(t *testing.T) {
	router := newTestRouter(t, config.Production)

	alice := signUp(t, router, "Alice", "alice@x.com", "pw1")
	base := "/api/" + alice.User.ID + "/tasks"

	rec := doJSON(t, router, http.MethodPost, base, alice.Session.AccessToken, map[string]string{
		"title": "buy milk",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var task models.Task
	json.Unmarshal(rec.Body.Bytes(), &task)
	if task.Completed {
		t.Error("new task must start incomplete")
	}
	if task.UserID != alice.User.ID {
		t.Errorf("expected owner %q, got %q", alice.User.ID, task.UserID)
	}

	taskPath := base + "/" + itoa(task.ID)

	time.Sleep(5 * time.Millisecond)
	rec = doJSON(t, router, http.MethodPatch, taskPath+"/complete", alice.Session.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d", rec.Code)
	}
	var toggled models.Task
	json.Unmarshal(rec.Body.Bytes(), &toggled)
	if !toggled.Completed {
		t.Error("expected completed=true after toggle")
	}
	if !toggled.UpdatedAt.After(task.UpdatedAt) {
		t.Error("expected updatedAt to change on toggle")
	}

	// A second user's token against alice's path id is forbidden.
	bob := signUp(t, router, "Bob", "bob@x.com", "pw2")
	rec = doJSON(t, router, http.MethodPatch, taskPath+"/complete", bob.Session.AccessToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("cross-user toggle: expected 403, got %d", rec.Code)
	}

	// Delete, then delete again.
	rec = doJSON(t, router, http.MethodDelete, taskPath, alice.Session.AccessToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodDelete, taskPath, alice.Session.AccessToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
}

func TestTaskValidationOverHTTP(t *testing.T) {
	router := newTestRouter(t, config.Production)
	alice := signUp(t, router, "Alice", "alice@x.com", "pw1")
	base := "/api/" + alice.User.ID + "/tasks"

	rec := doJSON(t, router, http.MethodPost, base, alice.Session.AccessToken, map[string]string{
		"title": strings.Repeat("x", 201),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized title: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, base, alice.Session.AccessToken, map[string]string{
		"description": "no title",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing title: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, base+"/not-a-number", alice.Session.AccessToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id: expected 400, got %d", rec.Code)
	}
}

func TestTaskList_FilterOverHTTP(t *testing.T) {
	router := newTestRouter(t, config.Production)
	alice := signUp(t, router, "Alice", "alice@x.com", "pw1")
	base := "/api/" + alice.User.ID + "/tasks"

	rec := doJSON(t, router, http.MethodPost, base, alice.Session.AccessToken, map[string]string{"title": "one"})
	var first models.Task
	json.Unmarshal(rec.Body.Bytes(), &first)
	doJSON(t, router, http.MethodPost, base, alice.Session.AccessToken, map[string]string{"title": "two"})
	doJSON(t, router, http.MethodPatch, base+"/"+itoa(first.ID)+"/complete", alice.Session.AccessToken, nil)

	var tasks []models.Task
	rec = doJSON(t, router, http.MethodGet, base+"?status=pending", alice.Session.AccessToken, nil)
	json.Unmarshal(rec.Body.Bytes(), &tasks)
	if len(tasks) != 1 || tasks[0].Completed {
		t.Errorf("status=pending: expected one incomplete task, got %+v", tasks)
	}

	rec = doJSON(t, router, http.MethodGet, base+"?status=completed", alice.Session.AccessToken, nil)
	json.Unmarshal(rec.Body.Bytes(), &tasks)
	if len(tasks) != 1 || !tasks[0].Completed {
		t.Errorf("status=completed: expected one completed task, got %+v", tasks)
	}

	rec = doJSON(t, router, http.MethodGet, base, alice.Session.AccessToken, nil)
	json.Unmarshal(rec.Body.Bytes(), &tasks)
	if len(tasks) != 2 {
		t.Errorf("default: expected both tasks, got %d", len(tasks))
	}
}

func TestTaskResponse_ExternalFieldNames(t *testing.T) {
	router := newTestRouter(t, config.Production)
	alice := signUp(t, router, "Alice", "alice@x.com", "pw1")
	base := "/api/" + alice.User.ID + "/tasks"

	rec := doJSON(t, router, http.MethodPost, base, alice.Session.AccessToken, map[string]string{"title": "buy milk"})
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, field := range []string{"id", "userId", "title", "description", "completed", "createdAt", "updatedAt"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("expected external field %q in response", field)
		}
	}
	for _, field := range []string{"user_id", "created_at", "updated_at"} {
		if _, ok := raw[field]; ok {
			t.Errorf("internal field name %q leaked into response", field)
		}
	}
}

func TestDevelopmentMode_MockHeaderEndToEnd(t *testing.T) {
	router := newTestRouter(t, config.Development)

	req := httptest.NewRequest(http.MethodPost, "/api/mock-7/tasks", bytes.NewReader([]byte(`{"title":"dev task"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.MockUserHeader, "mock-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, config.Production)

	rec := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", rec.Code)
	}
	var health map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Errorf("health: body is not valid JSON: %v", err)
	}
	if health["status"] != "healthy" || health["environment"] != string(config.Production) {
		t.Errorf("health: unexpected body %v", health)
	}

	rec = doJSON(t, router, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("root: expected 200, got %d", rec.Code)
	}
	var root map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &root); err != nil {
		t.Errorf("root: body is not valid JSON: %v", err)
	}
	if root["message"] == "" || root["environment"] != string(config.Production) {
		t.Errorf("root: unexpected body %v", root)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
