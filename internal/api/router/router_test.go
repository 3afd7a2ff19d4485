package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"lms-progress/config"
	"lms-progress/internal/api/handler"
	"lms-progress/internal/repository"
	"lms-progress/internal/service"
	"lms-progress/pkg/jwt"
	"lms-progress/pkg/response"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, MaxBodyBytes: 1024},
		Auth: config.AuthConfig{
			JWTSecret:      "router-test-secret-0123456789",
			AccessTokenTTL: time.Hour,
			Issuer:         "lms-progress",
		},
		Progress: config.ProgressConfig{
			AutosaveDebounce: 500 * time.Millisecond,
			EditSessionTTL:   time.Minute,
			BulkConcurrency:  2,
			BulkMaxIDs:       10,
			BulkJobTTL:       time.Hour,
		},
	}
}

// 未触达存储的路由可以用空 Repository 组装
func setupTestRouter(t *testing.T) (http.Handler, *jwt.Manager) {
	t.Helper()
	cfg := testConfig()
	logger := zap.NewNop()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := service.NewService(cfg, &repository.Repository{}, nil, logger)
	return Setup(cfg, handler.NewHandler(svc), jwtMgr, nil, logger), jwtMgr
}

func doRequest(r http.Handler, method, path, token string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doRequest(r, "GET", "/health", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("响应应携带 X-Request-ID")
	}
}

func TestAuthRequired(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := doRequest(r, "GET", "/api/v1/admin/edits/current", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}

	w = doRequest(r, "GET", "/api/v1/admin/edits/current", "not-a-token", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("无效 Token 应返回 401，实际: %d", w.Code)
	}
}

func TestRoleEnforcement(t *testing.T) {
	r, jwtMgr := setupTestRouter(t)
	studentToken, _ := jwtMgr.GenerateAccessToken("st1", jwt.RoleStudent)
	adminToken, _ := jwtMgr.GenerateAccessToken("admin1", jwt.RoleAdmin)

	w := doRequest(r, "GET", "/api/v1/admin/edits/current", studentToken, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("学生访问管理端应返回 403，实际: %d", w.Code)
	}

	w = doRequest(r, "GET", "/api/v1/admin/edits/current", adminToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("管理员访问应返回 200，实际: %d", w.Code)
	}
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}

	w = doRequest(r, "GET", "/api/v1/students/me/semesters", adminToken, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("管理员访问学生端应返回 403，实际: %d", w.Code)
	}
}

func TestBulkPassJob_UnknownIsNotFound(t *testing.T) {
	r, jwtMgr := setupTestRouter(t)
	adminToken, _ := jwtMgr.GenerateAccessToken("admin1", jwt.RoleAdmin)

	// 静态路径 bulk-pass 不应被 /:id 吞掉
	w := doRequest(r, "GET", "/api/v1/admin/progress/bulk-pass/unknown-job", adminToken, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	r, jwtMgr := setupTestRouter(t)
	adminToken, _ := jwtMgr.GenerateAccessToken("admin1", jwt.RoleAdmin)

	ids := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		ids = append(ids, "00000000-0000-0000-0000-000000000000")
	}
	body, _ := json.Marshal(map[string]interface{}{"progress_ids": ids})

	w := doRequest(r, "POST", "/api/v1/admin/progress/bulk-pass", adminToken, string(body))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

func TestEditStart_InvalidBody(t *testing.T) {
	r, jwtMgr := setupTestRouter(t)
	adminToken, _ := jwtMgr.GenerateAccessToken("admin1", jwt.RoleAdmin)

	w := doRequest(r, "POST", "/api/v1/admin/edits", adminToken, `{"progress_id":"p1","field":"status"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
