package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"lms-progress/internal/autosave"
	"lms-progress/internal/dto"
	"lms-progress/internal/service"
	"lms-progress/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ProgressService ──

type mockProgressService struct {
	result    *dto.ProgressResponse
	err       error
	lastCount int
	lastLink  string
}

func (m *mockProgressService) RecordSession(_ context.Context, _, _ string, count int) (*dto.ProgressResponse, error) {
	m.lastCount = count
	return m.result, m.err
}
func (m *mockProgressService) SubmitProject(_ context.Context, _, _, link string) (*dto.ProgressResponse, error) {
	m.lastLink = link
	return m.result, m.err
}
func (m *mockProgressService) GetRecord(_ context.Context, _ string) (*dto.ProgressResponse, error) {
	return m.result, m.err
}

// ── Mock CurriculumService ──

type mockCurriculumService struct {
	program  *dto.SemesterProgramResponse
	major    *dto.MajorCurriculumResponse
	majors   []dto.MajorResponse
	tracking *dto.CourseTrackingResponse
	err      error
}

func (m *mockCurriculumService) GetSemesterProgram(_ context.Context, _ string) (*dto.SemesterProgramResponse, error) {
	return m.program, m.err
}
func (m *mockCurriculumService) GetMajorCurriculum(_ context.Context, _ string) (*dto.MajorCurriculumResponse, error) {
	return m.major, m.err
}
func (m *mockCurriculumService) SelectMajor(_ context.Context, _, _ string) (*dto.MajorCurriculumResponse, error) {
	return m.major, m.err
}
func (m *mockCurriculumService) ListMajors(_ context.Context) ([]dto.MajorResponse, error) {
	return m.majors, m.err
}
func (m *mockCurriculumService) GetCourseTracking(_ context.Context, _ string) (*dto.CourseTrackingResponse, error) {
	return m.tracking, m.err
}

// ── Mock ApprovalService ──

type mockApprovalService struct {
	approveResult *dto.ApprovalResult
	approveErr    error
	rejectResult  *dto.ProgressResponse
	rejectErr     error
	lastReason    string
	lastAdmin     string
	pending       []dto.PendingApprovalItem
	pendingTotal  int64
}

func (m *mockApprovalService) Approve(_ context.Context, _, adminID string) (*dto.ApprovalResult, error) {
	m.lastAdmin = adminID
	return m.approveResult, m.approveErr
}
func (m *mockApprovalService) Reject(_ context.Context, _, reason, adminID string) (*dto.ProgressResponse, error) {
	m.lastReason = reason
	m.lastAdmin = adminID
	return m.rejectResult, m.rejectErr
}
func (m *mockApprovalService) ListPending(_ context.Context, _ *dto.PaginationRequest) ([]dto.PendingApprovalItem, int64, error) {
	return m.pending, m.pendingTotal, nil
}

// ── Mock BulkPassService ──

type mockBulkPassService struct {
	job     *dto.BulkPassJob
	err     error
	lastIDs []string
}

func (m *mockBulkPassService) BulkPass(_ context.Context, _ []string, _ string, _ service.ProgressFunc) (*dto.BulkPassResult, error) {
	return nil, m.err
}
func (m *mockBulkPassService) StartBulkPass(_ context.Context, ids []string, _ string) (*dto.BulkPassJob, error) {
	m.lastIDs = ids
	return m.job, m.err
}
func (m *mockBulkPassService) GetBulkPassJob(_ context.Context, _ string) (*dto.BulkPassJob, error) {
	return m.job, m.err
}
func (m *mockBulkPassService) CancelBulkPassJob(_ context.Context, _ string) (*dto.BulkPassJob, error) {
	return m.job, m.err
}
func (m *mockBulkPassService) Wait() {}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportBulkPassReport(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock InlineEditService ──

type mockEditService struct {
	state   *dto.EditStateResponse
	err     error
	lastRaw json.RawMessage
}

func (m *mockEditService) Start(_ context.Context, _ string, _ *dto.StartEditRequest) (*dto.EditStateResponse, error) {
	return m.state, m.err
}
func (m *mockEditService) Update(_ context.Context, _ string, raw json.RawMessage) (*dto.EditStateResponse, error) {
	m.lastRaw = raw
	return m.state, m.err
}
func (m *mockEditService) Save(_ context.Context, _ string) (*dto.EditStateResponse, error) {
	return m.state, m.err
}
func (m *mockEditService) Cancel(_ context.Context, _ string) error {
	return m.err
}
func (m *mockEditService) State(_ context.Context, _ string) (*dto.EditStateResponse, error) {
	return m.state, m.err
}

// ── Mock NotificationService ──

type mockNotificationService struct {
	list  []dto.NotificationResponse
	total int64
	err   error
}

func (m *mockNotificationService) List(_ context.Context, _ string, _ *dto.PaginationRequest) ([]dto.NotificationResponse, int64, error) {
	return m.list, m.total, m.err
}
func (m *mockNotificationService) UnreadCount(_ context.Context, _ string) (int64, error) {
	return m.total, m.err
}
func (m *mockNotificationService) MarkRead(_ context.Context, _, _ string) error {
	return m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func withAuth(userID, role string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		h(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(method, route, path string, body io.Reader, h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, h)
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// 错误映射
// ═══════════════════════════════════════════════════════════

func TestRespondError_KindToStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"not found", service.ErrProgressNotFound, http.StatusNotFound, codeNotFound},
		{"validation", service.ErrRejectReasonRequired, http.StatusBadRequest, codeValidation},
		{"terminal", service.ErrAlreadyCompleted, http.StatusConflict, codeAlreadyTerminal},
		{"store", errors.New("connection refused"), http.StatusInternalServerError, 50000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve("GET", "/x", "/x", nil, func(c *gin.Context) { respondError(c, tc.err) })
			if w.Code != tc.status {
				t.Errorf("expected %d, got %d", tc.status, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tc.code {
				t.Errorf("expected code %d, got %d", tc.code, resp.Code)
			}
		})
	}
}

func TestRespondError_HidesStoreDetail(t *testing.T) {
	w := serve("GET", "/x", "/x", nil, func(c *gin.Context) {
		respondError(c, errors.New("pq: password authentication failed"))
	})
	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("存储错误细节不应返回给客户端: %s", w.Body.String())
	}
}

// ═══════════════════════════════════════════════════════════
// StudentHandler
// ═══════════════════════════════════════════════════════════

func TestStudentHandler_RecordSession_EmptyBody(t *testing.T) {
	mock := &mockProgressService{result: &dto.ProgressResponse{ID: "p1", CompletedSessions: 1}}
	h := NewStudentHandler(mock, &mockCurriculumService{})

	w := serve("POST", "/courses/:courseId/sessions", "/courses/c1/sessions", nil,
		withAuth("st1", "student", h.RecordSession))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.lastCount != 0 {
		t.Errorf("空请求体应交由 Service 使用默认值，实际 count=%d", mock.lastCount)
	}
}

func TestStudentHandler_RecordSession_Locked(t *testing.T) {
	mock := &mockProgressService{err: service.ErrCourseLocked}
	h := NewStudentHandler(mock, &mockCurriculumService{})

	w := serve("POST", "/courses/:courseId/sessions", "/courses/c2/sessions", jsonBody(dto.RecordSessionRequest{Count: 2}),
		withAuth("st1", "student", h.RecordSession))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if mock.lastCount != 2 {
		t.Errorf("expected count 2, got %d", mock.lastCount)
	}
}

func TestStudentHandler_SubmitProject(t *testing.T) {
	mock := &mockProgressService{result: &dto.ProgressResponse{ID: "p1", ProjectsSubmitted: 1}}
	h := NewStudentHandler(mock, &mockCurriculumService{})

	w := serve("POST", "/courses/:courseId/projects", "/courses/c1/projects", jsonBody(dto.SubmitProjectRequest{Link: "https://x.io/a"}),
		withAuth("st1", "student", h.SubmitProject))

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if mock.lastLink != "https://x.io/a" {
		t.Errorf("expected link passed through, got %q", mock.lastLink)
	}
}

func TestStudentHandler_SubmitProject_MissingLink(t *testing.T) {
	h := NewStudentHandler(&mockProgressService{}, &mockCurriculumService{})

	w := serve("POST", "/courses/:courseId/projects", "/courses/c1/projects", jsonBody(map[string]string{}),
		withAuth("st1", "student", h.SubmitProject))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != codeBadParams {
		t.Errorf("expected code %d, got %d", codeBadParams, resp.Code)
	}
}

func TestStudentHandler_Unauthenticated(t *testing.T) {
	h := NewStudentHandler(&mockProgressService{}, &mockCurriculumService{program: &dto.SemesterProgramResponse{}})

	w := serve("GET", "/semesters", "/semesters", nil, h.GetSemesterProgram)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestStudentHandler_SelectMajor_NotFound(t *testing.T) {
	h := NewStudentHandler(&mockProgressService{}, &mockCurriculumService{err: service.ErrMajorNotFound})

	w := serve("PUT", "/major", "/major", jsonBody(dto.SelectMajorRequest{MajorID: "nope"}),
		withAuth("st1", "student", h.SelectMajor))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ApprovalHandler
// ═══════════════════════════════════════════════════════════

func TestApprovalHandler_Approve(t *testing.T) {
	mock := &mockApprovalService{approveResult: &dto.ApprovalResult{
		Progress:            &dto.ProgressResponse{ID: "p1", Status: "completed"},
		UnlockResult:        dto.UnlockResult{Courses: []string{"c2"}, Semesters: []string{}, MajorCourses: []string{}},
		NotificationCreated: true,
	}}
	h := NewApprovalHandler(mock, &mockProgressService{}, &mockCurriculumService{})

	w := serve("POST", "/progress/:id/approve", "/progress/p1/approve", nil, withAuth("admin1", "admin", h.Approve))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastAdmin != "admin1" {
		t.Errorf("审核人应取自认证信息，实际: %s", mock.lastAdmin)
	}
	var body struct {
		Data dto.ApprovalResult `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Data.UnlockResult.Courses) != 1 || !body.Data.NotificationCreated {
		t.Errorf("响应内容不正确: %+v", body.Data)
	}
}

func TestApprovalHandler_Reject_AlreadyCompleted(t *testing.T) {
	mock := &mockApprovalService{rejectErr: service.ErrAlreadyCompleted}
	h := NewApprovalHandler(mock, &mockProgressService{}, &mockCurriculumService{})

	w := serve("POST", "/progress/:id/reject", "/progress/p1/reject", jsonBody(dto.RejectRequest{Reason: "late"}),
		withAuth("admin1", "admin", h.Reject))

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if mock.lastReason != "late" {
		t.Errorf("expected reason passed through, got %q", mock.lastReason)
	}
}

func TestApprovalHandler_Reject_EmptyReason(t *testing.T) {
	mock := &mockApprovalService{rejectErr: service.ErrRejectReasonRequired}
	h := NewApprovalHandler(mock, &mockProgressService{}, &mockCurriculumService{})

	w := serve("POST", "/progress/:id/reject", "/progress/p1/reject", jsonBody(dto.RejectRequest{}),
		withAuth("admin1", "admin", h.Reject))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Message != "rejection reason required" {
		t.Errorf("expected message 'rejection reason required', got %q", resp.Message)
	}
}

func TestApprovalHandler_Reject_LongReasonAccepted(t *testing.T) {
	mock := &mockApprovalService{rejectResult: &dto.ProgressResponse{Status: "rejected"}}
	h := NewApprovalHandler(mock, &mockProgressService{}, &mockCurriculumService{})

	reason := strings.Repeat("r", 2000)
	w := serve("POST", "/progress/:id/reject", "/progress/p1/reject", jsonBody(dto.RejectRequest{Reason: reason}),
		withAuth("admin1", "admin", h.Reject))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.lastReason != reason {
		t.Errorf("expected full reason passed through, got %d chars", len(mock.lastReason))
	}
}

func TestApprovalHandler_ListPending_Paged(t *testing.T) {
	mock := &mockApprovalService{
		pending:      []dto.PendingApprovalItem{{CourseTitle: "Go 基础"}},
		pendingTotal: 41,
	}
	h := NewApprovalHandler(mock, &mockProgressService{}, &mockCurriculumService{})

	w := serve("GET", "/approvals/pending", "/approvals/pending?page=2&page_size=20", nil, withAuth("admin1", "admin", h.ListPending))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.TotalPages != 3 || body.Data.Pagination.Page != 2 {
		t.Errorf("分页信息不正确: %+v", body.Data.Pagination)
	}
}

// ═══════════════════════════════════════════════════════════
// BulkPassHandler
// ═══════════════════════════════════════════════════════════

func TestBulkPassHandler_Start(t *testing.T) {
	mock := &mockBulkPassService{job: &dto.BulkPassJob{JobID: "j1", Status: dto.BulkJobRunning, Total: 2}}
	h := NewBulkPassHandler(mock, &mockExportService{})

	w := serve("POST", "/bulk-pass", "/bulk-pass", jsonBody(dto.BulkPassRequest{ProgressIDs: []string{"p1", "p2"}}),
		withAuth("admin1", "admin", h.Start))

	if w.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", w.Code)
	}
	if len(mock.lastIDs) != 2 {
		t.Errorf("expected 2 ids, got %v", mock.lastIDs)
	}
}

func TestBulkPassHandler_Start_EmptyIDs(t *testing.T) {
	h := NewBulkPassHandler(&mockBulkPassService{}, &mockExportService{})

	w := serve("POST", "/bulk-pass", "/bulk-pass", jsonBody(dto.BulkPassRequest{ProgressIDs: []string{}}),
		withAuth("admin1", "admin", h.Start))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBulkPassHandler_Get_NotFound(t *testing.T) {
	h := NewBulkPassHandler(&mockBulkPassService{err: service.ErrBulkJobNotFound}, &mockExportService{})

	w := serve("GET", "/bulk-pass/:jobId", "/bulk-pass/nope", nil, withAuth("admin1", "admin", h.Get))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestBulkPassHandler_Report(t *testing.T) {
	export := &mockExportService{buf: bytes.NewBufferString("xlsx-bytes"), filename: "批量通过报告_j1.xlsx"}
	h := NewBulkPassHandler(&mockBulkPassService{}, export)

	w := serve("GET", "/bulk-pass/:jobId/report", "/bulk-pass/j1/report", nil, withAuth("admin1", "admin", h.Report))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename*=UTF-8''") {
		t.Errorf("unexpected content disposition: %s", cd)
	}
	if w.Body.String() != "xlsx-bytes" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestBulkPassHandler_Report_Running(t *testing.T) {
	h := NewBulkPassHandler(&mockBulkPassService{}, &mockExportService{err: service.ErrBulkJobRunning})

	w := serve("GET", "/bulk-pass/:jobId/report", "/bulk-pass/j1/report", nil, withAuth("admin1", "admin", h.Report))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// EditHandler
// ═══════════════════════════════════════════════════════════

func TestEditHandler_Update(t *testing.T) {
	mock := &mockEditService{state: &dto.EditStateResponse{Active: true, Field: "completed_sessions", Value: 4, Dirty: true, Pending: true}}
	h := NewEditHandler(mock)

	w := serve("PUT", "/edits/current", "/edits/current", strings.NewReader(`{"value": 4}`),
		withAuth("admin1", "admin", h.Update))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if string(mock.lastRaw) != "4" {
		t.Errorf("expected raw value 4, got %s", mock.lastRaw)
	}
}

func TestEditHandler_Save_NoActiveEdit(t *testing.T) {
	h := NewEditHandler(&mockEditService{err: autosave.ErrNoActiveEdit})

	w := serve("POST", "/edits/current/save", "/edits/current/save", nil, withAuth("admin1", "admin", h.Save))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestEditHandler_Start_InvalidField(t *testing.T) {
	h := NewEditHandler(&mockEditService{})

	w := serve("POST", "/edits", "/edits", jsonBody(dto.StartEditRequest{ProgressID: "p1", Field: "status"}),
		withAuth("admin1", "admin", h.Start))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status 不可编辑，expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// NotificationHandler
// ═══════════════════════════════════════════════════════════

func TestNotificationHandler_MarkRead_NotOwned(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationService{err: service.ErrNotificationNotFound})

	w := serve("PUT", "/notifications/:id/read", "/notifications/n1/read", nil, withAuth("st1", "student", h.MarkRead))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestNotificationHandler_List(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationService{
		list:  []dto.NotificationResponse{{ID: "n1", Type: "course_completed"}},
		total: 1,
	})

	w := serve("GET", "/notifications", "/notifications", nil, withAuth("st1", "student", h.List))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
