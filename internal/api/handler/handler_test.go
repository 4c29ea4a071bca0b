package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/model"
	"github.com/muhamed1222/timeout-sub002/internal/service"
	pkgerrors "github.com/muhamed1222/timeout-sub002/pkg/errors"
	"github.com/muhamed1222/timeout-sub002/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testCompanyID  = "11111111-1111-1111-1111-111111111111"
	testEmployeeID = "22222222-2222-2222-2222-222222222222"
	testRuleID     = "33333333-3333-3333-3333-333333333333"
)

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ShiftService ──

type mockShiftService struct {
	result      *dto.ShiftResponse
	list        []dto.ShiftResponse
	err         error
	lastCompany string
	lastTGID    int64
}

func (m *mockShiftService) Create(_ context.Context, companyID string, _ *dto.CreateShiftRequest, _ string) (*dto.ShiftResponse, error) {
	m.lastCompany = companyID
	return m.result, m.err
}
func (m *mockShiftService) GetByID(_ context.Context, companyID, _ string) (*dto.ShiftResponse, error) {
	m.lastCompany = companyID
	return m.result, m.err
}
func (m *mockShiftService) ListByEmployee(_ context.Context, companyID string, _ *dto.ShiftListRequest) ([]dto.ShiftResponse, error) {
	m.lastCompany = companyID
	return m.list, m.err
}
func (m *mockShiftService) Delete(_ context.Context, companyID, _ string) error {
	m.lastCompany = companyID
	return m.err
}
func (m *mockShiftService) Start(_ context.Context, companyID, _ string) (*dto.ShiftResponse, error) {
	m.lastCompany = companyID
	return m.result, m.err
}
func (m *mockShiftService) StartForEmployee(_ context.Context, companyID, _ string) (*dto.ShiftResponse, error) {
	m.lastCompany = companyID
	return m.result, m.err
}
func (m *mockShiftService) End(_ context.Context, companyID, _ string) (*dto.ShiftResponse, error) {
	m.lastCompany = companyID
	return m.result, m.err
}
func (m *mockShiftService) Cancel(_ context.Context, companyID, _ string) (*dto.ShiftResponse, error) {
	m.lastCompany = companyID
	return m.result, m.err
}
func (m *mockShiftService) StartBreak(_ context.Context, companyID, _ string) (*dto.ShiftResponse, error) {
	m.lastCompany = companyID
	return m.result, m.err
}
func (m *mockShiftService) EndBreak(_ context.Context, companyID, _ string) (*dto.ShiftResponse, error) {
	m.lastCompany = companyID
	return m.result, m.err
}
func (m *mockShiftService) BotCurrent(_ context.Context, telegramID int64) (*dto.ShiftResponse, error) {
	m.lastTGID = telegramID
	return m.result, m.err
}
func (m *mockShiftService) BotStartShift(_ context.Context, telegramID int64) (*dto.ShiftResponse, error) {
	m.lastTGID = telegramID
	return m.result, m.err
}
func (m *mockShiftService) BotEndShift(_ context.Context, telegramID int64) (*dto.ShiftResponse, error) {
	m.lastTGID = telegramID
	return m.result, m.err
}
func (m *mockShiftService) BotStartBreak(_ context.Context, telegramID int64) (*dto.ShiftResponse, error) {
	m.lastTGID = telegramID
	return m.result, m.err
}
func (m *mockShiftService) BotEndBreak(_ context.Context, telegramID int64) (*dto.ShiftResponse, error) {
	m.lastTGID = telegramID
	return m.result, m.err
}

// ── Mock ViolationRuleService ──

type mockRuleService struct {
	result *dto.ViolationRuleResponse
	list   []dto.ViolationRuleResponse
	err    error
}

func (m *mockRuleService) Create(_ context.Context, _ string, _ *dto.CreateViolationRuleRequest, _ string) (*dto.ViolationRuleResponse, error) {
	return m.result, m.err
}
func (m *mockRuleService) GetByID(_ context.Context, _, _ string) (*dto.ViolationRuleResponse, error) {
	return m.result, m.err
}
func (m *mockRuleService) List(_ context.Context, _ string) ([]dto.ViolationRuleResponse, error) {
	return m.list, m.err
}
func (m *mockRuleService) Update(_ context.Context, _, _ string, _ *dto.UpdateViolationRuleRequest, _ string) (*dto.ViolationRuleResponse, error) {
	return m.result, m.err
}
func (m *mockRuleService) Delete(_ context.Context, _, _ string) error {
	return m.err
}

// ── Mock ViolationService ──

type mockViolationService struct {
	result *dto.ViolationResponse
	list   []dto.ViolationResponse
	total  int64
	err    error
}

func (m *mockViolationService) Create(_ context.Context, _ string, _ *dto.CreateViolationRequest, _ string) (*dto.ViolationResponse, error) {
	return m.result, m.err
}
func (m *mockViolationService) GetByID(_ context.Context, _, _ string) (*dto.ViolationResponse, error) {
	return m.result, m.err
}
func (m *mockViolationService) List(_ context.Context, _ string, _ *dto.ViolationListRequest) ([]dto.ViolationResponse, int64, error) {
	return m.list, m.total, m.err
}
func (m *mockViolationService) Update(_ context.Context, _, _ string, _ *dto.UpdateViolationRequest, _ string) (*dto.ViolationResponse, error) {
	return m.result, m.err
}
func (m *mockViolationService) Delete(_ context.Context, _, _ string) error {
	return m.err
}

// ── Mock RatingService ──

type mockRatingService struct {
	periodErr   error
	result      *dto.RatingResponse
	list        []dto.RatingResponse
	recalc      *dto.CompanyRecalculateResponse
	err         error
	startParam  string
	lastCompany string
}

func (m *mockRatingService) ResolvePeriod(start, _ string) (service.Period, error) {
	m.startParam = start
	return service.Period{}, m.periodErr
}
func (m *mockRatingService) Recalculate(_ context.Context, companyID, _ string, _ service.Period) (*dto.RatingResponse, error) {
	m.lastCompany = companyID
	return m.result, m.err
}
func (m *mockRatingService) RecalculateCompany(_ context.Context, companyID string, _ service.Period) (*dto.CompanyRecalculateResponse, error) {
	m.lastCompany = companyID
	return m.recalc, m.err
}
func (m *mockRatingService) GetEmployeeRating(_ context.Context, companyID, _ string, _ service.Period) (*dto.RatingResponse, error) {
	m.lastCompany = companyID
	return m.result, m.err
}
func (m *mockRatingService) ListCompanyRatings(_ context.Context, companyID string, _ service.Period) ([]dto.RatingResponse, error) {
	m.lastCompany = companyID
	return m.list, m.err
}

// ── Mock ExceptionService ──

type mockExceptionService struct {
	result *dto.ExceptionResponse
	list   []dto.ExceptionResponse
	total  int64
	err    error
}

func (m *mockExceptionService) List(_ context.Context, _ string, _ *dto.ExceptionListRequest) ([]dto.ExceptionResponse, int64, error) {
	return m.list, m.total, m.err
}
func (m *mockExceptionService) GetByID(_ context.Context, _, _ string) (*dto.ExceptionResponse, error) {
	return m.result, m.err
}
func (m *mockExceptionService) Resolve(_ context.Context, _, _, _ string) (*dto.ExceptionResponse, error) {
	return m.result, m.err
}

// ── Mock MonitorService ──

type mockMonitorService struct {
	process      dto.ProcessResult
	sweep        dto.SweepResult
	processed    []string
	sweepInvoked bool
}

func (m *mockMonitorService) ProcessCompany(_ context.Context, companyID string) dto.ProcessResult {
	m.processed = append(m.processed, companyID)
	return m.process
}
func (m *mockMonitorService) RunGlobalSweep(_ context.Context) dto.SweepResult {
	m.sweepInvoked = true
	return m.sweep
}

// ── Mock NotificationService ──

type mockNotificationService struct {
	list      []dto.NotificationResponse
	err       error
	lastLimit int
}

func (m *mockNotificationService) NotifyEmployee(_ context.Context, _ *model.Employee, _, _ string, _, _ *string) error {
	return m.err
}
func (m *mockNotificationService) ListForEmployee(_ context.Context, _, _ string, limit int) ([]dto.NotificationResponse, error) {
	m.lastLimit = limit
	return m.list, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

// withAuth 模拟 JWTAuth 注入的调用方身份
func withAuth(role, companyID string, next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", "test-user-id")
		c.Set("role", role)
		c.Set("company_id", companyID)
		next(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func serve(r *gin.Engine, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status, code int) {
	t.Helper()
	if w.Code != status {
		t.Errorf("expected status %d, got %d (body=%s)", status, w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp.Code != code {
		t.Errorf("expected error code %d, got %d", code, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// 公司隔离
// ═══════════════════════════════════════════════════════════

func TestMustGetCompanyID_TokenCompany(t *testing.T) {
	mock := &mockShiftService{result: &dto.ShiftResponse{ID: "s1"}}
	h := NewShiftHandler(mock)

	r := gin.New()
	r.GET("/shifts/:id", withAuth("manager", testCompanyID, h.GetShift))

	w := serve(r, "GET", "/shifts/s1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastCompany != testCompanyID {
		t.Errorf("expected company %s, got %s", testCompanyID, mock.lastCompany)
	}
}

func TestMustGetCompanyID_CrossCompanyRequiresQuery(t *testing.T) {
	h := NewShiftHandler(&mockShiftService{})

	r := gin.New()
	r.GET("/shifts/:id", withAuth("admin", "", h.GetShift))

	w := serve(r, "GET", "/shifts/s1", nil)
	expectError(t, w, http.StatusBadRequest, 10001)
}

func TestMustGetCompanyID_CrossCompanyWithQuery(t *testing.T) {
	mock := &mockShiftService{result: &dto.ShiftResponse{ID: "s1"}}
	h := NewShiftHandler(mock)

	r := gin.New()
	r.GET("/shifts/:id", withAuth("admin", "", h.GetShift))

	w := serve(r, "GET", "/shifts/s1?company_id=company-b", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastCompany != "company-b" {
		t.Errorf("expected company-b, got %s", mock.lastCompany)
	}
}

func TestMustGetCompanyID_QueryMismatch(t *testing.T) {
	mock := &mockShiftService{}
	h := NewShiftHandler(mock)

	r := gin.New()
	r.GET("/shifts/:id", withAuth("manager", testCompanyID, h.GetShift))

	w := serve(r, "GET", "/shifts/s1?company_id=company-b", nil)
	expectError(t, w, http.StatusForbidden, 10003)
	if mock.lastCompany != "" {
		t.Error("service should not be called for a foreign company")
	}
}

func TestMustGetCompanyID_Unauthenticated(t *testing.T) {
	h := NewShiftHandler(&mockShiftService{})

	r := gin.New()
	r.GET("/shifts/:id", h.GetShift)

	w := serve(r, "GET", "/shifts/s1", nil)
	expectError(t, w, http.StatusUnauthorized, 10002)
}

// ═══════════════════════════════════════════════════════════
// ShiftHandler Tests
// ═══════════════════════════════════════════════════════════

func TestShiftHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"not found", service.ErrShiftNotFound, http.StatusNotFound, 20001},
		{"invalid transition", service.ErrShiftInvalidTransition, http.StatusConflict, 20003},
		{"already active", service.ErrShiftAlreadyActive, http.StatusConflict, 20004},
		{"break open", service.ErrBreakAlreadyOpen, http.StatusConflict, 20006},
		{"no open break", service.ErrNoOpenBreak, http.StatusConflict, 20007},
		{"terminated", service.ErrEmployeeTerminated, http.StatusForbidden, 20009},
		{"optimistic lock", pkgerrors.ErrOptimisticLock, http.StatusConflict, 20010},
		{"unknown", io.ErrUnexpectedEOF, http.StatusInternalServerError, 50000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewShiftHandler(&mockShiftService{err: tc.err})

			r := gin.New()
			r.POST("/shifts/:id/start", withAuth("manager", testCompanyID, h.StartShift))

			w := serve(r, "POST", "/shifts/s1/start", nil)
			if w.Code != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, w.Code)
			}
			if tc.code != 50000 {
				if resp := parseResponse(w); resp.Code != tc.code {
					t.Errorf("expected error code %d, got %d", tc.code, resp.Code)
				}
			}
		})
	}
}

func TestShiftHandler_CreateShift_Success(t *testing.T) {
	mock := &mockShiftService{result: &dto.ShiftResponse{ID: "s1", Status: "planned"}}
	h := NewShiftHandler(mock)

	r := gin.New()
	r.POST("/shifts", withAuth("manager", testCompanyID, h.CreateShift))

	w := serve(r, "POST", "/shifts", jsonBody(map[string]string{
		"employee_id":   testEmployeeID,
		"planned_start": "2026-03-02T09:00:00Z",
		"planned_end":   "2026-03-02T18:00:00Z",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body=%s)", w.Code, w.Body.String())
	}
}

func TestShiftHandler_CreateShift_EndBeforeStart(t *testing.T) {
	h := NewShiftHandler(&mockShiftService{})

	r := gin.New()
	r.POST("/shifts", withAuth("manager", testCompanyID, h.CreateShift))

	w := serve(r, "POST", "/shifts", jsonBody(map[string]string{
		"employee_id":   testEmployeeID,
		"planned_start": "2026-03-02T18:00:00Z",
		"planned_end":   "2026-03-02T09:00:00Z",
	}))
	expectError(t, w, http.StatusBadRequest, 10001)
}

func TestShiftHandler_ListShifts_MissingEmployee(t *testing.T) {
	h := NewShiftHandler(&mockShiftService{})

	r := gin.New()
	r.GET("/shifts", withAuth("manager", testCompanyID, h.ListShifts))

	w := serve(r, "GET", "/shifts", nil)
	expectError(t, w, http.StatusBadRequest, 10001)
}

func TestShiftHandler_ListShifts_InvalidPeriod(t *testing.T) {
	h := NewShiftHandler(&mockShiftService{err: service.ErrInvalidPeriod})

	r := gin.New()
	r.GET("/shifts", withAuth("manager", testCompanyID, h.ListShifts))

	w := serve(r, "GET", "/shifts?employee_id="+testEmployeeID, nil)
	expectError(t, w, http.StatusBadRequest, 10001)
}

// ═══════════════════════════════════════════════════════════
// BotHandler Tests
// ═══════════════════════════════════════════════════════════

func TestBotHandler_StartShift_Success(t *testing.T) {
	mock := &mockShiftService{result: &dto.ShiftResponse{ID: "s1", Status: "active"}}
	h := NewBotHandler(mock)

	r := gin.New()
	r.POST("/bot/shift/start", withAuth("bot", "", h.StartShift))

	w := serve(r, "POST", "/bot/shift/start", jsonBody(map[string]int64{"telegram_id": 1001}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastTGID != 1001 {
		t.Errorf("expected telegram_id 1001, got %d", mock.lastTGID)
	}
}

func TestBotHandler_BadJSON(t *testing.T) {
	h := NewBotHandler(&mockShiftService{})

	r := gin.New()
	r.POST("/bot/break/start", withAuth("bot", "", h.StartBreak))

	w := serve(r, "POST", "/bot/break/start", bytes.NewReader([]byte("{bad")))
	expectError(t, w, http.StatusBadRequest, 10001)
}

func TestBotHandler_UnknownEmployee(t *testing.T) {
	h := NewBotHandler(&mockShiftService{err: service.ErrEmployeeNotFound})

	r := gin.New()
	r.POST("/bot/shift/current", withAuth("bot", "", h.CurrentShift))

	w := serve(r, "POST", "/bot/shift/current", jsonBody(map[string]int64{"telegram_id": 42}))
	expectError(t, w, http.StatusNotFound, 20008)
}

func TestBotHandler_NoActiveShift(t *testing.T) {
	h := NewBotHandler(&mockShiftService{err: service.ErrNoActiveShift})

	r := gin.New()
	r.POST("/bot/shift/end", withAuth("bot", "", h.EndShift))

	w := serve(r, "POST", "/bot/shift/end", jsonBody(map[string]int64{"telegram_id": 42}))
	expectError(t, w, http.StatusNotFound, 20005)
}

// ═══════════════════════════════════════════════════════════
// ViolationRuleHandler Tests
// ═══════════════════════════════════════════════════════════

func TestViolationRuleHandler_Create_Success(t *testing.T) {
	mock := &mockRuleService{result: &dto.ViolationRuleResponse{ID: testRuleID, Code: "late"}}
	h := NewViolationRuleHandler(mock)

	r := gin.New()
	r.POST("/violation-rules", withAuth("admin", testCompanyID, h.CreateRule))

	w := serve(r, "POST", "/violation-rules", jsonBody(map[string]interface{}{
		"code": "late", "name": "迟到", "penalty_percent": "5", "auto_detectable": true,
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body=%s)", w.Code, w.Body.String())
	}
}

func TestViolationRuleHandler_Create_MissingName(t *testing.T) {
	h := NewViolationRuleHandler(&mockRuleService{})

	r := gin.New()
	r.POST("/violation-rules", withAuth("admin", testCompanyID, h.CreateRule))

	w := serve(r, "POST", "/violation-rules", jsonBody(map[string]string{"code": "late"}))
	expectError(t, w, http.StatusBadRequest, 10001)
}

func TestViolationRuleHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   int
	}{
		{service.ErrViolationRuleCodeExists, http.StatusConflict, 21002},
		{service.ErrViolationRuleInvalidPenalty, http.StatusBadRequest, 21003},
		{service.ErrViolationRuleInvalidCode, http.StatusBadRequest, 21005},
	}

	for _, tc := range cases {
		h := NewViolationRuleHandler(&mockRuleService{err: tc.err})

		r := gin.New()
		r.PUT("/violation-rules/:id", withAuth("admin", testCompanyID, h.UpdateRule))

		w := serve(r, "PUT", "/violation-rules/"+testRuleID, jsonBody(map[string]string{"name": "x"}))
		expectError(t, w, tc.status, tc.code)
	}
}

func TestViolationRuleHandler_Delete_InUse(t *testing.T) {
	h := NewViolationRuleHandler(&mockRuleService{err: service.ErrViolationRuleInUse})

	r := gin.New()
	r.DELETE("/violation-rules/:id", withAuth("admin", testCompanyID, h.DeleteRule))

	w := serve(r, "DELETE", "/violation-rules/"+testRuleID, nil)
	expectError(t, w, http.StatusConflict, 21004)
}

// ═══════════════════════════════════════════════════════════
// ViolationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestViolationHandler_List_Paginated(t *testing.T) {
	mock := &mockViolationService{
		list:  []dto.ViolationResponse{{ID: "v1"}, {ID: "v2"}},
		total: 12,
	}
	h := NewViolationHandler(mock)

	r := gin.New()
	r.GET("/violations", withAuth("manager", testCompanyID, h.ListViolations))

	w := serve(r, "GET", "/violations?page=2&page_size=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.Total != 12 || body.Data.Pagination.TotalPages != 2 {
		t.Errorf("unexpected pagination: %+v", body.Data.Pagination)
	}
	if body.Data.Pagination.Page != 2 {
		t.Errorf("expected page 2, got %d", body.Data.Pagination.Page)
	}
}

func TestViolationHandler_List_BadSource(t *testing.T) {
	h := NewViolationHandler(&mockViolationService{})

	r := gin.New()
	r.GET("/violations", withAuth("manager", testCompanyID, h.ListViolations))

	w := serve(r, "GET", "/violations?source=robot", nil)
	expectError(t, w, http.StatusBadRequest, 10001)
}

func TestViolationHandler_Create_InactiveRule(t *testing.T) {
	h := NewViolationHandler(&mockViolationService{err: service.ErrViolationRuleInactive})

	r := gin.New()
	r.POST("/violations", withAuth("manager", testCompanyID, h.CreateViolation))

	w := serve(r, "POST", "/violations", jsonBody(map[string]string{
		"employee_id": testEmployeeID,
		"rule_id":     testRuleID,
	}))
	expectError(t, w, http.StatusBadRequest, 22003)
}

func TestViolationHandler_Get_NotFound(t *testing.T) {
	h := NewViolationHandler(&mockViolationService{err: service.ErrViolationNotFound})

	r := gin.New()
	r.GET("/violations/:id", withAuth("manager", testCompanyID, h.GetViolation))

	w := serve(r, "GET", "/violations/v1", nil)
	expectError(t, w, http.StatusNotFound, 22001)
}

// ═══════════════════════════════════════════════════════════
// RatingHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRatingHandler_GetEmployeeRating_NotFound(t *testing.T) {
	h := NewRatingHandler(&mockRatingService{err: service.ErrRatingNotFound})

	r := gin.New()
	r.GET("/employees/:id/rating", withAuth("manager", testCompanyID, h.GetEmployeeRating))

	w := serve(r, "GET", "/employees/"+testEmployeeID+"/rating", nil)
	expectError(t, w, http.StatusNotFound, 23001)
}

func TestRatingHandler_InvalidPeriod(t *testing.T) {
	mock := &mockRatingService{periodErr: service.ErrInvalidPeriod}
	h := NewRatingHandler(mock)

	r := gin.New()
	r.GET("/ratings", withAuth("manager", testCompanyID, h.ListRatings))

	w := serve(r, "GET", "/ratings?period_start=2026-03-31&period_end=2026-03-01", nil)
	expectError(t, w, http.StatusBadRequest, 23003)
	if mock.startParam != "2026-03-31" {
		t.Errorf("expected period_start forwarded, got %q", mock.startParam)
	}
}

func TestRatingHandler_BadDateFormat(t *testing.T) {
	h := NewRatingHandler(&mockRatingService{})

	r := gin.New()
	r.GET("/ratings", withAuth("manager", testCompanyID, h.ListRatings))

	w := serve(r, "GET", "/ratings?period_start=March&period_end=April", nil)
	expectError(t, w, http.StatusBadRequest, 10001)
}

func TestRatingHandler_RecalculateCompany(t *testing.T) {
	mock := &mockRatingService{recalc: &dto.CompanyRecalculateResponse{Recalculated: 3, Failed: 1}}
	h := NewRatingHandler(mock)

	r := gin.New()
	r.POST("/ratings/recalculate", withAuth("admin", "", h.RecalculateCompany))

	w := serve(r, "POST", "/ratings/recalculate?company_id="+testCompanyID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastCompany != testCompanyID {
		t.Errorf("expected company %s, got %s", testCompanyID, mock.lastCompany)
	}
}

// ═══════════════════════════════════════════════════════════
// ExceptionHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExceptionHandler_Resolve_AlreadyResolved(t *testing.T) {
	h := NewExceptionHandler(&mockExceptionService{err: service.ErrExceptionAlreadyResolved})

	r := gin.New()
	r.POST("/exceptions/:id/resolve", withAuth("manager", testCompanyID, h.ResolveException))

	w := serve(r, "POST", "/exceptions/e1/resolve", nil)
	expectError(t, w, http.StatusConflict, 24002)
}

func TestExceptionHandler_Resolve_Success(t *testing.T) {
	h := NewExceptionHandler(&mockExceptionService{result: &dto.ExceptionResponse{ID: "e1", Kind: "late_start"}})

	r := gin.New()
	r.POST("/exceptions/:id/resolve", withAuth("manager", testCompanyID, h.ResolveException))

	w := serve(r, "POST", "/exceptions/e1/resolve", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestExceptionHandler_List_Unresolved(t *testing.T) {
	mock := &mockExceptionService{list: []dto.ExceptionResponse{{ID: "e1"}}, total: 1}
	h := NewExceptionHandler(mock)

	r := gin.New()
	r.GET("/exceptions", withAuth("manager", testCompanyID, h.ListExceptions))

	w := serve(r, "GET", "/exceptions?resolved=false", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// MonitorHandler Tests
// ═══════════════════════════════════════════════════════════

func TestMonitorHandler_ProcessCompany(t *testing.T) {
	mock := &mockMonitorService{process: dto.ProcessResult{ViolationsFound: 2, ExceptionsCreated: 1}}
	h := NewMonitorHandler(mock)

	r := gin.New()
	r.POST("/monitor/companies/:id/process", withAuth("manager", testCompanyID, h.ProcessCompany))

	w := serve(r, "POST", "/monitor/companies/"+testCompanyID+"/process", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Data dto.ProcessResult `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.ViolationsFound != 2 || body.Data.ExceptionsCreated != 1 {
		t.Errorf("unexpected result: %+v", body.Data)
	}
}

func TestMonitorHandler_ProcessCompany_Foreign(t *testing.T) {
	mock := &mockMonitorService{}
	h := NewMonitorHandler(mock)

	r := gin.New()
	r.POST("/monitor/companies/:id/process", withAuth("manager", testCompanyID, h.ProcessCompany))

	w := serve(r, "POST", "/monitor/companies/other/process", nil)
	expectError(t, w, http.StatusForbidden, 10003)
	if len(mock.processed) != 0 {
		t.Error("foreign company must not be processed")
	}
}

func TestMonitorHandler_Sweep(t *testing.T) {
	mock := &mockMonitorService{sweep: dto.SweepResult{Companies: 3, ViolationsFound: 4, ExceptionsCreated: 4}}
	h := NewMonitorHandler(mock)

	r := gin.New()
	r.POST("/monitor/sweep", withAuth("admin", "", h.RunGlobalSweep))

	w := serve(r, "POST", "/monitor/sweep", nil)
	if w.Code != http.StatusOK || !mock.sweepInvoked {
		t.Fatalf("expected sweep to run, status=%d", w.Code)
	}
}

func TestMonitorHandler_Sweep_CompanyScopedToken(t *testing.T) {
	mock := &mockMonitorService{}
	h := NewMonitorHandler(mock)

	r := gin.New()
	r.POST("/monitor/sweep", withAuth("admin", testCompanyID, h.RunGlobalSweep))

	w := serve(r, "POST", "/monitor/sweep", nil)
	expectError(t, w, http.StatusForbidden, 10003)
	if mock.sweepInvoked {
		t.Error("company-scoped token must not trigger a global sweep")
	}
}

// ═══════════════════════════════════════════════════════════
// NotificationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestNotificationHandler_List_DefaultLimit(t *testing.T) {
	mock := &mockNotificationService{list: []dto.NotificationResponse{{ID: "n1", Channel: "telegram"}}}
	h := NewNotificationHandler(mock)

	r := gin.New()
	r.GET("/employees/:id/notifications", withAuth("manager", testCompanyID, h.ListEmployeeNotifications))

	w := serve(r, "GET", "/employees/"+testEmployeeID+"/notifications", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastLimit != 50 {
		t.Errorf("expected default limit 50, got %d", mock.lastLimit)
	}
}

func TestNotificationHandler_List_Errors(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationService{err: service.ErrEmployeeNotFound})

	r := gin.New()
	r.GET("/employees/:id/notifications", withAuth("manager", testCompanyID, h.ListEmployeeNotifications))

	w := serve(r, "GET", "/employees/"+testEmployeeID+"/notifications", nil)
	expectError(t, w, http.StatusNotFound, 25001)

	w = serve(r, "GET", "/employees/"+testEmployeeID+"/notifications?limit=1000", nil)
	expectError(t, w, http.StatusBadRequest, 10001)
}
