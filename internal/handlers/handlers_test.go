package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"projectcrm/internal/apperr"
	"projectcrm/internal/authz"
	"projectcrm/internal/middleware"
	"projectcrm/internal/models"
	"projectcrm/internal/services"
)

// Service stubs embed the interface; unimplemented methods panic if reached.

type stubAllocations struct {
	services.AllocationService
	err    error
	called int
}

func (s *stubAllocations) AllocateTo(_ context.Context, employeeID int64, target models.AllocationTarget, pct float64, start, end time.Time) (*models.Allocation, error) {
	s.called++
	if s.err != nil {
		return nil, s.err
	}
	return &models.Allocation{ID: 1, EmployeeID: employeeID, Target: target, AllocationPercentage: pct, StartDate: start, EndDate: end}, nil
}

type stubEntries struct {
	services.TimeEntryService
	created *models.TaskTimeEntry
	stored  map[int64]*models.TaskTimeEntry
	err     error
}

func (s *stubEntries) Create(_ context.Context, e *models.TaskTimeEntry) (*models.TaskTimeEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	e.ID = 7
	s.created = e
	return e, nil
}

func (s *stubEntries) GetByID(_ context.Context, id int64) (*models.TaskTimeEntry, error) {
	if e, ok := s.stored[id]; ok {
		return e, nil
	}
	return nil, apperr.NotFound("time entry")
}

func (s *stubEntries) Delete(context.Context, int64) error { return nil }

type stubTasks struct {
	services.TaskService
	err error
}

func (s *stubTasks) AddDependency(context.Context, int64, int64) error { return s.err }

type stubProjects struct {
	services.ProjectService
	rows []models.TimeLogRow
	err  error
}

func (s *stubProjects) ExportTimeLogs(context.Context, int64) ([]models.TimeLogRow, error) {
	return s.rows, s.err
}

func nopLog() *zap.SugaredLogger { return zap.NewNop().Sugar() }

// asUser mimics AuthMiddleware for a fixed caller.
func asUser(userID int64, roleID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxUserID, userID)
		c.Set(middleware.CtxRoleID, roleID)
		c.Next()
	}
}

func newEngine(userID int64, roleID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(userID, roleID))
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.CapacityExceeded(), http.StatusUnprocessableEntity},
		{apperr.OverlappingTimeEntry(), http.StatusUnprocessableEntity},
		{apperr.CyclicHierarchy(), http.StatusUnprocessableEntity},
		{apperr.NotFound("task"), http.StatusNotFound},
		{apperr.InvalidInput("bad"), http.StatusBadRequest},
		{apperr.New(apperr.CodeConflict, "dup"), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestAllocateCapacityExceededIs422(t *testing.T) {
	svc := &stubAllocations{err: apperr.CapacityExceeded()}
	h := NewEmployeeHandler(svc, nopLog())
	r := newEngine(1, authz.RoleManager)
	r.POST("/employees/:id/allocations", h.Allocate)

	w := doJSON(r, http.MethodPost, "/employees/3/allocations", gin.H{
		"target_type":           "project",
		"target_id":             9,
		"allocation_percentage": 60,
		"start_date":            "2025-01-06",
		"end_date":              "2025-01-31",
	})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, string(apperr.CodeBusinessRule), body["code"])
	assert.Equal(t, string(apperr.KindCapacityExceeded), body["kind"])
}

func TestAllocateRejectsBadDates(t *testing.T) {
	svc := &stubAllocations{}
	h := NewEmployeeHandler(svc, nopLog())
	r := newEngine(1, authz.RoleManager)
	r.POST("/employees/:id/allocations", h.Allocate)

	w := doJSON(r, http.MethodPost, "/employees/3/allocations", gin.H{
		"target_type":           "task",
		"target_id":             9,
		"allocation_percentage": 10,
		"start_date":            "next monday",
		"end_date":              "2025-01-31",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.called)
}

func TestAllocateCreated(t *testing.T) {
	h := NewEmployeeHandler(&stubAllocations{}, nopLog())
	r := newEngine(1, authz.RoleManager)
	r.POST("/employees/:id/allocations", h.Allocate)

	w := doJSON(r, http.MethodPost, "/employees/3/allocations", gin.H{
		"target_type":           "task",
		"target_id":             9,
		"allocation_percentage": 25,
		"start_date":            "2025-01-06",
		"end_date":              "2025-01-10T17:00:00Z",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var a models.Allocation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, int64(3), a.EmployeeID)
	assert.Equal(t, models.TaskTarget(9), a.Target)
	assert.Equal(t, 25.0, a.AllocationPercentage)
}

func TestCreateTimeEntryDefaultsToCaller(t *testing.T) {
	svc := &stubEntries{}
	h := NewTimeEntryHandler(svc, nopLog())
	r := newEngine(42, authz.RoleMember)
	r.POST("/time-entries", h.Create)

	w := doJSON(r, http.MethodPost, "/time-entries", gin.H{
		"task_id":    5,
		"started_at": "2025-01-06T09:00:00Z",
		"ended_at":   "2025-01-06T10:30:00Z",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, int64(42), svc.created.UserID)
	assert.Equal(t, 9, svc.created.StartedAt.Hour())
}

func TestCreateTimeEntryForSomeoneElse(t *testing.T) {
	svc := &stubEntries{}
	h := NewTimeEntryHandler(svc, nopLog())

	member := newEngine(42, authz.RoleMember)
	member.POST("/time-entries", h.Create)
	w := doJSON(member, http.MethodPost, "/time-entries", gin.H{"task_id": 5, "user_id": 43})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, svc.created)

	manager := newEngine(1, authz.RoleManager)
	manager.POST("/time-entries", h.Create)
	w = doJSON(manager, http.MethodPost, "/time-entries", gin.H{"task_id": 5, "user_id": 43})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(43), svc.created.UserID)
}

func TestCreateTimeEntryOverlapIs422(t *testing.T) {
	h := NewTimeEntryHandler(&stubEntries{err: apperr.OverlappingTimeEntry()}, nopLog())
	r := newEngine(42, authz.RoleMember)
	r.POST("/time-entries", h.Create)

	w := doJSON(r, http.MethodPost, "/time-entries", gin.H{
		"task_id":    5,
		"started_at": "2025-01-06T09:00:00Z",
		"ended_at":   "2025-01-06T10:00:00Z",
	})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(apperr.KindOverlappingTimeEntry), decode(t, w)["kind"])
}

func TestDeleteTimeEntryOwnership(t *testing.T) {
	svc := &stubEntries{stored: map[int64]*models.TaskTimeEntry{8: {ID: 8, UserID: 42}}}
	h := NewTimeEntryHandler(svc, nopLog())

	other := newEngine(7, authz.RoleMember)
	other.DELETE("/time-entries/:id", h.Delete)
	assert.Equal(t, http.StatusForbidden, doJSON(other, http.MethodDelete, "/time-entries/8", nil).Code)

	owner := newEngine(42, authz.RoleMember)
	owner.DELETE("/time-entries/:id", h.Delete)
	assert.Equal(t, http.StatusNoContent, doJSON(owner, http.MethodDelete, "/time-entries/8", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(owner, http.MethodDelete, "/time-entries/9", nil).Code)
}

func TestAddDependencyCycleIs422(t *testing.T) {
	h := NewTaskHandler(&stubTasks{err: apperr.CyclicHierarchy()}, nil, nopLog())
	r := newEngine(1, authz.RoleManager)
	r.POST("/tasks/:id/dependencies", h.AddDependency)

	w := doJSON(r, http.MethodPost, "/tasks/1/dependencies", gin.H{"depends_on_id": 2})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(apperr.KindCyclicHierarchy), decode(t, w)["kind"])
}

func TestRespondErrorKind(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantKind any
	}{
		{"wrapped rule", fmt.Errorf("allocate: %w", apperr.CapacityExceeded()), string(apperr.KindCapacityExceeded)},
		{"no kind", apperr.NotFound("task"), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, nopLog(), "test", tc.err)

			body := decode(t, w)
			assert.Equal(t, tc.wantKind, body["kind"])
			assert.Equal(t, string(apperr.CodeOf(tc.err)), body["code"])
		})
	}
}

func TestInternalErrorIsNotEchoed(t *testing.T) {
	h := NewTaskHandler(&stubTasks{err: errors.New("pq: connection refused")}, nil, nopLog())
	r := newEngine(1, authz.RoleManager)
	r.POST("/tasks/:id/dependencies", h.AddDependency)

	w := doJSON(r, http.MethodPost, "/tasks/1/dependencies", gin.H{"depends_on_id": 2})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", decode(t, w)["error"])
}

func TestExportTimeLogsCSV(t *testing.T) {
	start := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	rate := 100.0
	svc := &stubProjects{rows: []models.TimeLogRow{{
		EntryID: 1, TaskID: 2, TaskTitle: "Design, v2", UserID: 3, UserName: "Ann",
		StartedAt: &start, EndedAt: &end, DurationMinutes: 90, DurationHours: 1.5,
		IsBillable: true, BillingRate: &rate, BillingAmount: 150,
	}}}
	h := NewProjectHandler(svc, nil, nopLog())
	r := newEngine(1, authz.RoleFinance)
	r.GET("/projects/:id/time-logs", h.ExportTimeLogs)

	w := doJSON(r, http.MethodGet, "/projects/4/time-logs?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "time_logs_project_4.csv")

	records, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, timeLogHeader, records[0])
	assert.Equal(t, "Design, v2", records[1][2])
	assert.Equal(t, "1.50", records[1][8])
	assert.Equal(t, "150.00", records[1][11])
}

func TestExportTimeLogsJSONEmpty(t *testing.T) {
	h := NewProjectHandler(&stubProjects{}, nil, nopLog())
	r := newEngine(1, authz.RoleFinance)
	r.GET("/projects/:id/time-logs", h.ExportTimeLogs)

	w := doJSON(r, http.MethodGet, "/projects/4/time-logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}
