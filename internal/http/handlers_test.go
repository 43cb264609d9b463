package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/salon-scheduler/internal/application"
	"github.com/example/salon-scheduler/internal/testfixtures"
)

type apiFixture struct {
	h       *testfixtures.Harness
	handler http.Handler
	metrics *Metrics
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	h := testfixtures.NewHarness(t)
	metrics := NewMetrics("salon")
	handler := NewRouter(RouterConfig{
		Auth:       NewAuthHandler(h.Auth, h.Logger, false),
		Users:      NewUserHandler(h.UserService, h.Logger),
		Employees:  NewEmployeeHandler(h.EmployeeService, h.Logger),
		TimeBlocks: NewTimeBlockHandler(h.TimeBlockService, metrics, h.Logger),
		Sessions:   h.Auth,
		Metrics:    metrics,
		Health:     h.Store.Ping,
		Logger:     h.Logger,
		Middleware: []func(http.Handler) http.Handler{RequestLogger(h.Logger)},
	})
	return &apiFixture{h: h, handler: handler, metrics: metrics}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case rawBody:
		buf.WriteString(string(b))
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// rawBody is sent as is, without JSON encoding.
type rawBody string

func (f *apiFixture) login(t *testing.T, username, password string) string {
	t.Helper()
	f.h.SeedUser(t, username, password)
	rec := f.do(t, http.MethodPost, "/api/login", map[string]string{"username": username, "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := rec.Header().Get("X-Session-Token")
	require.NotEmpty(t, token)
	return token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("login sets the session cookie", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		f.h.SeedUser(t, "owner", "owner-pass")

		rec := f.do(t, http.MethodPost, "/api/login", map[string]string{"username": "Owner", "password": "owner-pass"}, "")
		require.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "session_token", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
		assert.Equal(t, rec.Header().Get("X-Session-Token"), cookies[0].Value)

		body := decode[loginResponse](t, rec)
		assert.Equal(t, "owner", body.User.Username)
	})

	t.Run("bad credentials are 401", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		f.h.SeedUser(t, "owner", "owner-pass")

		rec := f.do(t, http.MethodPost, "/api/login", map[string]string{"username": "owner", "password": "nope"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid_credentials", decode[errorResponse](t, rec).ErrorCode)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		token := f.login(t, "owner", "owner-pass")

		rec := f.do(t, http.MethodGet, "/api/user", nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "owner", decode[userDTO](t, rec).Username)

		rec = f.do(t, http.MethodPost, "/api/logout", nil, token)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = f.do(t, http.MethodGet, "/api/user", nil, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("protected routes need a session", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)

		assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/employees", nil, "").Code)
		assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/employees", nil, "forged").Code)
	})

	t.Run("cookie sessions are accepted", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t)
		token := f.login(t, "owner", "owner-pass")

		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestTimeBlockHandlers(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	token := f.login(t, "owner", "owner-pass")

	rec := f.do(t, http.MethodPost, "/api/employees", map[string]any{"name": "Aoi"}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	aoi := decode[employeeDTO](t, rec)
	assert.Equal(t, application.EmployeePalette[0], aoi.Color)
	assert.Equal(t, 0, aoi.DisplayOrder)

	rec = f.do(t, http.MethodPost, "/api/employees", map[string]any{"name": "Ren"}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	ren := decode[employeeDTO](t, rec)

	newBlock := func(employeeID, start, end string) *httptest.ResponseRecorder {
		return f.do(t, http.MethodPost, "/api/timeblocks", map[string]any{
			"employeeId": employeeID, "date": testfixtures.ReferenceDate,
			"startTime": start, "endTime": end, "clientName": "Sato",
		}, token)
	}

	rec = newBlock(aoi.ID, "10:00", "11:00")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[timeBlockDTO](t, rec)
	assert.Equal(t, 60, first.Duration)
	require.NotNil(t, first.ClientName)

	t.Run("conflict reports the blocking block", func(t *testing.T) {
		rec := newBlock(aoi.ID, "10:45", "11:30")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode[errorResponse](t, rec)
		assert.Equal(t, "time_conflict", body.ErrorCode)
		assert.Equal(t, first.ID, body.ConflictingBlockID)
	})

	t.Run("quantization names the field", func(t *testing.T) {
		rec := newBlock(aoi.ID, "12:00", "12:20")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode[errorResponse](t, rec)
		assert.Equal(t, "invalid_quantization", body.ErrorCode)
		assert.Equal(t, "endTime", body.Field)
	})

	t.Run("list requires a date", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/timeblocks", nil, token).Code)
		assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/timeblocks?date=2025-13-01", nil, token).Code)

		rec := f.do(t, http.MethodGet, "/api/timeblocks?date="+testfixtures.ReferenceDate, nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]timeBlockDTO](t, rec), 1)
	})

	t.Run("patch clears a label with null", func(t *testing.T) {
		rec := f.do(t, http.MethodPatch, "/api/timeblocks/"+first.ID, map[string]any{"clientName": nil, "task": "Colour"}, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode[timeBlockDTO](t, rec)
		assert.Nil(t, body.ClientName)
		require.NotNil(t, body.Task)
		assert.Equal(t, "Colour", *body.Task)
		assert.Equal(t, "10:00", body.StartTime)
	})

	t.Run("move keeps the duration", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/timeblocks/"+first.ID+"/move", map[string]string{"employeeId": ren.ID, "startTime": "13:30"}, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode[timeBlockDTO](t, rec)
		assert.Equal(t, ren.ID, body.EmployeeID)
		assert.Equal(t, "14:30", body.EndTime)

		rec = f.do(t, http.MethodPost, "/api/timeblocks/"+first.ID+"/move", map[string]string{"employeeId": ren.ID, "startTime": "18:30"}, token)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "outside_business_hours", decode[errorResponse](t, rec).ErrorCode)
	})

	t.Run("schedule renders the grid", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/schedule?date="+testfixtures.ReferenceDate, nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		grid := decode[scheduleDTO](t, rec)
		assert.Len(t, grid.Slots, 40)
		require.Len(t, grid.Columns, 2)
		assert.Equal(t, aoi.ID, grid.Columns[0].Employee.ID)

		renCells := grid.Columns[1].Cells
		assert.Equal(t, cellDTO{Time: "13:30", Occupied: true, BlockID: first.ID, Span: 4}, renCells[18])
		assert.Equal(t, cellDTO{Time: "13:45", Occupied: true}, renCells[19])
	})

	t.Run("other users see nothing", func(t *testing.T) {
		other := f.login(t, "rival", "rival-pass")

		rec := f.do(t, http.MethodPatch, "/api/timeblocks/"+first.ID, map[string]any{"task": "mine"}, other)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/timeblocks/"+first.ID, nil, other).Code)
		assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/employees/"+aoi.ID, nil, other).Code)

		rec = f.do(t, http.MethodPost, "/api/timeblocks", map[string]any{
			"employeeId": aoi.ID, "date": testfixtures.ReferenceDate, "startTime": "15:00", "endTime": "16:00",
		}, other)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.do(t, http.MethodGet, "/api/employees", nil, other)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[[]employeeDTO](t, rec))
	})

	t.Run("delete is final", func(t *testing.T) {
		rec := f.do(t, http.MethodDelete, "/api/timeblocks/"+first.ID, nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[successResponse](t, rec).Success)
		assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/timeblocks/"+first.ID, nil, token).Code)
	})

	t.Run("rejections are counted", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/metrics", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `salon_schedule_rejections_total{kind="time_conflict"} 1`)
		assert.Contains(t, rec.Body.String(), `route="/api/timeblocks"`)
	})
}

func TestEmployeeHandlers(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	token := f.login(t, "owner", "owner-pass")

	rec := f.do(t, http.MethodPost, "/api/employees", map[string]any{"name": " "}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Errors, "name")

	rec = f.do(t, http.MethodPost, "/api/employees", map[string]any{"name": "Aoi", "color": "#123456", "displayOrder": 5}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	emp := decode[employeeDTO](t, rec)

	rec = f.do(t, http.MethodPatch, "/api/employees/"+emp.ID, map[string]any{"displayOrder": 1}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[employeeDTO](t, rec).DisplayOrder)

	rec = f.do(t, http.MethodDelete, "/api/employees/"+emp.ID, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/employees", rawBody("{"), token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandlers(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	token := f.login(t, "owner", "owner-pass")

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/api/admin/users", nil, token).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/api/admin/users", map[string]any{"username": "x", "password": "longenough"}, token).Code)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[healthResponse](t, rec).Status)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/nothing-here", nil, "").Code)
}
