package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-planner/internal/models"
	"github.com/noah-isme/student-planner/internal/repository"
	"github.com/noah-isme/student-planner/internal/service"
	"github.com/noah-isme/student-planner/pkg/kvstore"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func buildPlannerRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now, err := time.Parse("2006-01-02 15:04", "2026-01-10 09:00")
	require.NoError(t, err)
	svc := service.NewScheduleService(
		repository.NewScheduleRepository(kvstore.NewMemoryStore()),
		nil, nil,
		service.ScheduleServiceConfig{PreserveDetails: true, Location: time.UTC},
		service.WithScheduleClock(func() time.Time { return now }),
	)
	_, err = svc.Load(context.Background())
	require.NoError(t, err)

	router := gin.New()
	api := router.Group("/api/v1")
	NewScheduleHandler(svc).Register(api)
	NewActivityHandler(svc).Register(api)
	NewExportHandler(svc).Register(api)
	return router
}

func call(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := performRequest(router, req)
	var env envelope
	if w.Body.Len() > 0 && bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const mathWeekTemplate = `{"monday":[{"id":"m1","startTime":"08:00","endTime":"09:00","subjectName":"Math","room":"B12"}]}`

func configureMathWeek(t *testing.T, router *gin.Engine) {
	t.Helper()
	w, _ := call(t, router, http.MethodPut, "/api/v1/schedule/template", mathWeekTemplate)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = call(t, router, http.MethodPut, "/api/v1/schedule/period", `{"startDate":"2026-01-12","endDate":"2026-01-18"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = call(t, router, http.MethodPost, "/api/v1/schedule/regenerate", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleHandlerRegenerateRequiresConfiguration(t *testing.T) {
	router := buildPlannerRouter(t)

	w, env := call(t, router, http.MethodPost, "/api/v1/schedule/regenerate", "")

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFIGURATION_UNAVAILABLE", env.Error.Code)
}

func TestScheduleHandlerGeneratesAndQueries(t *testing.T) {
	router := buildPlannerRouter(t)
	configureMathWeek(t, router)

	w, env := call(t, router, http.MethodGet, "/api/v1/schedule/courses?date=2026-01-12", "")
	require.Equal(t, http.StatusOK, w.Code)
	var courses []models.GeneratedCourse
	require.NoError(t, json.Unmarshal(env.Data, &courses))
	require.Len(t, courses, 1)
	assert.Equal(t, "course_20260112_0800_m1", courses[0].ID)
	assert.Equal(t, "B12", courses[0].Room)

	w, _ = call(t, router, http.MethodGet, "/api/v1/schedule/courses/course_20260112_0800_m1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = call(t, router, http.MethodGet, "/api/v1/schedule/courses/course_missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)

	w, env = call(t, router, http.MethodGet, "/api/v1/schedule/next", "")
	require.Equal(t, http.StatusOK, w.Code)
	var next models.GeneratedCourse
	require.NoError(t, json.Unmarshal(env.Data, &next))
	assert.Equal(t, "course_20260112_0800_m1", next.ID)

	w, env = call(t, router, http.MethodGet, "/api/v1/schedule/search?q=math", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &courses))
	assert.Len(t, courses, 1)

	w, env = call(t, router, http.MethodGet, "/api/v1/schedule/month?year=2026&month=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &courses))
	assert.Len(t, courses, 1)

	w, env = call(t, router, http.MethodGet, "/api/v1/schedule/statistics", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.ScheduleStatistics
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.Upcoming)
}

func TestScheduleHandlerCourseUpdates(t *testing.T) {
	router := buildPlannerRouter(t)
	configureMathWeek(t, router)
	path := "/api/v1/schedule/courses/course_20260112_0800_m1"

	w, env := call(t, router, http.MethodPatch, path+"/details", `{"theme":"Fractions","objectives":["add"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var course models.GeneratedCourse
	require.NoError(t, json.Unmarshal(env.Data, &course))
	assert.Equal(t, "Fractions", course.Details.Theme)
	assert.NotEmpty(t, course.Details.LastUpdated)

	w, _ = call(t, router, http.MethodPatch, path+"/status", `{"status":"cancelled"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, router, http.MethodPatch, path+"/status", `{"status":"postponed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// regenerating keeps the notes of a course whose id is unchanged
	w, _ = call(t, router, http.MethodPost, "/api/v1/schedule/regenerate", "")
	require.Equal(t, http.StatusOK, w.Code)
	_, env = call(t, router, http.MethodGet, path, "")
	require.NoError(t, json.Unmarshal(env.Data, &course))
	assert.Equal(t, "Fractions", course.Details.Theme)
	assert.Equal(t, models.CourseStatusCancelled, course.Status)
}

func TestScheduleHandlerValidation(t *testing.T) {
	router := buildPlannerRouter(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"malformed template json", http.MethodPut, "/api/v1/schedule/template", `{"monday":`},
		{"bad clock", http.MethodPut, "/api/v1/schedule/template", `{"monday":[{"id":"x","startTime":"8h","endTime":"09:00","subjectName":"Math"}]}`},
		{"slot ends before it starts", http.MethodPut, "/api/v1/schedule/template", `{"monday":[{"id":"x","startTime":"10:00","endTime":"09:00","subjectName":"Math"}]}`},
		{"bad period date", http.MethodPut, "/api/v1/schedule/period", `{"startDate":"12/01/2026","endDate":"2026-06-30"}`},
		{"vacation without id", http.MethodPut, "/api/v1/schedule/vacations", `{"vacationIntervals":[{"startDate":"2026-02-10","endDate":"2026-02-21"}]}`},
		{"missing date", http.MethodGet, "/api/v1/schedule/courses", ""},
		{"month out of range", http.MethodGet, "/api/v1/schedule/month?year=2026&month=13", ""},
		{"empty search", http.MethodGet, "/api/v1/schedule/search?q=", ""},
		{"bad selected date", http.MethodPost, "/api/v1/schedule/navigation/select", `{"date":"tomorrow"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := call(t, router, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		})
	}
}

func TestScheduleHandlerNavigation(t *testing.T) {
	router := buildPlannerRouter(t)
	configureMathWeek(t, router)

	var nav models.WeekNavigation
	_, env := call(t, router, http.MethodGet, "/api/v1/schedule/navigation", "")
	require.NoError(t, json.Unmarshal(env.Data, &nav))
	assert.Equal(t, "2026-01-05", nav.CurrentWeekStart)
	assert.Equal(t, "2026-01-10", nav.SelectedDate)

	_, env = call(t, router, http.MethodPost, "/api/v1/schedule/navigation/next", "")
	require.NoError(t, json.Unmarshal(env.Data, &nav))
	assert.Equal(t, "2026-01-12", nav.CurrentWeekStart)
	assert.Equal(t, 3, nav.WeekNumber)

	w, env := call(t, router, http.MethodGet, "/api/v1/schedule/week", "")
	require.Equal(t, http.StatusOK, w.Code)
	var courses []models.GeneratedCourse
	require.NoError(t, json.Unmarshal(env.Data, &courses))
	assert.Len(t, courses, 1)

	_, env = call(t, router, http.MethodPost, "/api/v1/schedule/navigation/previous", "")
	require.NoError(t, json.Unmarshal(env.Data, &nav))
	assert.Equal(t, "2026-01-05", nav.CurrentWeekStart)

	_, env = call(t, router, http.MethodPost, "/api/v1/schedule/navigation/select", `{"date":"2026-03-04"}`)
	require.NoError(t, json.Unmarshal(env.Data, &nav))
	assert.Equal(t, "2026-03-02", nav.CurrentWeekStart)
	assert.Equal(t, "2026-03-04", nav.SelectedDate)

	_, env = call(t, router, http.MethodPost, "/api/v1/schedule/navigation/today", "")
	require.NoError(t, json.Unmarshal(env.Data, &nav))
	assert.Equal(t, "2026-01-10", nav.SelectedDate)
}

func TestScheduleHandlerReset(t *testing.T) {
	router := buildPlannerRouter(t)
	configureMathWeek(t, router)

	w, _ := call(t, router, http.MethodDelete, "/api/v1/schedule", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w, env := call(t, router, http.MethodGet, "/api/v1/schedule", "")
	require.Equal(t, http.StatusOK, w.Code)
	var overview struct {
		IsConfigured bool `json:"isConfigured"`
		CourseCount  int  `json:"courseCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &overview))
	assert.False(t, overview.IsConfigured)
	assert.Zero(t, overview.CourseCount)
}

func TestActivityHandlerLifecycle(t *testing.T) {
	router := buildPlannerRouter(t)

	w, env := call(t, router, http.MethodPost, "/api/v1/activities",
		`{"title":"Swim","date":"2026-01-12","startTime":"18:00","endTime":"19:00","activityType":"sport"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var activity models.PersonalActivity
	require.NoError(t, json.Unmarshal(env.Data, &activity))
	require.NotEmpty(t, activity.ID)

	w, _ = call(t, router, http.MethodPost, "/api/v1/activities",
		`{"title":"Read","date":"2026-01-12","startTime":"07:00","endTime":"07:30"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	_, env = call(t, router, http.MethodGet, "/api/v1/activities?date=2026-01-12", "")
	var list []models.PersonalActivity
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Read", list[0].Title)
	assert.Equal(t, models.ActivityTypeOther, list[0].ActivityType)

	w, env = call(t, router, http.MethodPost, "/api/v1/activities/"+activity.ID+"/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &activity))
	assert.True(t, activity.Complete)

	w, env = call(t, router, http.MethodPatch, "/api/v1/activities/"+activity.ID, `{"title":"Swim practice"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &activity))
	assert.Equal(t, "Swim practice", activity.Title)

	w, _ = call(t, router, http.MethodDelete, "/api/v1/activities/"+activity.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = call(t, router, http.MethodDelete, "/api/v1/activities/"+activity.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = call(t, router, http.MethodPost, "/api/v1/activities", `{"title":"","date":"2026-01-12","startTime":"07:00","endTime":"07:30"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerBackupRoundTrip(t *testing.T) {
	router := buildPlannerRouter(t)
	configureMathWeek(t, router)

	w, _ := call(t, router, http.MethodGet, "/api/v1/schedule/backup", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "schedule-backup.json")
	backup := w.Body.String()
	assert.Contains(t, backup, "course_20260112_0800_m1")

	other := buildPlannerRouter(t)
	w, _ = call(t, other, http.MethodPost, "/api/v1/schedule/backup", backup)
	require.Equal(t, http.StatusNoContent, w.Code)
	w, _ = call(t, other, http.MethodGet, "/api/v1/schedule/courses/course_20260112_0800_m1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := call(t, other, http.MethodPost, "/api/v1/schedule/backup", `{"configuration":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "MALFORMED_IMPORT", env.Error.Code)
}

func TestExportHandlerDownloads(t *testing.T) {
	router := buildPlannerRouter(t)
	configureMathWeek(t, router)

	w, _ := call(t, router, http.MethodGet, "/api/v1/schedule/export/week?start=2026-01-14", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "schedule-week-2026-01-12.csv")
	assert.Contains(t, w.Body.String(), "Math")

	w, _ = call(t, router, http.MethodGet, "/api/v1/schedule/export/week?start=2026-01-12&format=xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w, env := call(t, router, http.MethodGet, "/api/v1/schedule/export/week?format=docx", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNSUPPORTED_FORMAT", env.Error.Code)

	w, _ = call(t, router, http.MethodGet, "/api/v1/schedule/export/calendar.ics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, w.Body.String(), "course_20260112_0800_m1")
}

func TestMetricsHandlerReadiness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()

	healthy := NewMetricsHandler(metrics, func(context.Context) error { return nil })
	broken := NewMetricsHandler(metrics, func(context.Context) error { return errors.New("redis: connection refused") })

	router := gin.New()
	router.GET("/health", healthy.Health)
	router.GET("/ready", healthy.Ready)
	router.GET("/ready-broken", broken.Ready)
	router.GET("/metrics", healthy.Prometheus)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, performRequest(router, req).Code)

	req, _ = http.NewRequest(http.MethodGet, "/ready", nil)
	w := performRequest(router, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "requestsTotal")

	req, _ = http.NewRequest(http.MethodGet, "/ready-broken", nil)
	assert.Equal(t, http.StatusServiceUnavailable, performRequest(router, req).Code)

	req, _ = http.NewRequest(http.MethodGet, "/metrics", nil)
	w = performRequest(router, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "goroutines_total")
}
