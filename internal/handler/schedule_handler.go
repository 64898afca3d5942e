package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-planner/internal/dto"
	"github.com/noah-isme/student-planner/internal/models"
	appErrors "github.com/noah-isme/student-planner/pkg/errors"
	"github.com/noah-isme/student-planner/pkg/response"
)

type scheduleService interface {
	Load(ctx context.Context) (*dto.ScheduleOverview, error)
	SaveWeeklyTemplate(ctx context.Context, template models.WeeklyTemplate) (*models.ScheduleConfiguration, error)
	SaveSchoolYearPeriod(ctx context.Context, period models.SchoolYearPeriod) (*models.ScheduleConfiguration, error)
	SaveVacationIntervals(ctx context.Context, intervals []models.VacationInterval) (*models.ScheduleConfiguration, error)
	Regenerate(ctx context.Context) (*dto.RegenerateResponse, error)
	ResetConfiguration(ctx context.Context) error
	Course(id string) (*models.GeneratedCourse, error)
	UpdateCourseDetails(ctx context.Context, id string, patch models.CourseDetailsPatch) (*models.GeneratedCourse, error)
	UpdateCourseStatus(ctx context.Context, id string, status models.CourseStatus) (*models.GeneratedCourse, error)
	QueryByDate(date string) []models.GeneratedCourse
	QueryByWeek() []models.GeneratedCourse
	QueryByMonth(year int, month time.Month) []models.GeneratedCourse
	Search(query string) []models.GeneratedCourse
	NextUpcoming() *models.GeneratedCourse
	UpcomingToday() []models.GeneratedCourse
	Statistics() models.ScheduleStatistics
	Navigation() models.WeekNavigation
	NextWeek() models.WeekNavigation
	PreviousWeek() models.WeekNavigation
	Today() models.WeekNavigation
	SelectDate(date string) (models.WeekNavigation, error)
}

// ScheduleHandler exposes the weekly template, generated courses and the
// week cursor.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// Register mounts the schedule routes on rg.
func (h *ScheduleHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/schedule", h.Overview)
	rg.DELETE("/schedule", h.Reset)
	rg.PUT("/schedule/template", h.SaveTemplate)
	rg.PUT("/schedule/period", h.SavePeriod)
	rg.PUT("/schedule/vacations", h.SaveVacations)
	rg.POST("/schedule/regenerate", h.Regenerate)

	rg.GET("/schedule/courses", h.ListCourses)
	rg.GET("/schedule/courses/:id", h.GetCourse)
	rg.PATCH("/schedule/courses/:id/details", h.UpdateDetails)
	rg.PATCH("/schedule/courses/:id/status", h.UpdateStatus)

	rg.GET("/schedule/week", h.Week)
	rg.GET("/schedule/month", h.Month)
	rg.GET("/schedule/search", h.Search)
	rg.GET("/schedule/next", h.Next)
	rg.GET("/schedule/today", h.Today)
	rg.GET("/schedule/statistics", h.Statistics)

	rg.GET("/schedule/navigation", h.Navigation)
	rg.POST("/schedule/navigation/next", h.NavigateNext)
	rg.POST("/schedule/navigation/previous", h.NavigatePrevious)
	rg.POST("/schedule/navigation/today", h.NavigateToday)
	rg.POST("/schedule/navigation/select", h.NavigateSelect)
}

// Overview godoc
// @Summary Reload the schedule and reconcile course statuses
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Overview(c *gin.Context) {
	overview, err := h.service.Load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview)
}

// Reset godoc
// @Summary Clear the configuration and generated courses
// @Tags Schedule
// @Success 204
// @Router /schedule [delete]
func (h *ScheduleHandler) Reset(c *gin.Context) {
	if err := h.service.ResetConfiguration(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SaveTemplate godoc
// @Summary Replace the weekly template
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body models.WeeklyTemplate true "Weekly template"
// @Success 200 {object} response.Envelope
// @Router /schedule/template [put]
func (h *ScheduleHandler) SaveTemplate(c *gin.Context) {
	var template models.WeeklyTemplate
	if !bindJSON(c, &template, "invalid weekly template payload") {
		return
	}
	cfg, err := h.service.SaveWeeklyTemplate(c.Request.Context(), template)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg)
}

// SavePeriod godoc
// @Summary Replace the school-year period
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body models.SchoolYearPeriod true "School-year period"
// @Success 200 {object} response.Envelope
// @Router /schedule/period [put]
func (h *ScheduleHandler) SavePeriod(c *gin.Context) {
	var period models.SchoolYearPeriod
	if !bindJSON(c, &period, "invalid period payload") {
		return
	}
	cfg, err := h.service.SaveSchoolYearPeriod(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg)
}

// SaveVacations godoc
// @Summary Replace the vacation intervals
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.SaveVacationIntervalsRequest true "Vacations"
// @Success 200 {object} response.Envelope
// @Router /schedule/vacations [put]
func (h *ScheduleHandler) SaveVacations(c *gin.Context) {
	var req dto.SaveVacationIntervalsRequest
	if !bindJSON(c, &req, "invalid vacations payload") {
		return
	}
	cfg, err := h.service.SaveVacationIntervals(c.Request.Context(), req.VacationIntervals)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg)
}

// Regenerate godoc
// @Summary Regenerate every course of the school year
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /schedule/regenerate [post]
func (h *ScheduleHandler) Regenerate(c *gin.Context) {
	result, err := h.service.Regenerate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ListCourses godoc
// @Summary List the courses of one date
// @Tags Courses
// @Produce json
// @Param date query string true "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /schedule/courses [get]
func (h *ScheduleHandler) ListCourses(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	courses := h.service.QueryByDate(date)
	response.JSON(c, http.StatusOK, courses, map[string]interface{}{"date": date, "count": len(courses)})
}

// GetCourse godoc
// @Summary Get a course by id
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule/courses/{id} [get]
func (h *ScheduleHandler) GetCourse(c *gin.Context) {
	course, err := h.service.Course(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// UpdateDetails godoc
// @Summary Patch the student's notes on a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body models.CourseDetailsPatch true "Details patch"
// @Success 200 {object} response.Envelope
// @Router /schedule/courses/{id}/details [patch]
func (h *ScheduleHandler) UpdateDetails(c *gin.Context) {
	var patch models.CourseDetailsPatch
	if !bindJSON(c, &patch, "invalid details payload") {
		return
	}
	course, err := h.service.UpdateCourseDetails(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// UpdateStatus godoc
// @Summary Override a course status
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.UpdateCourseStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /schedule/courses/{id}/status [patch]
func (h *ScheduleHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateCourseStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	course, err := h.service.UpdateCourseStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Week godoc
// @Summary Courses of the week under the calendar cursor
// @Tags Queries
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/week [get]
func (h *ScheduleHandler) Week(c *gin.Context) {
	nav := h.service.Navigation()
	response.JSON(c, http.StatusOK, h.service.QueryByWeek(), map[string]interface{}{"navigation": nav})
}

// Month godoc
// @Summary Courses of one month
// @Tags Queries
// @Produce json
// @Param year query int true "Year"
// @Param month query int true "Month 1-12"
// @Success 200 {object} response.Envelope
// @Router /schedule/month [get]
func (h *ScheduleHandler) Month(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be a positive integer"))
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.QueryByMonth(year, time.Month(month)))
}

// Search godoc
// @Summary Search courses by subject and notes
// @Tags Queries
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} response.Envelope
// @Router /schedule/search [get]
func (h *ScheduleHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "q is required"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.Search(query))
}

// Next godoc
// @Summary Next course that has not started
// @Tags Queries
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/next [get]
func (h *ScheduleHandler) Next(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.NextUpcoming())
}

// Today godoc
// @Summary Remaining courses of today
// @Tags Queries
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/today [get]
func (h *ScheduleHandler) Today(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.UpcomingToday())
}

// Statistics godoc
// @Summary Course counts per status
// @Tags Queries
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/statistics [get]
func (h *ScheduleHandler) Statistics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Statistics())
}

// Navigation godoc
// @Summary Current calendar cursor
// @Tags Navigation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/navigation [get]
func (h *ScheduleHandler) Navigation(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Navigation())
}

// NavigateNext moves the cursor one week forward.
func (h *ScheduleHandler) NavigateNext(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.NextWeek())
}

// NavigatePrevious moves the cursor one week back.
func (h *ScheduleHandler) NavigatePrevious(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.PreviousWeek())
}

// NavigateToday resets the cursor to today.
func (h *ScheduleHandler) NavigateToday(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Today())
}

// NavigateSelect godoc
// @Summary Select a date and jump to its week
// @Tags Navigation
// @Accept json
// @Produce json
// @Param payload body dto.SelectDateRequest true "Date"
// @Success 200 {object} response.Envelope
// @Router /schedule/navigation/select [post]
func (h *ScheduleHandler) NavigateSelect(c *gin.Context) {
	var req dto.SelectDateRequest
	if !bindJSON(c, &req, "invalid date payload") {
		return
	}
	nav, err := h.service.SelectDate(req.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nav)
}

func bindJSON(c *gin.Context, target interface{}, message string) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		response.Error(c, appErrors.Invalid(err, message))
		return false
	}
	return true
}
