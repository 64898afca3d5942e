package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-planner/internal/dto"
	"github.com/noah-isme/student-planner/internal/models"
	"github.com/noah-isme/student-planner/internal/schedule"
	"github.com/noah-isme/student-planner/pkg/calendar"
	appErrors "github.com/noah-isme/student-planner/pkg/errors"
)

type scheduleRepository interface {
	GetConfiguration(ctx context.Context) (*models.ScheduleConfiguration, error)
	SaveConfiguration(ctx context.Context, cfg models.ScheduleConfiguration) error
	ListCourses(ctx context.Context) ([]models.GeneratedCourse, error)
	SaveCourses(ctx context.Context, courses []models.GeneratedCourse) error
	IsConfigured(ctx context.Context) (bool, error)
	SetConfigured(ctx context.Context, configured bool) error
	ListActivities(ctx context.Context) ([]models.PersonalActivity, error)
	SaveActivities(ctx context.Context, activities []models.PersonalActivity) error
	ClearSchedule(ctx context.Context) error
}

type scheduleMetrics interface {
	ObserveGeneration(courses int, duration time.Duration)
	ObserveStatusTransitions(changed int)
}

// ScheduleServiceConfig tunes generation and reconciliation.
type ScheduleServiceConfig struct {
	// PreserveDetails keeps details and status of courses whose ID survives
	// regeneration. When false regeneration replaces the collection wholesale.
	PreserveDetails bool
	// PersistReconciled writes statuses changed by Load back to storage.
	PersistReconciled  bool
	AutoCompleteMissed bool
	// DefaultTemplate backs period and vacation saves made before any
	// template exists. Nil means the built-in template.
	DefaultTemplate *models.WeeklyTemplate
	// Location places course wall-clock times on the timeline for calendar
	// exports. Nil means time.Local.
	Location *time.Location
	// CSVSeparator overrides the CSV field separator; zero means ','.
	CSVSeparator rune
}

// ScheduleServiceOption configures the service.
type ScheduleServiceOption func(*ScheduleService)

// WithScheduleClock overrides the wall clock.
func WithScheduleClock(now func() time.Time) ScheduleServiceOption {
	return func(s *ScheduleService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithScheduleMetrics attaches generation and reconciliation metrics.
func WithScheduleMetrics(metrics scheduleMetrics) ScheduleServiceOption {
	return func(s *ScheduleService) {
		s.metrics = metrics
	}
}

// ScheduleService owns the in-memory schedule and mirrors every change to
// storage. Operations are serialised by mu; storage errors are returned as is.
type ScheduleService struct {
	repo      scheduleRepository
	validator *validator.Validate
	logger    *zap.Logger
	metrics   scheduleMetrics
	cfg       ScheduleServiceConfig
	now       func() time.Time
	renderers exportRenderers

	mu            sync.RWMutex
	configuration *models.ScheduleConfiguration
	courses       []models.GeneratedCourse
	activities    []models.PersonalActivity
	configured    bool
	selectedDate  time.Time
	weekStart     time.Time
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, logger *zap.Logger, cfg ScheduleServiceConfig, opts ...ScheduleServiceOption) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTemplate == nil {
		template := schedule.DefaultTemplate()
		cfg.DefaultTemplate = &template
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	registerScheduleValidations(validate)

	svc := &ScheduleService{
		repo:       repo,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
		renderers:  defaultExportRenderers(cfg.CSVSeparator),
		courses:    []models.GeneratedCourse{},
		activities: []models.PersonalActivity{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	svc.resetNavigation()
	return svc
}

func registerScheduleValidations(v *validator.Validate) {
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return calendar.IsClock(fl.Field().String())
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		return calendar.IsDate(fl.Field().String())
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		slot := sl.Current().Interface().(models.WeeklyTemplateSlot)
		if !calendar.IsClock(slot.StartTime) || !calendar.IsClock(slot.EndTime) {
			return
		}
		if calendar.DurationMinutes(slot.StartTime, slot.EndTime) <= 0 {
			sl.ReportError(slot.EndTime, "endTime", "EndTime", "gtstart", "")
		}
	}, models.WeeklyTemplateSlot{})
}

// Load reads the whole schedule from storage and reconciles course statuses
// against the clock.
func (s *ScheduleService) Load(ctx context.Context) (*dto.ScheduleOverview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}
	return s.overviewLocked(), nil
}

func (s *ScheduleService) loadLocked(ctx context.Context) error {
	cfg, err := s.repo.GetConfiguration(ctx)
	if err != nil {
		return err
	}
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return err
	}
	configured, err := s.repo.IsConfigured(ctx)
	if err != nil {
		return err
	}
	activities, err := s.repo.ListActivities(ctx)
	if err != nil {
		return err
	}

	reconciled, _, err := s.reconcileLocked(ctx, courses)
	if err != nil {
		return err
	}

	s.configuration = cfg
	s.courses = reconciled
	s.configured = configured
	s.activities = activities
	return nil
}

// ReconcileStatuses re-derives the status of the in-memory courses from the
// clock without reloading storage. It returns how many courses changed.
func (s *ScheduleService) ReconcileStatuses(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reconciled, changed, err := s.reconcileLocked(ctx, s.courses)
	if err != nil {
		return 0, err
	}
	s.courses = reconciled
	return changed, nil
}

func (s *ScheduleService) reconcileLocked(ctx context.Context, courses []models.GeneratedCourse) ([]models.GeneratedCourse, int, error) {
	reconciled, changed := schedule.Reconcile(courses, s.now(), s.reconcileOptions())
	if changed == 0 {
		return reconciled, 0, nil
	}
	if s.metrics != nil {
		s.metrics.ObserveStatusTransitions(changed)
	}
	if s.cfg.PersistReconciled {
		if err := s.repo.SaveCourses(ctx, reconciled); err != nil {
			return nil, 0, err
		}
	}
	s.logger.Debug("course statuses reconciled", zap.Int("changed", changed))
	return reconciled, changed, nil
}

// Overview returns the in-memory state without touching storage.
func (s *ScheduleService) Overview() *dto.ScheduleOverview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overviewLocked()
}

func (s *ScheduleService) overviewLocked() *dto.ScheduleOverview {
	return &dto.ScheduleOverview{
		Configuration: cloneConfiguration(s.configuration),
		IsConfigured:  s.configured,
		CourseCount:   len(s.courses),
		Statistics:    schedule.Statistics(s.courses),
		Navigation:    s.navigationLocked(),
		NextCourse:    cloneCoursePtr(schedule.NextUpcoming(s.courses, s.now())),
	}
}

// Configuration returns the in-memory configuration, or nil before setup.
func (s *ScheduleService) Configuration() *models.ScheduleConfiguration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConfiguration(s.configuration)
}

// SaveWeeklyTemplate replaces the weekly template, keeping period and vacations.
func (s *ScheduleService) SaveWeeklyTemplate(ctx context.Context, template models.WeeklyTemplate) (*models.ScheduleConfiguration, error) {
	if err := s.validator.Struct(template); err != nil {
		return nil, appErrors.Invalid(err, "invalid weekly template")
	}
	template = schedule.NormalizeTemplate(template)
	return s.updateConfiguration(ctx, func(cfg *models.ScheduleConfiguration) {
		cfg.WeeklyTemplate = template
	})
}

// SaveSchoolYearPeriod replaces the school-year bounds. Inverted ranges are
// accepted and later generate nothing.
func (s *ScheduleService) SaveSchoolYearPeriod(ctx context.Context, period models.SchoolYearPeriod) (*models.ScheduleConfiguration, error) {
	if err := s.validator.Struct(period); err != nil {
		return nil, appErrors.Invalid(err, "invalid school year period")
	}
	return s.updateConfiguration(ctx, func(cfg *models.ScheduleConfiguration) {
		cfg.SchoolYearPeriod = period
	})
}

// SaveVacationIntervals replaces the vacation list.
func (s *ScheduleService) SaveVacationIntervals(ctx context.Context, intervals []models.VacationInterval) (*models.ScheduleConfiguration, error) {
	req := dto.SaveVacationIntervalsRequest{VacationIntervals: intervals}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid vacation intervals")
	}
	if intervals == nil {
		intervals = []models.VacationInterval{}
	}
	intervals = append([]models.VacationInterval{}, intervals...)
	return s.updateConfiguration(ctx, func(cfg *models.ScheduleConfiguration) {
		cfg.VacationIntervals = intervals
	})
}

func (s *ScheduleService) updateConfiguration(ctx context.Context, mutate func(*models.ScheduleConfiguration)) (*models.ScheduleConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.baseConfigurationLocked(ctx)
	if err != nil {
		return nil, err
	}
	mutate(&cfg)
	cfg.LastModified = s.now().UTC().Format(time.RFC3339)

	if err := s.repo.SaveConfiguration(ctx, cfg); err != nil {
		return nil, err
	}
	s.configuration = &cfg
	return cloneConfiguration(&cfg), nil
}

// baseConfigurationLocked is the configuration edits merge into: memory
// first, then storage, then a fresh configuration on the default template.
func (s *ScheduleService) baseConfigurationLocked(ctx context.Context) (models.ScheduleConfiguration, error) {
	if s.configuration != nil {
		return *cloneConfiguration(s.configuration), nil
	}
	stored, err := s.repo.GetConfiguration(ctx)
	if err != nil {
		return models.ScheduleConfiguration{}, err
	}
	if stored != nil {
		return *stored, nil
	}
	return models.ScheduleConfiguration{
		WeeklyTemplate:    cloneTemplate(*s.cfg.DefaultTemplate),
		VacationIntervals: []models.VacationInterval{},
	}, nil
}

// Regenerate rebuilds the course collection from the persisted configuration.
func (s *ScheduleService) Regenerate(ctx context.Context) (*dto.RegenerateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.repo.GetConfiguration(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, appErrors.Clone(appErrors.ErrConfigurationUnavailable, "save a weekly template and school year before generating")
	}

	start := time.Now()
	generated := schedule.GenerateYear(*cfg)
	elapsed := time.Since(start)

	preserved := 0
	if s.cfg.PreserveDetails {
		previous, err := s.repo.ListCourses(ctx)
		if err != nil {
			return nil, err
		}
		generated = schedule.MergePrevious(generated, previous)
		preserved = countSurvivors(generated, previous)
	}
	generated, changed := schedule.Reconcile(generated, s.now(), s.reconcileOptions())
	if s.metrics != nil {
		s.metrics.ObserveStatusTransitions(changed)
	}

	if err := s.repo.SaveCourses(ctx, generated); err != nil {
		return nil, err
	}
	if err := s.repo.SetConfigured(ctx, true); err != nil {
		return nil, err
	}

	s.configuration = cfg
	s.courses = generated
	s.configured = true
	if s.metrics != nil {
		s.metrics.ObserveGeneration(len(generated), elapsed)
	}
	s.logger.Info("schedule regenerated",
		zap.Int("courses", len(generated)),
		zap.Int("preserved", preserved),
		zap.Duration("duration", elapsed),
	)

	resp := &dto.RegenerateResponse{Courses: len(generated), Preserved: preserved}
	if len(generated) > 0 {
		resp.FirstDate = generated[0].Date
		resp.LastDate = generated[len(generated)-1].Date
	}
	return resp, nil
}

// ResetConfiguration forgets configuration, courses and the configured flag.
// Personal activities are kept.
func (s *ScheduleService) ResetConfiguration(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ClearSchedule(ctx); err != nil {
		return err
	}
	s.configuration = nil
	s.courses = []models.GeneratedCourse{}
	s.configured = false
	s.logger.Info("schedule configuration reset")
	return nil
}

// Course returns one course by ID.
func (s *ScheduleService) Course(id string) (*models.GeneratedCourse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.courseIndexLocked(id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	course := cloneCourse(s.courses[idx])
	return &course, nil
}

// UpdateCourseDetails merges patch into a course's details and stamps the update time.
func (s *ScheduleService) UpdateCourseDetails(ctx context.Context, id string, patch models.CourseDetailsPatch) (*models.GeneratedCourse, error) {
	return s.updateCourse(ctx, id, func(course *models.GeneratedCourse) {
		course.Details = patch.Apply(course.Details, s.now())
	})
}

// UpdateCourseStatus sets a status by hand, bypassing reconciliation rules.
func (s *ScheduleService) UpdateCourseStatus(ctx context.Context, id string, status models.CourseStatus) (*models.GeneratedCourse, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown course status")
	}
	return s.updateCourse(ctx, id, func(course *models.GeneratedCourse) {
		course.Status = status
	})
}

func (s *ScheduleService) updateCourse(ctx context.Context, id string, mutate func(*models.GeneratedCourse)) (*models.GeneratedCourse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.courseIndexLocked(id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	next := append([]models.GeneratedCourse{}, s.courses...)
	mutate(&next[idx])
	if err := s.repo.SaveCourses(ctx, next); err != nil {
		return nil, err
	}
	s.courses = next
	course := cloneCourse(next[idx])
	return &course, nil
}

func (s *ScheduleService) courseIndexLocked(id string) int {
	for i := range s.courses {
		if s.courses[i].ID == id {
			return i
		}
	}
	return -1
}

// QueryByDate returns one day's courses ordered by start time.
func (s *ScheduleService) QueryByDate(date string) []models.GeneratedCourse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCourses(schedule.ByDate(s.courses, date))
}

// QueryByWeek returns the courses of the week under the calendar cursor.
func (s *ScheduleService) QueryByWeek() []models.GeneratedCourse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCourses(schedule.ByWeek(s.courses, calendar.FormatDate(s.weekStart)))
}

// QueryByMonth returns the courses of a calendar month.
func (s *ScheduleService) QueryByMonth(year int, month time.Month) []models.GeneratedCourse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCourses(schedule.ByMonth(s.courses, year, month))
}

// Search matches subject and notes case-insensitively.
func (s *ScheduleService) Search(query string) []models.GeneratedCourse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCourses(schedule.Search(s.courses, query))
}

// NextUpcoming returns the next course to start, or nil.
func (s *ScheduleService) NextUpcoming() *models.GeneratedCourse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCoursePtr(schedule.NextUpcoming(s.courses, s.now()))
}

// UpcomingToday returns today's courses that have not started yet.
func (s *ScheduleService) UpcomingToday() []models.GeneratedCourse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCourses(schedule.UpcomingToday(s.courses, s.now()))
}

// Statistics counts in-memory courses per status.
func (s *ScheduleService) Statistics() models.ScheduleStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return schedule.Statistics(s.courses)
}

// Navigation returns the calendar cursor.
func (s *ScheduleService) Navigation() models.WeekNavigation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.navigationLocked()
}

// NextWeek moves the cursor one week forward and selects its Monday.
func (s *ScheduleService) NextWeek() models.WeekNavigation {
	return s.moveWeek(7)
}

// PreviousWeek moves the cursor one week back and selects its Monday.
func (s *ScheduleService) PreviousWeek() models.WeekNavigation {
	return s.moveWeek(-7)
}

// Today resets the cursor to the current day.
func (s *ScheduleService) Today() models.WeekNavigation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetNavigation()
	return s.navigationLocked()
}

// SelectDate moves the cursor to date and its week.
func (s *ScheduleService) SelectDate(date string) (models.WeekNavigation, error) {
	day, err := calendar.ParseDate(date)
	if err != nil {
		return models.WeekNavigation{}, appErrors.Invalid(err, "date must be YYYY-MM-DD")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedDate = day
	s.weekStart = calendar.WeekStart(day)
	return s.navigationLocked(), nil
}

func (s *ScheduleService) moveWeek(days int) models.WeekNavigation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weekStart = calendar.AddDays(s.weekStart, days)
	s.selectedDate = s.weekStart
	return s.navigationLocked()
}

func (s *ScheduleService) resetNavigation() {
	today := calendar.MustParseDate(calendar.Today(s.now()))
	s.selectedDate = today
	s.weekStart = calendar.WeekStart(today)
}

func (s *ScheduleService) navigationLocked() models.WeekNavigation {
	return models.WeekNavigation{
		SelectedDate:     calendar.FormatDate(s.selectedDate),
		CurrentWeekStart: calendar.FormatDate(s.weekStart),
		WeekNumber:       calendar.WeekNumber(s.weekStart),
	}
}

func (s *ScheduleService) reconcileOptions() schedule.ReconcileOptions {
	return schedule.ReconcileOptions{AutoCompleteMissed: s.cfg.AutoCompleteMissed}
}

func countSurvivors(generated, previous []models.GeneratedCourse) int {
	if len(previous) == 0 {
		return 0
	}
	ids := make(map[string]struct{}, len(previous))
	for _, course := range previous {
		ids[course.ID] = struct{}{}
	}
	count := 0
	for _, course := range generated {
		if _, ok := ids[course.ID]; ok {
			count++
		}
	}
	return count
}

func cloneConfiguration(cfg *models.ScheduleConfiguration) *models.ScheduleConfiguration {
	if cfg == nil {
		return nil
	}
	clone := *cfg
	clone.WeeklyTemplate = cloneTemplate(cfg.WeeklyTemplate)
	clone.VacationIntervals = append([]models.VacationInterval{}, cfg.VacationIntervals...)
	return &clone
}

func cloneTemplate(template models.WeeklyTemplate) models.WeeklyTemplate {
	for _, day := range template.Days() {
		*day = append([]models.WeeklyTemplateSlot{}, (*day)...)
	}
	return template
}

// cloneCourse copies the details slices so callers cannot reach in-memory state.
func cloneCourse(course models.GeneratedCourse) models.GeneratedCourse {
	course.Details.Objectives = cloneStrings(course.Details.Objectives)
	course.Details.Activities = cloneStrings(course.Details.Activities)
	return course
}

func cloneCoursePtr(course *models.GeneratedCourse) *models.GeneratedCourse {
	if course == nil {
		return nil
	}
	clone := cloneCourse(*course)
	return &clone
}

func cloneCourses(courses []models.GeneratedCourse) []models.GeneratedCourse {
	out := make([]models.GeneratedCourse, len(courses))
	for i, course := range courses {
		out[i] = cloneCourse(course)
	}
	return out
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string{}, values...)
}
