package models

import (
	"time"

	"github.com/noah-isme/student-planner/pkg/calendar"
)

// CourseStatus is the lifecycle state of a generated course.
type CourseStatus string

const (
	CourseStatusUpcoming   CourseStatus = "upcoming"
	CourseStatusInProgress CourseStatus = "in_progress"
	CourseStatusCompleted  CourseStatus = "completed"
	CourseStatusCancelled  CourseStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusUpcoming, CourseStatusInProgress, CourseStatusCompleted, CourseStatusCancelled:
		return true
	default:
		return false
	}
}

// WeeklyTemplateSlot is one recurring class in the weekly template.
type WeeklyTemplateSlot struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	StartTime   string `json:"startTime" yaml:"startTime" validate:"required,clock"`
	EndTime     string `json:"endTime" yaml:"endTime" validate:"required,clock"`
	SubjectName string `json:"subjectName" yaml:"subjectName" validate:"required"`
	Room        string `json:"room" yaml:"room"`
	ColorTag    string `json:"colorTag" yaml:"colorTag"`
}

// WeeklyTemplate maps each school day to its ordered slots.
type WeeklyTemplate struct {
	Monday    []WeeklyTemplateSlot `json:"monday" yaml:"monday" validate:"dive"`
	Tuesday   []WeeklyTemplateSlot `json:"tuesday" yaml:"tuesday" validate:"dive"`
	Wednesday []WeeklyTemplateSlot `json:"wednesday" yaml:"wednesday" validate:"dive"`
	Thursday  []WeeklyTemplateSlot `json:"thursday" yaml:"thursday" validate:"dive"`
	Friday    []WeeklyTemplateSlot `json:"friday" yaml:"friday" validate:"dive"`
}

// Slots returns the template slots for a weekday; weekends have none.
func (t WeeklyTemplate) Slots(day time.Weekday) []WeeklyTemplateSlot {
	switch day {
	case time.Monday:
		return t.Monday
	case time.Tuesday:
		return t.Tuesday
	case time.Wednesday:
		return t.Wednesday
	case time.Thursday:
		return t.Thursday
	case time.Friday:
		return t.Friday
	default:
		return nil
	}
}

// Days exposes the five weekday lists in Monday..Friday order.
func (t *WeeklyTemplate) Days() []*[]WeeklyTemplateSlot {
	return []*[]WeeklyTemplateSlot{&t.Monday, &t.Tuesday, &t.Wednesday, &t.Thursday, &t.Friday}
}

// SchoolYearPeriod bounds course generation.
type SchoolYearPeriod struct {
	StartDate string `json:"startDate" validate:"omitempty,date"`
	EndDate   string `json:"endDate" validate:"omitempty,date"`
}

// VacationInterval is a named, inclusive range of dates without classes.
type VacationInterval struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name"`
	StartDate string `json:"startDate" validate:"required,date"`
	EndDate   string `json:"endDate" validate:"required,date"`
}

// ScheduleConfiguration is the root configuration every generated course derives from.
type ScheduleConfiguration struct {
	WeeklyTemplate    WeeklyTemplate     `json:"weeklyTemplate"`
	SchoolYearPeriod  SchoolYearPeriod   `json:"schoolYearPeriod"`
	VacationIntervals []VacationInterval `json:"vacationIntervals"`
	LastModified      string             `json:"lastModified"`
}

// GeneratedCourseDetails holds free-text notes a student adds to a course.
type GeneratedCourseDetails struct {
	Theme          string   `json:"theme"`
	Objectives     []string `json:"objectives"`
	Activities     []string `json:"activities"`
	EvaluationType string   `json:"evaluationType"`
	Unit           string   `json:"unit"`
	PersonalNotes  string   `json:"personalNotes"`
	LastUpdated    string   `json:"lastUpdated"`
}

// EmptyCourseDetails returns the details attached to freshly generated courses.
func EmptyCourseDetails() GeneratedCourseDetails {
	return GeneratedCourseDetails{Objectives: []string{}, Activities: []string{}}
}

// HasContent reports whether a student filled in theme, objectives or activities.
func (d GeneratedCourseDetails) HasContent() bool {
	return d.Theme != "" || len(d.Objectives) > 0 || len(d.Activities) > 0
}

// CourseDetailsPatch carries a partial details update; nil fields are kept.
type CourseDetailsPatch struct {
	Theme          *string   `json:"theme,omitempty"`
	Objectives     *[]string `json:"objectives,omitempty"`
	Activities     *[]string `json:"activities,omitempty"`
	EvaluationType *string   `json:"evaluationType,omitempty"`
	Unit           *string   `json:"unit,omitempty"`
	PersonalNotes  *string   `json:"personalNotes,omitempty"`
}

// Apply merges the patch into d and stamps the update time.
func (p CourseDetailsPatch) Apply(d GeneratedCourseDetails, updatedAt time.Time) GeneratedCourseDetails {
	if p.Theme != nil {
		d.Theme = *p.Theme
	}
	if p.Objectives != nil {
		d.Objectives = append([]string{}, (*p.Objectives)...)
	}
	if p.Activities != nil {
		d.Activities = append([]string{}, (*p.Activities)...)
	}
	if p.EvaluationType != nil {
		d.EvaluationType = *p.EvaluationType
	}
	if p.Unit != nil {
		d.Unit = *p.Unit
	}
	if p.PersonalNotes != nil {
		d.PersonalNotes = *p.PersonalNotes
	}
	d.LastUpdated = updatedAt.Format(time.RFC3339)
	return d
}

// GeneratedCourse is one dated occurrence of a template slot.
type GeneratedCourse struct {
	ID             string                 `json:"id"`
	Date           string                 `json:"date"`
	Weekday        calendar.Weekday       `json:"weekday"`
	StartTime      string                 `json:"startTime"`
	EndTime        string                 `json:"endTime"`
	SubjectName    string                 `json:"subjectName"`
	Room           string                 `json:"room"`
	ColorTag       string                 `json:"colorTag"`
	Details        GeneratedCourseDetails `json:"details"`
	Status         CourseStatus           `json:"status"`
	TemplateSlotID string                 `json:"templateSlotId"`
}

// ScheduleData is the backup triple exchanged by export and import.
type ScheduleData struct {
	Configuration    *ScheduleConfiguration `json:"configuration"`
	GeneratedCourses []GeneratedCourse      `json:"generatedCourses"`
	IsConfigured     bool                   `json:"isConfigured"`
}

// ScheduleStatistics counts courses per status.
type ScheduleStatistics struct {
	Total       int `json:"total"`
	Upcoming    int `json:"upcoming"`
	InProgress  int `json:"inProgress"`
	Completed   int `json:"completed"`
	Cancelled   int `json:"cancelled"`
	WithDetails int `json:"withDetails"`
}

// WeekNavigation is the calendar cursor shown by week views.
type WeekNavigation struct {
	SelectedDate     string `json:"selectedDate"`
	CurrentWeekStart string `json:"currentWeekStart"`
	WeekNumber       int    `json:"weekNumber"`
}
