package dto

import "github.com/noah-isme/student-planner/internal/models"

// ScheduleOverview is the coordinator state returned after a load.
type ScheduleOverview struct {
	Configuration *models.ScheduleConfiguration `json:"configuration"`
	IsConfigured  bool                          `json:"isConfigured"`
	CourseCount   int                           `json:"courseCount"`
	Statistics    models.ScheduleStatistics     `json:"statistics"`
	Navigation    models.WeekNavigation         `json:"navigation"`
	NextCourse    *models.GeneratedCourse       `json:"nextCourse,omitempty"`
}

// SaveVacationIntervalsRequest replaces the vacation list.
type SaveVacationIntervalsRequest struct {
	VacationIntervals []models.VacationInterval `json:"vacationIntervals" validate:"dive"`
}

// RegenerateResponse summarises one regeneration run.
type RegenerateResponse struct {
	Courses   int    `json:"courses"`
	Preserved int    `json:"preserved"`
	FirstDate string `json:"firstDate,omitempty"`
	LastDate  string `json:"lastDate,omitempty"`
}

// UpdateCourseStatusRequest overrides a course status by hand.
type UpdateCourseStatusRequest struct {
	Status models.CourseStatus `json:"status" validate:"required,oneof=upcoming in_progress completed cancelled"`
}

// SelectDateRequest moves the calendar cursor to a date.
type SelectDateRequest struct {
	Date string `json:"date" validate:"required,date"`
}

// CreateActivityRequest describes a new personal activity.
type CreateActivityRequest struct {
	Title           string              `json:"title" validate:"required"`
	Description     string              `json:"description"`
	Date            string              `json:"date" validate:"required,date"`
	StartTime       string              `json:"startTime" validate:"required,clock"`
	EndTime         string              `json:"endTime" validate:"required,clock"`
	ActivityType    models.ActivityType `json:"activityType" validate:"omitempty,oneof=study sport leisure appointment other"`
	ColorTag        string              `json:"colorTag"`
	ReminderEnabled bool                `json:"reminderEnabled"`
}
