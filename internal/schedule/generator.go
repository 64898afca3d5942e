package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/noah-isme/student-planner/internal/models"
	"github.com/noah-isme/student-planner/pkg/calendar"
)

var schoolDays = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

// CourseID derives the identity of a generated course. The same date, start
// time and slot always give the same ID.
func CourseID(date, startTime, slotID string) string {
	return fmt.Sprintf("course_%s_%s_%s",
		strings.ReplaceAll(date, "-", ""),
		strings.ReplaceAll(startTime, ":", ""),
		slotID,
	)
}

// GenerateYear expands the weekly template over every school day of the
// configured period, skipping weekends and vacations. An inverted or
// unparseable period yields no courses.
func GenerateYear(cfg models.ScheduleConfiguration) []models.GeneratedCourse {
	courses := make([]models.GeneratedCourse, 0)

	start, err := calendar.ParseDate(cfg.SchoolYearPeriod.StartDate)
	if err != nil {
		return courses
	}
	end, err := calendar.ParseDate(cfg.SchoolYearPeriod.EndDate)
	if err != nil || start.After(end) {
		return courses
	}

	for _, day := range schoolDaysBetween(start, end) {
		if isExcludedDay(day, cfg.VacationIntervals) {
			continue
		}
		courses = appendDay(courses, cfg.WeeklyTemplate.Slots(day.Weekday()), day, day.Weekday())
	}
	return courses
}

// GenerateWeek previews the five school days starting at weekStart. Offsets
// 0..4 map to Monday..Friday regardless of weekStart's own weekday, and each
// course is labelled with the weekday of its slots.
func GenerateWeek(template models.WeeklyTemplate, weekStart string, vacations []models.VacationInterval) []models.GeneratedCourse {
	courses := make([]models.GeneratedCourse, 0)
	first, err := calendar.ParseDate(weekStart)
	if err != nil {
		return courses
	}
	for offset := 0; offset < 5; offset++ {
		day := calendar.AddDays(first, offset)
		if isExcludedDay(day, vacations) {
			continue
		}
		slotDay := time.Monday + time.Weekday(offset)
		courses = appendDay(courses, template.Slots(slotDay), day, slotDay)
	}
	return courses
}

// MergePrevious carries details and status over from previous courses whose
// IDs reappear in generated. Courses that disappeared are dropped.
func MergePrevious(generated, previous []models.GeneratedCourse) []models.GeneratedCourse {
	if len(previous) == 0 {
		return generated
	}
	byID := make(map[string]models.GeneratedCourse, len(previous))
	for _, course := range previous {
		byID[course.ID] = course
	}
	merged := make([]models.GeneratedCourse, len(generated))
	for i, course := range generated {
		if old, ok := byID[course.ID]; ok {
			course.Details = old.Details
			course.Status = old.Status
		}
		merged[i] = course
	}
	return merged
}

func schoolDaysBetween(start, end time.Time) []time.Time {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   start,
		Until:     end,
		Byweekday: schoolDays,
	})
	if err != nil {
		return nil
	}
	return rule.All()
}

func appendDay(courses []models.GeneratedCourse, slots []models.WeeklyTemplateSlot, day time.Time, slotDay time.Weekday) []models.GeneratedCourse {
	date := calendar.FormatDate(day)
	weekday := calendar.WeekdayName(slotDay)
	for _, slot := range slots {
		courses = append(courses, newCourse(slot, date, weekday))
	}
	return courses
}

func newCourse(slot models.WeeklyTemplateSlot, date string, weekday calendar.Weekday) models.GeneratedCourse {
	return models.GeneratedCourse{
		ID:             CourseID(date, slot.StartTime, slot.ID),
		Date:           date,
		Weekday:        weekday,
		StartTime:      slot.StartTime,
		EndTime:        slot.EndTime,
		SubjectName:    slot.SubjectName,
		Room:           slot.Room,
		ColorTag:       slot.ColorTag,
		Details:        models.EmptyCourseDetails(),
		Status:         models.CourseStatusUpcoming,
		TemplateSlotID: slot.ID,
	}
}
