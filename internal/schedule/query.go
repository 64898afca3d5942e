package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/student-planner/internal/models"
	"github.com/noah-isme/student-planner/pkg/calendar"
)

// SortByStartTime returns a copy ordered by start time. Courses starting at
// the same minute keep their relative order.
func SortByStartTime(courses []models.GeneratedCourse) []models.GeneratedCourse {
	sorted := append([]models.GeneratedCourse{}, courses...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return calendar.ClockMinutes(sorted[i].StartTime) < calendar.ClockMinutes(sorted[j].StartTime)
	})
	return sorted
}

// ByDate returns the courses of one day sorted by start time.
func ByDate(courses []models.GeneratedCourse, date string) []models.GeneratedCourse {
	return SortByStartTime(filter(courses, func(c models.GeneratedCourse) bool {
		return c.Date == date
	}))
}

// ByWeek returns the courses of the Monday..Sunday week containing date, in
// collection order.
func ByWeek(courses []models.GeneratedCourse, date string) []models.GeneratedCourse {
	day, err := calendar.ParseDate(date)
	if err != nil {
		return []models.GeneratedCourse{}
	}
	dates := make(map[string]struct{}, 7)
	for _, d := range calendar.WeekDates(day) {
		dates[d] = struct{}{}
	}
	return filter(courses, func(c models.GeneratedCourse) bool {
		_, ok := dates[c.Date]
		return ok
	})
}

// ByMonth returns the courses dated in the given month, in collection order.
func ByMonth(courses []models.GeneratedCourse, year int, month time.Month) []models.GeneratedCourse {
	first, last := calendar.MonthBounds(year, month)
	return ByRange(courses, calendar.FormatDate(first), calendar.FormatDate(last))
}

// ByRange returns the courses dated between from and to inclusive.
func ByRange(courses []models.GeneratedCourse, from, to string) []models.GeneratedCourse {
	return filter(courses, func(c models.GeneratedCourse) bool {
		return c.Date >= from && c.Date <= to
	})
}

// GroupByDate buckets courses by date, keeping collection order in each bucket.
func GroupByDate(courses []models.GeneratedCourse) map[string][]models.GeneratedCourse {
	groups := make(map[string][]models.GeneratedCourse)
	for _, course := range courses {
		groups[course.Date] = append(groups[course.Date], course)
	}
	return groups
}

// Search matches query case-insensitively against the subject and the
// student's notes on each course.
func Search(courses []models.GeneratedCourse, query string) []models.GeneratedCourse {
	needle := strings.ToLower(query)
	return filter(courses, func(c models.GeneratedCourse) bool {
		if containsFold(c.SubjectName, needle) ||
			containsFold(c.Details.Theme, needle) ||
			containsFold(c.Details.Unit, needle) ||
			containsFold(c.Details.PersonalNotes, needle) {
			return true
		}
		for _, item := range c.Details.Objectives {
			if containsFold(item, needle) {
				return true
			}
		}
		for _, item := range c.Details.Activities {
			if containsFold(item, needle) {
				return true
			}
		}
		return false
	})
}

// NextUpcoming returns the earliest non-cancelled course starting after now,
// or nil when there is none.
func NextUpcoming(courses []models.GeneratedCourse, now time.Time) *models.GeneratedCourse {
	today := calendar.Today(now)
	current := calendar.NowMinutes(now)
	var next *models.GeneratedCourse
	for i := range courses {
		course := courses[i]
		if course.Status == models.CourseStatusCancelled {
			continue
		}
		if course.Date < today || (course.Date == today && calendar.ClockMinutes(course.StartTime) <= current) {
			continue
		}
		if next == nil || startsBefore(course, *next) {
			candidate := course
			next = &candidate
		}
	}
	return next
}

// UpcomingToday returns today's non-cancelled courses that have not started yet.
func UpcomingToday(courses []models.GeneratedCourse, now time.Time) []models.GeneratedCourse {
	today := calendar.Today(now)
	current := calendar.NowMinutes(now)
	return SortByStartTime(filter(courses, func(c models.GeneratedCourse) bool {
		return c.Date == today &&
			c.Status != models.CourseStatusCancelled &&
			calendar.ClockMinutes(c.StartTime) > current
	}))
}

// Statistics counts courses per status and those carrying notes.
func Statistics(courses []models.GeneratedCourse) models.ScheduleStatistics {
	stats := models.ScheduleStatistics{Total: len(courses)}
	for _, course := range courses {
		switch course.Status {
		case models.CourseStatusUpcoming:
			stats.Upcoming++
		case models.CourseStatusInProgress:
			stats.InProgress++
		case models.CourseStatusCompleted:
			stats.Completed++
		case models.CourseStatusCancelled:
			stats.Cancelled++
		}
		if course.Details.HasContent() {
			stats.WithDetails++
		}
	}
	return stats
}

func startsBefore(a, b models.GeneratedCourse) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	return calendar.ClockMinutes(a.StartTime) < calendar.ClockMinutes(b.StartTime)
}

func filter(courses []models.GeneratedCourse, keep func(models.GeneratedCourse) bool) []models.GeneratedCourse {
	out := make([]models.GeneratedCourse, 0)
	for _, course := range courses {
		if keep(course) {
			out = append(out, course)
		}
	}
	return out
}

func containsFold(value, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(value), lowerNeedle)
}
