// Package schedule expands a weekly class template into dated courses and
// answers questions about them. Everything here is a pure function of its
// inputs; persistence and clocks belong to the caller.
package schedule

import (
	"time"

	"github.com/noah-isme/student-planner/internal/models"
	"github.com/noah-isme/student-planner/pkg/calendar"
)

// IsExcluded reports whether date falls inside any vacation interval,
// bounds included. Intervals with unparseable bounds never match.
func IsExcluded(date string, intervals []models.VacationInterval) bool {
	day, err := calendar.ParseDate(date)
	if err != nil {
		return false
	}
	return isExcludedDay(day, intervals)
}

func isExcludedDay(day time.Time, intervals []models.VacationInterval) bool {
	for _, interval := range intervals {
		start, err := calendar.ParseDate(interval.StartDate)
		if err != nil {
			continue
		}
		end, err := calendar.ParseDate(interval.EndDate)
		if err != nil {
			continue
		}
		if !day.Before(start) && !day.After(end) {
			return true
		}
	}
	return false
}
