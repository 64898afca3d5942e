package schedule

import (
	"time"

	"github.com/noah-isme/student-planner/internal/models"
	"github.com/noah-isme/student-planner/pkg/calendar"
)

// ReconcileOptions tunes status derivation.
type ReconcileOptions struct {
	// AutoCompleteMissed completes past courses that were never observed in
	// progress. Off by default: such courses stay upcoming.
	AutoCompleteMissed bool
}

// IsHappeningNow reports whether course is taking place at now.
func IsHappeningNow(course models.GeneratedCourse, now time.Time) bool {
	return calendar.IsHappeningNow(course.Date, course.StartTime, course.EndTime, now)
}

// IsPast reports whether course has ended at now.
func IsPast(course models.GeneratedCourse, now time.Time) bool {
	return calendar.IsPast(course.Date, course.EndTime, now)
}

// Reconcile derives each course's status from the wall clock. Cancelled is
// sticky; a running course becomes in_progress; a finished course becomes
// completed only when it was in_progress. It returns a new slice and how many
// courses changed.
func Reconcile(courses []models.GeneratedCourse, now time.Time, opts ReconcileOptions) ([]models.GeneratedCourse, int) {
	out := make([]models.GeneratedCourse, len(courses))
	changed := 0
	for i, course := range courses {
		next := reconcileStatus(course, now, opts)
		if next != course.Status {
			course.Status = next
			changed++
		}
		out[i] = course
	}
	return out, changed
}

func reconcileStatus(course models.GeneratedCourse, now time.Time, opts ReconcileOptions) models.CourseStatus {
	switch {
	case course.Status == models.CourseStatusCancelled:
		return course.Status
	case IsHappeningNow(course, now):
		return models.CourseStatusInProgress
	case IsPast(course, now):
		if course.Status == models.CourseStatusInProgress {
			return models.CourseStatusCompleted
		}
		if opts.AutoCompleteMissed && course.Status == models.CourseStatusUpcoming {
			return models.CourseStatusCompleted
		}
		return course.Status
	default:
		return course.Status
	}
}
