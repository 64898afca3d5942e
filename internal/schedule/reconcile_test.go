package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/student-planner/internal/models"
)

func at(value string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		panic(err)
	}
	return t
}

func course(id, date, start, end string, status models.CourseStatus) models.GeneratedCourse {
	return models.GeneratedCourse{ID: id, Date: date, StartTime: start, EndTime: end, Status: status}
}

func TestReconcileFixedDay(t *testing.T) {
	now := at("2026-01-12 10:30")
	courses := []models.GeneratedCourse{
		course("past-running", "2026-01-12", "08:00", "09:00", models.CourseStatusInProgress),
		course("past-never-seen", "2026-01-12", "09:00", "10:00", models.CourseStatusUpcoming),
		course("now", "2026-01-12", "10:15", "11:15", models.CourseStatusUpcoming),
		course("cancelled-now", "2026-01-12", "10:15", "11:15", models.CourseStatusCancelled),
		course("later", "2026-01-12", "13:30", "14:30", models.CourseStatusUpcoming),
		course("manual-complete", "2026-01-12", "10:00", "11:00", models.CourseStatusCompleted),
	}

	out, changed := Reconcile(courses, now, ReconcileOptions{})
	assert.Equal(t, models.CourseStatusCompleted, out[0].Status)
	assert.Equal(t, models.CourseStatusUpcoming, out[1].Status)
	assert.Equal(t, models.CourseStatusInProgress, out[2].Status)
	assert.Equal(t, models.CourseStatusCancelled, out[3].Status)
	assert.Equal(t, models.CourseStatusUpcoming, out[4].Status)
	// a manual completion during the course window is pulled back to in_progress
	assert.Equal(t, models.CourseStatusInProgress, out[5].Status)
	assert.Equal(t, 3, changed)

	assert.Equal(t, models.CourseStatusInProgress, courses[0].Status, "input is not mutated")
}

func TestReconcileAutoCompleteMissed(t *testing.T) {
	now := at("2026-01-13 08:00")
	courses := []models.GeneratedCourse{
		course("missed", "2026-01-12", "09:00", "10:00", models.CourseStatusUpcoming),
		course("cancelled", "2026-01-12", "09:00", "10:00", models.CourseStatusCancelled),
	}
	out, changed := Reconcile(courses, now, ReconcileOptions{AutoCompleteMissed: true})
	assert.Equal(t, models.CourseStatusCompleted, out[0].Status)
	assert.Equal(t, models.CourseStatusCancelled, out[1].Status)
	assert.Equal(t, 1, changed)
}

func TestReconcileIsStableOnSecondPass(t *testing.T) {
	now := at("2026-01-12 10:30")
	courses := []models.GeneratedCourse{
		course("a", "2026-01-12", "08:00", "09:00", models.CourseStatusInProgress),
		course("b", "2026-01-12", "10:00", "11:00", models.CourseStatusUpcoming),
	}
	once, _ := Reconcile(courses, now, ReconcileOptions{})
	twice, changed := Reconcile(once, now, ReconcileOptions{})
	assert.Equal(t, once, twice)
	assert.Zero(t, changed)
}
