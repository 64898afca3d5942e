package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-planner/internal/models"
)

func sampleCourses() []models.GeneratedCourse {
	withNotes := course("sci", "2026-01-13", "10:15", "11:15", models.CourseStatusUpcoming)
	withNotes.SubjectName = "Sciences"
	withNotes.Details = models.GeneratedCourseDetails{Theme: "Photosynthesis", Objectives: []string{"Label a leaf"}}

	math := course("math", "2026-01-12", "09:00", "10:00", models.CourseStatusUpcoming)
	math.SubjectName = "Mathematics"
	math.Details.PersonalNotes = "bring the COMPASS"

	early := course("eng", "2026-01-12", "08:00", "09:00", models.CourseStatusCompleted)
	early.SubjectName = "English"

	tie := course("tie", "2026-01-12", "09:00", "09:30", models.CourseStatusCancelled)
	tie.SubjectName = "Assembly"

	feb := course("feb", "2026-02-02", "08:00", "09:00", models.CourseStatusUpcoming)
	feb.SubjectName = "Mathematics"

	return []models.GeneratedCourse{withNotes, math, early, tie, feb}
}

func ids(courses []models.GeneratedCourse) []string {
	out := make([]string, len(courses))
	for i, c := range courses {
		out[i] = c.ID
	}
	return out
}

func TestByDateSortsStably(t *testing.T) {
	assert.Equal(t, []string{"eng", "math", "tie"}, ids(ByDate(sampleCourses(), "2026-01-12")))
	assert.Empty(t, ByDate(sampleCourses(), "2026-01-17"))
}

func TestByWeekKeepsCollectionOrder(t *testing.T) {
	assert.Equal(t, []string{"sci", "math", "eng", "tie"}, ids(ByWeek(sampleCourses(), "2026-01-18")))
	assert.Empty(t, ByWeek(sampleCourses(), "bad"))
}

func TestByMonthAndRange(t *testing.T) {
	assert.Equal(t, []string{"feb"}, ids(ByMonth(sampleCourses(), 2026, time.February)))
	assert.Len(t, ByMonth(sampleCourses(), 2026, time.January), 4)
	assert.Equal(t, []string{"sci", "feb"}, ids(ByRange(sampleCourses(), "2026-01-13", "2026-02-28")))
}

func TestGroupByDate(t *testing.T) {
	groups := GroupByDate(sampleCourses())
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"math", "eng", "tie"}, ids(groups["2026-01-12"]))
}

func TestSearch(t *testing.T) {
	courses := sampleCourses()
	assert.Equal(t, []string{"math", "feb"}, ids(Search(courses, "MATH")))
	assert.Equal(t, []string{"sci"}, ids(Search(courses, "photo")))
	assert.Equal(t, []string{"math"}, ids(Search(courses, "compass")))
	assert.Equal(t, []string{"sci"}, ids(Search(courses, "leaf")))
	assert.Empty(t, Search(courses, "history"))
}

func TestNextUpcomingSkipsCancelledAndStarted(t *testing.T) {
	courses := sampleCourses()

	next := NextUpcoming(courses, at("2026-01-12 08:30"))
	require.NotNil(t, next)
	assert.Equal(t, "math", next.ID, "cancelled tie at the same start is skipped")

	next = NextUpcoming(courses, at("2026-01-12 09:00"))
	require.NotNil(t, next)
	assert.Equal(t, "sci", next.ID, "a course starting now is no longer upcoming")

	assert.Nil(t, NextUpcoming(courses, at("2026-03-01 08:00")))
}

func TestNextUpcomingWithCancelledFirst(t *testing.T) {
	courses := []models.GeneratedCourse{
		course("cancelled", "2026-01-12", "08:00", "09:00", models.CourseStatusCancelled),
		course("second", "2026-01-12", "09:00", "10:00", models.CourseStatusUpcoming),
	}
	next := NextUpcoming(courses, at("2026-01-12 07:00"))
	require.NotNil(t, next)
	assert.Equal(t, "second", next.ID)
}

func TestUpcomingToday(t *testing.T) {
	assert.Equal(t, []string{"math"}, ids(UpcomingToday(sampleCourses(), at("2026-01-12 08:00"))))
	assert.Empty(t, UpcomingToday(sampleCourses(), at("2026-01-12 12:00")))
}

func TestStatistics(t *testing.T) {
	stats := Statistics(sampleCourses())
	assert.Equal(t, models.ScheduleStatistics{
		Total: 5, Upcoming: 3, Completed: 1, Cancelled: 1, WithDetails: 1,
	}, stats)
}
