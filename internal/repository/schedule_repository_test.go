package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-planner/internal/models"
	"github.com/noah-isme/student-planner/pkg/kvstore"
)

func TestScheduleRepositoryEmptyStore(t *testing.T) {
	repo := NewScheduleRepository(kvstore.NewMemoryStore())
	ctx := context.Background()

	cfg, err := repo.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	courses, err := repo.ListCourses(ctx)
	require.NoError(t, err)
	assert.NotNil(t, courses)
	assert.Empty(t, courses)

	configured, err := repo.IsConfigured(ctx)
	require.NoError(t, err)
	assert.False(t, configured)

	activities, err := repo.ListActivities(ctx)
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestScheduleRepositoryRoundTrip(t *testing.T) {
	store := kvstore.NewMemoryStore()
	repo := NewScheduleRepository(store)
	ctx := context.Background()

	cfg := models.ScheduleConfiguration{
		WeeklyTemplate: models.WeeklyTemplate{
			Monday: []models.WeeklyTemplateSlot{{ID: "m1", StartTime: "08:00", EndTime: "09:00", SubjectName: "Math"}},
		},
		SchoolYearPeriod: models.SchoolYearPeriod{StartDate: "2026-01-12", EndDate: "2026-01-16"},
		LastModified:     "2026-01-10T08:00:00Z",
	}
	require.NoError(t, repo.SaveConfiguration(ctx, cfg))
	require.NoError(t, repo.SaveCourses(ctx, []models.GeneratedCourse{{ID: "course_20260112_0800_m1", Status: models.CourseStatusUpcoming}}))
	require.NoError(t, repo.SetConfigured(ctx, true))
	require.NoError(t, repo.SaveActivities(ctx, []models.PersonalActivity{{ID: "activity_1", Title: "Swim"}}))

	loaded, err := repo.GetConfiguration(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, cfg, *loaded)

	raw, ok, err := store.Get(ctx, KeyScheduleSetupDone)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", raw)

	require.NoError(t, repo.ClearSchedule(ctx))
	loaded, err = repo.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
	courses, err := repo.ListCourses(ctx)
	require.NoError(t, err)
	assert.Empty(t, courses)

	activities, err := repo.ListActivities(ctx)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "Swim", activities[0].Title)
}

func TestScheduleRepositoryCorruptValue(t *testing.T) {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), KeyScheduleCourses, "{not json"))
	repo := NewScheduleRepository(store)

	_, err := repo.ListCourses(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyScheduleCourses)
}
