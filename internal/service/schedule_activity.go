package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/noah-isme/student-planner/internal/dto"
	"github.com/noah-isme/student-planner/internal/models"
	"github.com/noah-isme/student-planner/pkg/calendar"
	appErrors "github.com/noah-isme/student-planner/pkg/errors"
)

// Activities returns every personal activity in insertion order.
func (s *ScheduleService) Activities() []models.PersonalActivity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.PersonalActivity{}, s.activities...)
}

// ActivitiesByDate returns one day's activities ordered by start time.
func (s *ScheduleService) ActivitiesByDate(date string) []models.PersonalActivity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PersonalActivity, 0)
	for _, activity := range s.activities {
		if activity.Date == date {
			out = append(out, activity)
		}
	}
	sortActivities(out)
	return out
}

// AddActivity stores a new personal activity.
func (s *ScheduleService) AddActivity(ctx context.Context, req dto.CreateActivityRequest) (*models.PersonalActivity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid activity")
	}
	activityType := req.ActivityType
	if activityType == "" {
		activityType = models.ActivityTypeOther
	}
	activity := models.PersonalActivity{
		ID:              "activity_" + uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		ActivityType:    activityType,
		ColorTag:        req.ColorTag,
		ReminderEnabled: req.ReminderEnabled,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(append([]models.PersonalActivity{}, s.activities...), activity)
	if err := s.repo.SaveActivities(ctx, next); err != nil {
		return nil, err
	}
	s.activities = next
	return &activity, nil
}

// UpdateActivity merges patch into an existing activity.
func (s *ScheduleService) UpdateActivity(ctx context.Context, id string, patch models.ActivityPatch) (*models.PersonalActivity, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, appErrors.Invalid(err, "invalid activity")
	}
	return s.updateActivity(ctx, id, patch.Apply)
}

// ToggleActivityComplete flips the completion flag.
func (s *ScheduleService) ToggleActivityComplete(ctx context.Context, id string) (*models.PersonalActivity, error) {
	return s.updateActivity(ctx, id, func(a models.PersonalActivity) models.PersonalActivity {
		a.Complete = !a.Complete
		return a
	})
}

// DeleteActivity removes an activity.
func (s *ScheduleService) DeleteActivity(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.activityIndexLocked(id)
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "activity not found")
	}
	next := make([]models.PersonalActivity, 0, len(s.activities)-1)
	next = append(next, s.activities[:idx]...)
	next = append(next, s.activities[idx+1:]...)
	if err := s.repo.SaveActivities(ctx, next); err != nil {
		return err
	}
	s.activities = next
	return nil
}

func (s *ScheduleService) updateActivity(ctx context.Context, id string, mutate func(models.PersonalActivity) models.PersonalActivity) (*models.PersonalActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.activityIndexLocked(id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
	}
	next := append([]models.PersonalActivity{}, s.activities...)
	next[idx] = mutate(next[idx])
	if err := s.repo.SaveActivities(ctx, next); err != nil {
		return nil, err
	}
	s.activities = next
	activity := next[idx]
	return &activity, nil
}

func (s *ScheduleService) activityIndexLocked(id string) int {
	for i := range s.activities {
		if s.activities[i].ID == id {
			return i
		}
	}
	return -1
}

func sortActivities(activities []models.PersonalActivity) {
	sort.SliceStable(activities, func(i, j int) bool {
		return calendar.ClockMinutes(activities[i].StartTime) < calendar.ClockMinutes(activities[j].StartTime)
	})
}
