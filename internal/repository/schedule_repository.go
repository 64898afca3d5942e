package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/student-planner/internal/models"
	"github.com/noah-isme/student-planner/pkg/kvstore"
)

// Storage keys shared with earlier on-device installs.
const (
	KeyScheduleConfig     = "@planner:schedule_config"
	KeyScheduleCourses    = "@planner:schedule_courses"
	KeyScheduleSetupDone  = "@planner:schedule_setup_done"
	KeyScheduleActivities = "@planner:schedule_activities"
)

// ScheduleRepository maps planner records onto JSON values in a key/value store.
type ScheduleRepository struct {
	store kvstore.Store
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(store kvstore.Store) *ScheduleRepository {
	return &ScheduleRepository{store: store}
}

// GetConfiguration returns the persisted configuration, or nil when none was saved.
func (r *ScheduleRepository) GetConfiguration(ctx context.Context) (*models.ScheduleConfiguration, error) {
	var cfg models.ScheduleConfiguration
	ok, err := r.getJSON(ctx, KeyScheduleConfig, &cfg)
	if err != nil || !ok {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfiguration replaces the persisted configuration.
func (r *ScheduleRepository) SaveConfiguration(ctx context.Context, cfg models.ScheduleConfiguration) error {
	return r.setJSON(ctx, KeyScheduleConfig, cfg)
}

// ListCourses returns the persisted generated courses; empty when none were saved.
func (r *ScheduleRepository) ListCourses(ctx context.Context) ([]models.GeneratedCourse, error) {
	courses := make([]models.GeneratedCourse, 0)
	if _, err := r.getJSON(ctx, KeyScheduleCourses, &courses); err != nil {
		return nil, err
	}
	if courses == nil {
		courses = make([]models.GeneratedCourse, 0)
	}
	return courses, nil
}

// SaveCourses replaces the persisted course collection.
func (r *ScheduleRepository) SaveCourses(ctx context.Context, courses []models.GeneratedCourse) error {
	if courses == nil {
		courses = []models.GeneratedCourse{}
	}
	return r.setJSON(ctx, KeyScheduleCourses, courses)
}

// IsConfigured reports whether a schedule has been generated at least once.
func (r *ScheduleRepository) IsConfigured(ctx context.Context) (bool, error) {
	value, ok, err := r.store.Get(ctx, KeyScheduleSetupDone)
	if err != nil {
		return false, err
	}
	return ok && value == "true", nil
}

// SetConfigured persists the configured flag.
func (r *ScheduleRepository) SetConfigured(ctx context.Context, configured bool) error {
	value := "false"
	if configured {
		value = "true"
	}
	return r.store.Set(ctx, KeyScheduleSetupDone, value)
}

// ListActivities returns the persisted personal activities.
func (r *ScheduleRepository) ListActivities(ctx context.Context) ([]models.PersonalActivity, error) {
	activities := make([]models.PersonalActivity, 0)
	if _, err := r.getJSON(ctx, KeyScheduleActivities, &activities); err != nil {
		return nil, err
	}
	if activities == nil {
		activities = make([]models.PersonalActivity, 0)
	}
	return activities, nil
}

// SaveActivities replaces the persisted personal activities.
func (r *ScheduleRepository) SaveActivities(ctx context.Context, activities []models.PersonalActivity) error {
	if activities == nil {
		activities = []models.PersonalActivity{}
	}
	return r.setJSON(ctx, KeyScheduleActivities, activities)
}

// ClearSchedule removes configuration, courses and the configured flag.
// Personal activities are kept.
func (r *ScheduleRepository) ClearSchedule(ctx context.Context) error {
	return r.store.RemoveMany(ctx, KeyScheduleConfig, KeyScheduleCourses, KeyScheduleSetupDone)
}

func (r *ScheduleRepository) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("unmarshal stored value for %s: %w", key, err)
	}
	return true, nil
}

func (r *ScheduleRepository) setJSON(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", key, err)
	}
	return r.store.Set(ctx, key, string(payload))
}
