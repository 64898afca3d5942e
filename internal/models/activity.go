package models

// ActivityType classifies a personal activity.
type ActivityType string

const (
	ActivityTypeStudy       ActivityType = "study"
	ActivityTypeSport       ActivityType = "sport"
	ActivityTypeLeisure     ActivityType = "leisure"
	ActivityTypeAppointment ActivityType = "appointment"
	ActivityTypeOther       ActivityType = "other"
)

// PersonalActivity is a user-authored entry independent of the class template.
type PersonalActivity struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Date            string       `json:"date"`
	StartTime       string       `json:"startTime"`
	EndTime         string       `json:"endTime"`
	ActivityType    ActivityType `json:"activityType"`
	ColorTag        string       `json:"colorTag"`
	ReminderEnabled bool         `json:"reminderEnabled"`
	Complete        bool         `json:"complete"`
}

// ActivityPatch is a partial activity update; nil fields are kept.
type ActivityPatch struct {
	Title           *string       `json:"title,omitempty"`
	Description     *string       `json:"description,omitempty"`
	Date            *string       `json:"date,omitempty" validate:"omitempty,date"`
	StartTime       *string       `json:"startTime,omitempty" validate:"omitempty,clock"`
	EndTime         *string       `json:"endTime,omitempty" validate:"omitempty,clock"`
	ActivityType    *ActivityType `json:"activityType,omitempty" validate:"omitempty,oneof=study sport leisure appointment other"`
	ColorTag        *string       `json:"colorTag,omitempty"`
	ReminderEnabled *bool         `json:"reminderEnabled,omitempty"`
	Complete        *bool         `json:"complete,omitempty"`
}

// Apply merges the patch into a copy of a.
func (p ActivityPatch) Apply(a PersonalActivity) PersonalActivity {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.StartTime != nil {
		a.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		a.EndTime = *p.EndTime
	}
	if p.ActivityType != nil {
		a.ActivityType = *p.ActivityType
	}
	if p.ColorTag != nil {
		a.ColorTag = *p.ColorTag
	}
	if p.ReminderEnabled != nil {
		a.ReminderEnabled = *p.ReminderEnabled
	}
	if p.Complete != nil {
		a.Complete = *p.Complete
	}
	return a
}
