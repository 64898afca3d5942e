package schedule

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/student-planner/internal/models"
	"github.com/noah-isme/student-planner/pkg/calendar"
)

//go:embed defaults.yaml
var defaultTemplateYAML []byte

// DefaultTemplate returns the built-in weekly template.
func DefaultTemplate() models.WeeklyTemplate {
	template, err := decodeTemplate(defaultTemplateYAML)
	if err != nil {
		panic(fmt.Sprintf("schedule: embedded default template: %v", err))
	}
	return template
}

// LoadTemplateFile reads a weekly template from a YAML file. An empty path
// returns the built-in template.
func LoadTemplateFile(path string) (models.WeeklyTemplate, error) {
	if path == "" {
		return DefaultTemplate(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.WeeklyTemplate{}, fmt.Errorf("read template %s: %w", path, err)
	}
	template, err := decodeTemplate(data)
	if err != nil {
		return models.WeeklyTemplate{}, fmt.Errorf("decode template %s: %w", path, err)
	}
	return template, nil
}

// NormalizeTemplate orders each day's slots by start time, keeping the
// relative order of slots that start together. Nil days become empty.
func NormalizeTemplate(template models.WeeklyTemplate) models.WeeklyTemplate {
	for _, day := range template.Days() {
		slots := append([]models.WeeklyTemplateSlot{}, (*day)...)
		sort.SliceStable(slots, func(i, j int) bool {
			return calendar.ClockMinutes(slots[i].StartTime) < calendar.ClockMinutes(slots[j].StartTime)
		})
		*day = slots
	}
	return template
}

func decodeTemplate(data []byte) (models.WeeklyTemplate, error) {
	var template models.WeeklyTemplate
	if err := yaml.Unmarshal(data, &template); err != nil {
		return models.WeeklyTemplate{}, err
	}
	return NormalizeTemplate(template), nil
}
