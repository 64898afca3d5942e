package schedule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-planner/internal/models"
)

func TestDefaultTemplate(t *testing.T) {
	template := DefaultTemplate()
	assert.Len(t, template.Monday, 6)
	assert.Len(t, template.Tuesday, 4)
	assert.Len(t, template.Wednesday, 5)
	assert.Len(t, template.Thursday, 5)
	assert.Len(t, template.Friday, 5)
	assert.Equal(t, "monday_1", template.Monday[0].ID)
	assert.Equal(t, "Lab", template.Thursday[2].Room)

	// callers get independent copies
	template.Monday[0].SubjectName = "changed"
	assert.NotEqual(t, "changed", DefaultTemplate().Monday[0].SubjectName)
}

func TestLoadTemplateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
monday:
  - {id: b, startTime: "10:00", endTime: "11:00", subjectName: Art}
  - {id: a, startTime: "08:00", endTime: "09:00", subjectName: Math}
`), 0o600))

	template, err := LoadTemplateFile(path)
	require.NoError(t, err)
	require.Len(t, template.Monday, 2)
	assert.Equal(t, "a", template.Monday[0].ID)
	assert.NotNil(t, template.Friday)

	_, err = LoadTemplateFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	fallback, err := LoadTemplateFile("")
	require.NoError(t, err)
	assert.Len(t, fallback.Monday, 6)
}

func TestNormalizeTemplateKeepsTies(t *testing.T) {
	template := NormalizeTemplate(models.WeeklyTemplate{Tuesday: []models.WeeklyTemplateSlot{
		{ID: "x", StartTime: "09:00"}, {ID: "y", StartTime: "08:00"}, {ID: "z", StartTime: "09:00"},
	}})
	assert.Equal(t, "y", template.Tuesday[0].ID)
	assert.Equal(t, "x", template.Tuesday[1].ID)
	assert.Equal(t, "z", template.Tuesday[2].ID)
}
