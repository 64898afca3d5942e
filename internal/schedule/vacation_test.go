package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/student-planner/internal/models"
)

func TestIsExcluded(t *testing.T) {
	intervals := []models.VacationInterval{
		{ID: "winter", StartDate: "2026-02-10", EndDate: "2026-02-21"},
		{ID: "broken", StartDate: "soon", EndDate: "2026-12-31"},
	}
	assert.False(t, IsExcluded("2026-02-09", intervals))
	assert.True(t, IsExcluded("2026-02-10", intervals), "start is inclusive")
	assert.True(t, IsExcluded("2026-02-15", intervals))
	assert.True(t, IsExcluded("2026-02-21", intervals), "end is inclusive")
	assert.False(t, IsExcluded("2026-02-22", intervals))
	assert.False(t, IsExcluded("2026-06-01", intervals), "unparseable intervals never match")
	assert.False(t, IsExcluded("not-a-date", intervals))
	assert.False(t, IsExcluded("2026-02-15", nil))
}
