package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-planner/internal/models"
	"github.com/noah-isme/student-planner/internal/schedule"
	"github.com/noah-isme/student-planner/pkg/calendar"
	appErrors "github.com/noah-isme/student-planner/pkg/errors"
	"github.com/noah-isme/student-planner/pkg/export"
)

// Week export formats.
const (
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
	ExportFormatXLSX = "xlsx"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type documentRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type icsRenderer interface {
	Render(events []export.CalendarEvent, name string) ([]byte, error)
}

type exportRenderers struct {
	csv  csvRenderer
	pdf  documentRenderer
	xlsx documentRenderer
	ics  icsRenderer
}

func defaultExportRenderers(separator rune) exportRenderers {
	csv := export.NewCSVExporter()
	csv.Comma = separator
	return exportRenderers{
		csv:  csv,
		pdf:  export.NewPDFExporter(),
		xlsx: export.NewXLSXExporter(),
		ics:  export.NewICSExporter(),
	}
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

var weekExportHeaders = []string{"Date", "Day", "Start", "End", "Duration", "Subject", "Room", "Status", "Theme"}

// ExportData serialises the persisted configuration, courses and configured
// flag as indented JSON.
func (s *ScheduleService) ExportData(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, err := s.repo.GetConfiguration(ctx)
	if err != nil {
		return "", err
	}
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return "", err
	}
	configured, err := s.repo.IsConfigured(ctx)
	if err != nil {
		return "", err
	}
	payload, err := json.MarshalIndent(models.ScheduleData{
		Configuration:    cfg,
		GeneratedCourses: courses,
		IsConfigured:     configured,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal backup: %w", err)
	}
	return string(payload), nil
}

// ImportData restores a backup produced by ExportData, configured flag
// included. The payload is fully decoded before anything is written; invalid
// JSON changes nothing.
func (s *ScheduleService) ImportData(ctx context.Context, raw string) error {
	var data models.ScheduleData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return appErrors.As(err, appErrors.ErrMalformedImport)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if data.Configuration != nil {
		if err := s.repo.SaveConfiguration(ctx, *data.Configuration); err != nil {
			return err
		}
	}
	if len(data.GeneratedCourses) > 0 {
		if err := s.repo.SaveCourses(ctx, data.GeneratedCourses); err != nil {
			return err
		}
	}
	if err := s.repo.SetConfigured(ctx, data.IsConfigured); err != nil {
		return err
	}
	s.logger.Info("schedule backup imported",
		zap.Bool("configuration", data.Configuration != nil),
		zap.Int("courses", len(data.GeneratedCourses)),
		zap.Bool("configured", data.IsConfigured),
	)
	return s.loadLocked(ctx)
}

// ExportWeek renders the courses of the week containing weekStart. An empty
// weekStart uses the calendar cursor.
func (s *ScheduleService) ExportWeek(_ context.Context, weekStart, format string) (*ExportFile, error) {
	s.mu.RLock()
	anchor := s.weekStart
	if weekStart != "" {
		day, err := calendar.ParseDate(weekStart)
		if err != nil {
			s.mu.RUnlock()
			return nil, appErrors.Invalid(err, "start must be YYYY-MM-DD")
		}
		anchor = calendar.WeekStart(day)
	}
	courses := schedule.ByWeek(s.courses, calendar.FormatDate(anchor))
	s.mu.RUnlock()

	sort.SliceStable(courses, func(i, j int) bool {
		if courses[i].Date != courses[j].Date {
			return courses[i].Date < courses[j].Date
		}
		return calendar.ClockMinutes(courses[i].StartTime) < calendar.ClockMinutes(courses[j].StartTime)
	})

	dataset := weekDataset(courses)
	title := fmt.Sprintf("Week %d (%s)", calendar.WeekNumber(anchor), calendar.FormatDate(anchor))
	base := "schedule-week-" + calendar.FormatDate(anchor)

	var (
		body []byte
		err  error
		file ExportFile
	)
	switch strings.ToLower(format) {
	case "", ExportFormatCSV:
		body, err = s.renderers.csv.Render(dataset)
		file = ExportFile{Filename: base + ".csv", ContentType: "text/csv; charset=utf-8"}
	case ExportFormatPDF:
		body, err = s.renderers.pdf.Render(dataset, title)
		file = ExportFile{Filename: base + ".pdf", ContentType: "application/pdf"}
	case ExportFormatXLSX:
		body, err = s.renderers.xlsx.Render(dataset, title)
		file = ExportFile{Filename: base + ".xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, err
	}
	file.Body = body
	return &file, nil
}

// ExportICS renders every course as an iCalendar feed.
func (s *ScheduleService) ExportICS(_ context.Context) (*ExportFile, error) {
	s.mu.RLock()
	courses := append([]models.GeneratedCourse{}, s.courses...)
	s.mu.RUnlock()

	events := make([]export.CalendarEvent, 0, len(courses))
	for _, course := range courses {
		event, ok := s.calendarEvent(course)
		if !ok {
			s.logger.Warn("skipping course with unreadable time", zap.String("course_id", course.ID))
			continue
		}
		events = append(events, event)
	}
	body, err := s.renderers.ics.Render(events, "Class schedule")
	if err != nil {
		return nil, err
	}
	return &ExportFile{Filename: "schedule.ics", ContentType: "text/calendar; charset=utf-8", Body: body}, nil
}

func (s *ScheduleService) calendarEvent(course models.GeneratedCourse) (export.CalendarEvent, bool) {
	day, err := calendar.ParseDate(course.Date)
	if err != nil {
		return export.CalendarEvent{}, false
	}
	startMin, err := calendar.ParseClock(course.StartTime)
	if err != nil {
		return export.CalendarEvent{}, false
	}
	endMin, err := calendar.ParseClock(course.EndTime)
	if err != nil || endMin < startMin {
		return export.CalendarEvent{}, false
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.cfg.Location)
	return export.CalendarEvent{
		UID:         course.ID,
		Start:       midnight.Add(time.Duration(startMin) * time.Minute),
		End:         midnight.Add(time.Duration(endMin) * time.Minute),
		Summary:     course.SubjectName,
		Location:    course.Room,
		Description: courseDescription(course.Details),
		Cancelled:   course.Status == models.CourseStatusCancelled,
	}, true
}

func courseDescription(details models.GeneratedCourseDetails) string {
	parts := make([]string, 0, 4)
	if details.Theme != "" {
		parts = append(parts, "Theme: "+details.Theme)
	}
	if details.Unit != "" {
		parts = append(parts, "Unit: "+details.Unit)
	}
	if len(details.Objectives) > 0 {
		parts = append(parts, "Objectives: "+strings.Join(details.Objectives, "; "))
	}
	if details.PersonalNotes != "" {
		parts = append(parts, details.PersonalNotes)
	}
	return strings.Join(parts, "\n")
}

func weekDataset(courses []models.GeneratedCourse) export.Dataset {
	rows := make([]map[string]string, 0, len(courses))
	for _, course := range courses {
		rows = append(rows, map[string]string{
			"Date":     course.Date,
			"Day":      string(course.Weekday),
			"Start":    course.StartTime,
			"End":      course.EndTime,
			"Duration": calendar.FormatDuration(calendar.DurationMinutes(course.StartTime, course.EndTime)),
			"Subject":  course.SubjectName,
			"Room":     course.Room,
			"Status":   string(course.Status),
			"Theme":    course.Details.Theme,
		})
	}
	return export.Dataset{Headers: weekExportHeaders, Rows: rows}
}
