package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEvent is one timed entry of an iCalendar feed.
type CalendarEvent struct {
	UID         string
	Start       time.Time
	End         time.Time
	Summary     string
	Location    string
	Description string
	Cancelled   bool
}

// ICSExporter renders events as an RFC 5545 calendar.
type ICSExporter struct {
	ProductID string
	now       func() time.Time
}

// NewICSExporter constructs an iCalendar exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{ProductID: "-//student-planner//schedule//EN", now: time.Now}
}

// Render serialises events in the given order.
func (e *ICSExporter) Render(events []CalendarEvent, name string) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.ProductID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := e.now().UTC()
	for _, item := range events {
		if item.UID == "" {
			return nil, fmt.Errorf("ics event without uid")
		}
		if item.End.Before(item.Start) {
			return nil, fmt.Errorf("ics event %s ends before it starts", item.UID)
		}
		event := cal.AddEvent(item.UID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(item.Start)
		event.SetEndAt(item.End)
		event.SetSummary(item.Summary)
		if item.Location != "" {
			event.SetLocation(item.Location)
		}
		if item.Description != "" {
			event.SetDescription(item.Description)
		}
		if item.Cancelled {
			event.SetStatus(ics.ObjectStatusCancelled)
		} else {
			event.SetStatus(ics.ObjectStatusConfirmed)
		}
	}
	return []byte(cal.Serialize()), nil
}
