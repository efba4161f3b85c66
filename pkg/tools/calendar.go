package tools

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"
)

const maxCalendarEvents = 5

// CalendarViewerTool lists upcoming events across all visible
// calendars for the next 30 days.
type CalendarViewerTool struct {
	google *GoogleClient
}

func NewCalendarViewerTool(google *GoogleClient) *CalendarViewerTool {
	return &CalendarViewerTool{google: google}
}

func (t *CalendarViewerTool) GetName() string { return "CalendarViewer" }

func (t *CalendarViewerTool) GetDescription() string {
	return "Shows Google Calendar events."
}

func (t *CalendarViewerTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters:  singleInputParameter("Unused."),
	}
}

type calendarEvent struct {
	start time.Time
	line  string
}

func (t *CalendarViewerTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	inv := InvocationFromContext(ctx)
	if inv == nil || inv.UserID == "" {
		return errorResult(t.GetName(), "User not authenticated via Google", start), nil
	}

	// Today is rendered in the primary calendar's declared time zone.
	var primary struct {
		TimeZone string `json:"timeZone"`
	}
	if err := t.google.GetJSON(ctx, inv.UserID,
		t.google.CalendarURL+"/calendars/primary", &primary); err != nil {
		return errorResult(t.GetName(), err.Error(), start), nil
	}

	loc, err := time.LoadLocation(primary.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	now := time.Now().UTC()
	today := now.In(loc).Format("Monday, January 02, 2006")
	timeMin := now.Format(time.RFC3339)
	timeMax := now.Add(30 * 24 * time.Hour).Format(time.RFC3339)

	var calList struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := t.google.GetJSON(ctx, inv.UserID,
		t.google.CalendarURL+"/users/me/calendarList", &calList); err != nil {
		return errorResult(t.GetName(), err.Error(), start), nil
	}

	var events []calendarEvent
	for _, cal := range calList.Items {
		items, err := t.listEvents(ctx, inv.UserID, cal.ID, timeMin, timeMax, loc)
		if err != nil {
			slog.Warn("failed to list events", "calendar", cal.ID, "error", err)
			continue
		}
		events = append(events, items...)
	}

	if len(events) == 0 {
		return successResult(t.GetName(),
			fmt.Sprintf("Today is %s.\nNo upcoming events found.", today), start), nil
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].start.Before(events[j].start)
	})
	if len(events) > maxCalendarEvents {
		events = events[:maxCalendarEvents]
	}

	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = ev.line
	}

	content := fmt.Sprintf("Today is %s.\nUpcoming events:\n%s", today, strings.Join(lines, "\n"))
	return successResult(t.GetName(), content, start), nil
}

func (t *CalendarViewerTool) listEvents(ctx context.Context, userID, calendarID, timeMin, timeMax string, loc *time.Location) ([]calendarEvent, error) {
	params := url.Values{}
	params.Set("timeMin", timeMin)
	params.Set("timeMax", timeMax)
	params.Set("maxResults", "50")
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")

	eventsURL := fmt.Sprintf("%s/calendars/%s/events?%s",
		t.google.CalendarURL, url.PathEscape(calendarID), params.Encode())

	var resp struct {
		Items []struct {
			Summary string `json:"summary"`
			Start   struct {
				DateTime string `json:"dateTime"`
				Date     string `json:"date"`
			} `json:"start"`
		} `json:"items"`
	}
	if err := t.google.GetJSON(ctx, userID, eventsURL, &resp); err != nil {
		return nil, err
	}

	var events []calendarEvent
	for _, item := range resp.Items {
		title := item.Summary
		if title == "" {
			title = "No Title"
		}

		var ev calendarEvent
		if item.Start.DateTime != "" {
			startTime, err := time.Parse(time.RFC3339, item.Start.DateTime)
			if err != nil {
				continue
			}
			local := startTime.In(loc)
			ev = calendarEvent{
				start: startTime,
				line:  fmt.Sprintf("%s - %s", local.Format("Monday, January 02, 2006 03:04 PM"), title),
			}
		} else {
			// All-day events carry only a date.
			day, err := time.ParseInLocation("2006-01-02", item.Start.Date, loc)
			if err != nil {
				continue
			}
			ev = calendarEvent{
				start: day,
				line:  fmt.Sprintf("%s - %s", item.Start.Date, title),
			}
		}

		events = append(events, ev)
	}

	return events, nil
}

var _ Tool = (*CalendarViewerTool)(nil)
