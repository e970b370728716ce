package calendar

import (
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/calendar/v3"

	"github.com/evert/google-mcp-go/internal/pkg/htmlutil"
	"github.com/evert/google-mcp-go/internal/pkg/validate"
)

const primaryCalendar = "primary"

var allDayRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// CalendarSummary is a compact representation of a Google Calendar.
type CalendarSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Primary     bool   `json:"primary"`
	AccessRole  string `json:"accessRole,omitempty"`
	TimeZone    string `json:"timeZone,omitempty"`
}

// EventTime is the start or end of an event. Exactly one of Date and
// DateTime is set.
type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Attendee is an invited guest and their response.
type Attendee struct {
	Email  string `json:"email"`
	Status string `json:"status,omitempty"`
}

// EventSummary is a compact representation of a calendar event.
type EventSummary struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       EventTime  `json:"start"`
	End         EventTime  `json:"end"`
	Status      string     `json:"status,omitempty"`
	Link        string     `json:"link,omitempty"`
	Attendees   []Attendee `json:"attendees,omitempty"`
}

func calendarToSummary(c *calendar.CalendarListEntry) CalendarSummary {
	return CalendarSummary{
		ID:          c.Id,
		Name:        c.Summary,
		Description: c.Description,
		Primary:     c.Primary,
		AccessRole:  c.AccessRole,
		TimeZone:    c.TimeZone,
	}
}

// eventToSummary converts an API event. HTML descriptions are flattened to
// plain text.
func eventToSummary(e *calendar.Event) EventSummary {
	es := EventSummary{
		ID:          e.Id,
		Summary:     e.Summary,
		Description: htmlutil.ToPlainText(e.Description),
		Location:    e.Location,
		Start:       toEventTime(e.Start),
		End:         toEventTime(e.End),
		Status:      e.Status,
		Link:        e.HtmlLink,
	}
	for _, a := range e.Attendees {
		es.Attendees = append(es.Attendees, Attendee{Email: a.Email, Status: a.ResponseStatus})
	}
	return es
}

func toEventTime(et *calendar.EventDateTime) EventTime {
	if et == nil {
		return EventTime{}
	}
	return EventTime{Date: et.Date, DateTime: et.DateTime, TimeZone: et.TimeZone}
}

// String renders the time for text output.
func (t EventTime) String() string {
	if t.Date != "" {
		return t.Date + " (all day)"
	}
	return t.DateTime
}

// buildEventDateTime makes an all-day date for YYYY-MM-DD values and a
// timestamp with optional zone otherwise.
func buildEventDateTime(value, timeZone string) *calendar.EventDateTime {
	if allDayRE.MatchString(value) {
		return &calendar.EventDateTime{Date: value}
	}
	return &calendar.EventDateTime{DateTime: value, TimeZone: timeZone}
}

// buildAttendees validates emails and converts them to attendees.
func buildAttendees(emails []string) ([]*calendar.EventAttendee, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	attendees := make([]*calendar.EventAttendee, 0, len(emails))
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if err := validate.Email(email); err != nil {
			return nil, fmt.Errorf("attendee: %w", err)
		}
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}
	return attendees, nil
}

// calendarID applies the primary default and validates the result.
func calendarID(id string) (string, error) {
	if id == "" {
		return primaryCalendar, nil
	}
	if err := validate.CalendarID(id); err != nil {
		return "", err
	}
	return id, nil
}

var sendUpdatesValues = []string{"all", "externalOnly", "none"}

func checkSendUpdates(v string) error {
	if v == "" {
		return nil
	}
	for _, ok := range sendUpdatesValues {
		if v == ok {
			return nil
		}
	}
	return fmt.Errorf("invalid sendUpdates %q: use all, externalOnly or none", v)
}
