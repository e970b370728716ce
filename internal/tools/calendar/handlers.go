package calendar

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/calendar/v3"

	"github.com/evert/google-mcp-go/internal/middleware"
	"github.com/evert/google-mcp-go/internal/pkg/response"
	"github.com/evert/google-mcp-go/internal/pkg/validate"
	"github.com/evert/google-mcp-go/internal/services"
)

const defaultMaxEvents = 50

// --- list_calendars ---

type ListCalendarsInput struct{}

type ListCalendarsOutput struct {
	Calendars []CalendarSummary `json:"calendars"`
}

func createListCalendarsHandler(sess *services.Session) mcp.ToolHandlerFor[ListCalendarsInput, ListCalendarsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListCalendarsInput) (*mcp.CallToolResult, ListCalendarsOutput, error) {
		srv, err := sess.Calendar(ctx)
		if err != nil {
			return nil, ListCalendarsOutput{}, middleware.HandleGoogleAPIError(err)
		}

		var list *calendar.CalendarList
		err = middleware.WithRetry(ctx, middleware.DefaultMaxRetries, func() error {
			list, err = srv.CalendarList.List().Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, ListCalendarsOutput{}, middleware.HandleGoogleAPIError(err)
		}

		out := ListCalendarsOutput{Calendars: make([]CalendarSummary, 0, len(list.Items))}
		rb := response.New()
		rb.Header("Calendars")
		for _, item := range list.Items {
			c := calendarToSummary(item)
			out.Calendars = append(out.Calendars, c)
			if c.Primary {
				rb.Item("%s (primary) [%s]", c.Name, c.ID)
			} else {
				rb.Item("%s [%s]", c.Name, c.ID)
			}
		}
		if len(out.Calendars) == 0 {
			rb.Line("No calendars found.")
		}

		return rb.TextResult(), out, nil
	}
}

// --- list_events ---

type ListEventsInput struct {
	CalendarID string `json:"calendarId,omitempty" jsonschema:"Calendar ID, defaults to the primary calendar"`
	TimeMin    string `json:"timeMin,omitempty" jsonschema:"Start of the range in RFC3339, e.g. 2024-01-01T00:00:00Z"`
	TimeMax    string `json:"timeMax,omitempty" jsonschema:"End of the range in RFC3339"`
	MaxResults int64  `json:"maxResults,omitempty" jsonschema:"Maximum number of events to return (default 50)"`
	Query      string `json:"query,omitempty" jsonschema:"Free text search over event fields"`
}

type ListEventsOutput struct {
	CalendarID string         `json:"calendarId"`
	Events     []EventSummary `json:"events"`
}

func createListEventsHandler(sess *services.Session) mcp.ToolHandlerFor[ListEventsInput, ListEventsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListEventsInput) (*mcp.CallToolResult, ListEventsOutput, error) {
		calID, err := calendarID(input.CalendarID)
		if err != nil {
			return nil, ListEventsOutput{}, err
		}
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = defaultMaxEvents
		}

		srv, err := sess.Calendar(ctx)
		if err != nil {
			return nil, ListEventsOutput{}, middleware.HandleGoogleAPIError(err)
		}

		call := srv.Events.List(calID).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(maxResults).
			Context(ctx)
		if input.TimeMin != "" {
			call = call.TimeMin(input.TimeMin)
		}
		if input.TimeMax != "" {
			call = call.TimeMax(input.TimeMax)
		}
		if input.Query != "" {
			call = call.Q(input.Query)
		}

		var events *calendar.Events
		err = middleware.WithRetry(ctx, middleware.DefaultMaxRetries, func() error {
			events, err = call.Do()
			return err
		})
		if err != nil {
			return nil, ListEventsOutput{}, middleware.HandleGoogleAPIError(err)
		}

		out := ListEventsOutput{CalendarID: calID, Events: make([]EventSummary, 0, len(events.Items))}
		rb := response.New()
		rb.Header("Events")
		rb.KeyValue("Calendar", calID)
		rb.KeyValue("Count", len(events.Items))
		rb.Blank()
		for _, e := range events.Items {
			es := eventToSummary(e)
			out.Events = append(out.Events, es)
			rb.Item("%s | %s -> %s [%s]", es.Summary, es.Start, es.End, es.ID)
			if es.Location != "" {
				rb.Line("    Location: %s", es.Location)
			}
		}
		if len(out.Events) == 0 {
			rb.Line("No events in range.")
		}

		return rb.TextResult(), out, nil
	}
}

// --- create_event ---

type CreateEventInput struct {
	CalendarID    string   `json:"calendarId,omitempty" jsonschema:"Calendar ID, defaults to the primary calendar"`
	Summary       string   `json:"summary" jsonschema:"Event title"`
	Description   string   `json:"description,omitempty" jsonschema:"Event description"`
	StartDateTime string   `json:"startDateTime" jsonschema:"Start as RFC3339, or YYYY-MM-DD for an all-day event"`
	EndDateTime   string   `json:"endDateTime" jsonschema:"End as RFC3339, or YYYY-MM-DD for an all-day event"`
	TimeZone      string   `json:"timeZone,omitempty" jsonschema:"IANA time zone, e.g. America/New_York"`
	Location      string   `json:"location,omitempty" jsonschema:"Event location"`
	Attendees     []string `json:"attendees,omitempty" jsonschema:"Attendee email addresses"`
	SendUpdates   string   `json:"sendUpdates,omitempty" jsonschema:"Who receives invitations: all, externalOnly or none"`
}

type EventOutput struct {
	ID      string    `json:"id"`
	Summary string    `json:"summary"`
	Start   EventTime `json:"start"`
	End     EventTime `json:"end"`
	Link    string    `json:"link,omitempty"`
}

func eventOutput(e *calendar.Event) EventOutput {
	return EventOutput{
		ID:      e.Id,
		Summary: e.Summary,
		Start:   toEventTime(e.Start),
		End:     toEventTime(e.End),
		Link:    e.HtmlLink,
	}
}

func eventResult(title string, out EventOutput) *mcp.CallToolResult {
	rb := response.New()
	rb.Header("%s", title)
	rb.KeyValue("Summary", out.Summary)
	rb.KeyValue("ID", out.ID)
	rb.KeyValue("Start", out.Start)
	rb.KeyValue("End", out.End)
	if out.Link != "" {
		rb.KeyValue("Link", out.Link)
	}
	return rb.TextResult()
}

func createCreateEventHandler(sess *services.Session) mcp.ToolHandlerFor[CreateEventInput, EventOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CreateEventInput) (*mcp.CallToolResult, EventOutput, error) {
		calID, err := calendarID(input.CalendarID)
		if err != nil {
			return nil, EventOutput{}, err
		}
		for _, f := range [][2]string{
			{"summary", input.Summary},
			{"startDateTime", input.StartDateTime},
			{"endDateTime", input.EndDateTime},
		} {
			if err := validate.Required(f[0], strings.TrimSpace(f[1])); err != nil {
				return nil, EventOutput{}, err
			}
		}
		if err := checkSendUpdates(input.SendUpdates); err != nil {
			return nil, EventOutput{}, err
		}
		attendees, err := buildAttendees(input.Attendees)
		if err != nil {
			return nil, EventOutput{}, err
		}

		srv, err := sess.Calendar(ctx)
		if err != nil {
			return nil, EventOutput{}, middleware.HandleGoogleAPIError(err)
		}

		event := &calendar.Event{
			Summary:     input.Summary,
			Description: input.Description,
			Location:    input.Location,
			Start:       buildEventDateTime(input.StartDateTime, input.TimeZone),
			End:         buildEventDateTime(input.EndDateTime, input.TimeZone),
			Attendees:   attendees,
		}
		call := srv.Events.Insert(calID, event).Context(ctx)
		if input.SendUpdates != "" {
			call = call.SendUpdates(input.SendUpdates)
		}
		created, err := call.Do()
		if err != nil {
			return nil, EventOutput{}, middleware.HandleGoogleAPIError(err)
		}

		out := eventOutput(created)
		return eventResult("Event Created", out), out, nil
	}
}

// --- update_event ---

type UpdateEventInput struct {
	CalendarID    string `json:"calendarId,omitempty" jsonschema:"Calendar ID, defaults to the primary calendar"`
	EventID       string `json:"eventId" jsonschema:"ID of the event to update"`
	Summary       string `json:"summary,omitempty" jsonschema:"New event title"`
	Description   string `json:"description,omitempty" jsonschema:"New event description"`
	StartDateTime string `json:"startDateTime,omitempty" jsonschema:"New start as RFC3339, or YYYY-MM-DD for an all-day event"`
	EndDateTime   string `json:"endDateTime,omitempty" jsonschema:"New end as RFC3339, or YYYY-MM-DD for an all-day event"`
	TimeZone      string `json:"timeZone,omitempty" jsonschema:"IANA time zone applied to new timed start or end values"`
	Location      string `json:"location,omitempty" jsonschema:"New event location"`
}

func createUpdateEventHandler(sess *services.Session) mcp.ToolHandlerFor[UpdateEventInput, EventOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input UpdateEventInput) (*mcp.CallToolResult, EventOutput, error) {
		calID, err := calendarID(input.CalendarID)
		if err != nil {
			return nil, EventOutput{}, err
		}
		if err := validate.Required("eventId", input.EventID); err != nil {
			return nil, EventOutput{}, err
		}

		// Empty fields are omitted from the PATCH body and stay unchanged.
		patch := &calendar.Event{
			Summary:     input.Summary,
			Description: input.Description,
			Location:    input.Location,
		}
		if input.StartDateTime != "" {
			patch.Start = buildEventDateTime(input.StartDateTime, input.TimeZone)
		}
		if input.EndDateTime != "" {
			patch.End = buildEventDateTime(input.EndDateTime, input.TimeZone)
		}

		srv, err := sess.Calendar(ctx)
		if err != nil {
			return nil, EventOutput{}, middleware.HandleGoogleAPIError(err)
		}
		updated, err := srv.Events.Patch(calID, input.EventID, patch).Context(ctx).Do()
		if err != nil {
			return nil, EventOutput{}, middleware.HandleGoogleAPIError(err)
		}

		out := eventOutput(updated)
		return eventResult("Event Updated", out), out, nil
	}
}

// --- delete_event ---

type DeleteEventInput struct {
	CalendarID string `json:"calendarId,omitempty" jsonschema:"Calendar ID, defaults to the primary calendar"`
	EventID    string `json:"eventId" jsonschema:"ID of the event to delete"`
}

type DeleteEventOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func createDeleteEventHandler(sess *services.Session) mcp.ToolHandlerFor[DeleteEventInput, DeleteEventOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteEventInput) (*mcp.CallToolResult, DeleteEventOutput, error) {
		calID, err := calendarID(input.CalendarID)
		if err != nil {
			return nil, DeleteEventOutput{}, err
		}
		if err := validate.Required("eventId", input.EventID); err != nil {
			return nil, DeleteEventOutput{}, err
		}

		srv, err := sess.Calendar(ctx)
		if err != nil {
			return nil, DeleteEventOutput{}, middleware.HandleGoogleAPIError(err)
		}
		if err := srv.Events.Delete(calID, input.EventID).Context(ctx).Do(); err != nil {
			return nil, DeleteEventOutput{}, middleware.HandleGoogleAPIError(err)
		}

		out := DeleteEventOutput{Success: true, Message: fmt.Sprintf("Event %s deleted", input.EventID)}
		return response.New().Line("%s", out.Message).TextResult(), out, nil
	}
}

// --- query_freebusy ---

type QueryFreeBusyInput struct {
	TimeMin     string   `json:"timeMin" jsonschema:"Start of the range in RFC3339"`
	TimeMax     string   `json:"timeMax" jsonschema:"End of the range in RFC3339"`
	CalendarIDs []string `json:"calendarIds,omitempty" jsonschema:"Calendars to check, defaults to the primary calendar"`
	TimeZone    string   `json:"timeZone,omitempty" jsonschema:"Time zone used in the response"`
}

type BusyPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type CalendarBusy struct {
	CalendarID string       `json:"calendarId"`
	Busy       []BusyPeriod `json:"busy"`
	Errors     []string     `json:"errors,omitempty"`
}

type QueryFreeBusyOutput struct {
	TimeMin   string         `json:"timeMin"`
	TimeMax   string         `json:"timeMax"`
	Calendars []CalendarBusy `json:"calendars"`
}

func createQueryFreeBusyHandler(sess *services.Session) mcp.ToolHandlerFor[QueryFreeBusyInput, QueryFreeBusyOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input QueryFreeBusyInput) (*mcp.CallToolResult, QueryFreeBusyOutput, error) {
		if err := validate.Required("timeMin", input.TimeMin); err != nil {
			return nil, QueryFreeBusyOutput{}, err
		}
		if err := validate.Required("timeMax", input.TimeMax); err != nil {
			return nil, QueryFreeBusyOutput{}, err
		}
		ids := input.CalendarIDs
		if len(ids) == 0 {
			ids = []string{primaryCalendar}
		}
		items := make([]*calendar.FreeBusyRequestItem, 0, len(ids))
		for _, id := range ids {
			if err := validate.CalendarID(id); err != nil {
				return nil, QueryFreeBusyOutput{}, err
			}
			items = append(items, &calendar.FreeBusyRequestItem{Id: id})
		}

		srv, err := sess.Calendar(ctx)
		if err != nil {
			return nil, QueryFreeBusyOutput{}, middleware.HandleGoogleAPIError(err)
		}
		resp, err := srv.Freebusy.Query(&calendar.FreeBusyRequest{
			TimeMin:  input.TimeMin,
			TimeMax:  input.TimeMax,
			TimeZone: input.TimeZone,
			Items:    items,
		}).Context(ctx).Do()
		if err != nil {
			return nil, QueryFreeBusyOutput{}, middleware.HandleGoogleAPIError(err)
		}

		out := QueryFreeBusyOutput{TimeMin: input.TimeMin, TimeMax: input.TimeMax}
		rb := response.New()
		rb.Header("Free/Busy")
		rb.KeyValue("Range", fmt.Sprintf("%s -> %s", input.TimeMin, input.TimeMax))
		for _, id := range ids {
			cb := CalendarBusy{CalendarID: id, Busy: []BusyPeriod{}}
			if fb, ok := resp.Calendars[id]; ok {
				for _, p := range fb.Busy {
					cb.Busy = append(cb.Busy, BusyPeriod{Start: p.Start, End: p.End})
				}
				for _, e := range fb.Errors {
					cb.Errors = append(cb.Errors, e.Reason)
				}
			}
			out.Calendars = append(out.Calendars, cb)

			rb.Blank()
			rb.Section("%s", id)
			switch {
			case len(cb.Errors) > 0:
				rb.Line("Unavailable: %s", strings.Join(cb.Errors, ", "))
			case len(cb.Busy) == 0:
				rb.Line("Free for the whole range.")
			default:
				for _, p := range cb.Busy {
					rb.Item("%s -> %s", p.Start, p.End)
				}
			}
		}

		return rb.TextResult(), out, nil
	}
}
