// Package calendar exposes Google Calendar tools.
package calendar

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/evert/google-mcp-go/internal/auth"
	"github.com/evert/google-mcp-go/internal/pkg/ptr"
	"github.com/evert/google-mcp-go/internal/registry"
)

var serviceIcons = []mcp.Icon{{
	Source:   "https://www.gstatic.com/images/branding/product/1x/calendar_2020q4_48dp.png",
	MIMEType: "image/png",
	Sizes:    []string{"48x48"},
}}

// Tools returns the Calendar tool registrations.
func Tools() []registry.Tool {
	return []registry.Tool{
		registry.New(auth.ProductCalendar, &mcp.Tool{
			Name:        "list_calendars",
			Icons:       serviceIcons,
			Description: "List all calendars accessible to the user, including the primary, shared and subscribed calendars.",
			Annotations: &mcp.ToolAnnotations{
				Title:         "List Calendars",
				ReadOnlyHint:  true,
				OpenWorldHint: ptr.Bool(true),
			},
		}, createListCalendarsHandler),

		registry.New(auth.ProductCalendar, &mcp.Tool{
			Name:        "list_events",
			Icons:       serviceIcons,
			Description: "List events from a calendar within a time range, with recurring events expanded and ordered by start time.",
			Annotations: &mcp.ToolAnnotations{
				Title:         "List Events",
				ReadOnlyHint:  true,
				OpenWorldHint: ptr.Bool(true),
			},
		}, createListEventsHandler),

		registry.New(auth.ProductCalendar, &mcp.Tool{
			Name:        "create_event",
			Icons:       serviceIcons,
			Description: "Create a calendar event. Use YYYY-MM-DD for all-day events or an RFC3339 timestamp for timed events.",
			Annotations: &mcp.ToolAnnotations{
				Title:         "Create Event",
				OpenWorldHint: ptr.Bool(true),
			},
		}, createCreateEventHandler),

		registry.New(auth.ProductCalendar, &mcp.Tool{
			Name:        "update_event",
			Icons:       serviceIcons,
			Description: "Update an existing calendar event. Only the fields provided are changed.",
			Annotations: &mcp.ToolAnnotations{
				Title:          "Update Event",
				IdempotentHint: true,
				OpenWorldHint:  ptr.Bool(true),
			},
		}, createUpdateEventHandler),

		registry.New(auth.ProductCalendar, &mcp.Tool{
			Name:        "delete_event",
			Icons:       serviceIcons,
			Description: "Delete a calendar event.",
			Annotations: &mcp.ToolAnnotations{
				Title:           "Delete Event",
				DestructiveHint: ptr.Bool(true),
				IdempotentHint:  true,
				OpenWorldHint:   ptr.Bool(true),
			},
		}, createDeleteEventHandler),

		registry.New(auth.ProductCalendar, &mcp.Tool{
			Name:        "query_freebusy",
			Icons:       serviceIcons,
			Description: "Find busy periods for one or more calendars within a time range.",
			Annotations: &mcp.ToolAnnotations{
				Title:         "Query Free/Busy",
				ReadOnlyHint:  true,
				OpenWorldHint: ptr.Bool(true),
			},
		}, createQueryFreeBusyHandler),
	}
}
