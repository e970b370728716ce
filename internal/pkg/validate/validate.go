// Package validate checks identifiers before they reach a Google API URL.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Drive and Sheets IDs are URL-safe base64-ish tokens.
	driveIDRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)
	emailRE   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	// Calendar IDs are "primary", an address, or a group calendar address.
	calendarIDRE = regexp.MustCompile(`^[a-zA-Z0-9._%+#\-]+(@[a-zA-Z0-9.\-]+)?$`)
)

// DriveID reports whether id is a well-formed Drive or Sheets resource ID.
func DriveID(id string) error {
	if !driveIDRE.MatchString(id) {
		return fmt.Errorf("invalid file ID %q: expected letters, digits, hyphens and underscores", id)
	}
	return nil
}

// Email reports whether email looks like a deliverable address.
func Email(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email address too long (max 254 characters)")
	}
	if !emailRE.MatchString(email) {
		return fmt.Errorf("invalid email address %q", email)
	}
	return nil
}

// CalendarID reports whether id can name a calendar.
func CalendarID(id string) error {
	if len(id) > 254 || !calendarIDRE.MatchString(id) {
		return fmt.Errorf("invalid calendar ID %q: use \"primary\" or a calendar address", id)
	}
	return nil
}

// Required returns an error naming field when value is blank.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}
