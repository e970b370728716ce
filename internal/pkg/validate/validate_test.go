package validate

import "testing"

func TestDriveID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"typical spreadsheet ID", "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgVE2upms", false},
		{"short ID", "abc123", false},
		{"with hyphens", "abc-123_def", false},
		{"empty", "", true},
		{"quote injection", "abc' or name contains 'secret", true},
		{"path traversal", "file/../../../etc", true},
		{"url", "https://docs.google.com/spreadsheets/d/abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DriveID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("DriveID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "user@example.com", false},
		{"with plus", "user+tag@example.com", false},
		{"with subdomain", "user@sub.example.com", false},
		{"empty", "", true},
		{"no at sign", "userexample.com", true},
		{"no TLD", "user@example", true},
		{"spaces", "user @example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Email(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("Email(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestCalendarID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"primary", "primary", false},
		{"user calendar", "ana@example.com", false},
		{"group calendar", "c_abc123@group.calendar.google.com", false},
		{"holiday calendar", "en.usa#holiday@group.v.calendar.google.com", false},
		{"empty", "", true},
		{"slash", "primary/events", true},
		{"space", "my calendar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CalendarID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("CalendarID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestRequired(t *testing.T) {
	if err := Required("title", "  "); err == nil || err.Error() != "title is required" {
		t.Errorf("Required blank: got %v", err)
	}
	if err := Required("title", "Budget"); err != nil {
		t.Errorf("Required: unexpected %v", err)
	}
}
