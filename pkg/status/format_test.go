package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 🧪 TestDefaultFileFormatter tests the default status formatter
func TestDefaultFileFormatter(t *testing.T) {
	tests := []struct {
		name        string
		ev          Event
		want        string
		description string
	}{
		{
			name:        "written",
			ev:          Event{Action: ActionStatus, Status: StatusOK, Msg: "b.js"},
			want:        "📝 Modified b.js",
			description: "should show modification symbol for written files",
		},
		{
			name:        "unchanged",
			ev:          Event{Action: ActionStatus, Status: StatusNoChange, Msg: "a.js"},
			want:        "👍 Unchanged a.js",
			description: "should show unchanged symbol for stable files",
		},
		{
			name:        "skipped",
			ev:          Event{Action: ActionStatus, Status: StatusSkip, Msg: "c.js"},
			want:        "⏭️  Skipped c.js",
			description: "should show skip symbol",
		},
		{
			name:        "error",
			ev:          Event{Action: ActionStatus, Status: StatusError, Msg: "d.js File error: boom"},
			want:        "❌ Failed d.js File error: boom",
			description: "should keep the diagnostic",
		},
		{
			name:        "unknown_status",
			ev:          Event{Action: ActionStatus, Status: "weird", Msg: "e.js"},
			want:        "❔ weird e.js",
			description: "should not hide unknown statuses",
		},
	}

	formatter := NewDefaultFileFormatter()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatter.FormatStatus(tt.ev), tt.description)
		})
	}
}

// 🧪 TestProgressFormatting tests progress message formatting
func TestProgressFormatting(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		expected string
	}{
		{name: "zero_progress", current: 0, total: 10, expected: "⏳ Progress: 0/10 (0%)"},
		{name: "half_progress", current: 5, total: 10, expected: "⏳ Progress: 5/10 (50%)"},
		{name: "complete", current: 10, total: 10, expected: "✅ Progress: 10/10 (100%)"},
		{name: "zero_total", current: 0, total: 0, expected: "✅ Progress: 0/0 (0%)"},
		{name: "zero_total_with_current", current: 5, total: 0, expected: "✅ Progress: 5/0 (100%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := NewDefaultFileFormatter()
			assert.Equal(t, tt.expected, formatter.FormatProgress(tt.current, tt.total))
		})
	}
}

// 🧪 TestErrorFormatting tests error message formatting
func TestErrorFormatting(t *testing.T) {
	formatter := NewDefaultFileFormatter()
	assert.Equal(t, "❌ Error: assert.AnError general error for testing", formatter.FormatError(assert.AnError))
	assert.Equal(t, "", formatter.FormatError(nil))
}
