package status

import (
	"fmt"
)

// FileFormatter defines how worker events are rendered for humans
type FileFormatter interface {
	// FormatStatus formats the terminal event of one file
	FormatStatus(ev Event) string

	// FormatProgress formats a progress message
	FormatProgress(current, total int) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFileFormatter provides a default implementation of FileFormatter
type DefaultFileFormatter struct{}

// NewDefaultFileFormatter creates a new DefaultFileFormatter
func NewDefaultFileFormatter() *DefaultFileFormatter {
	return &DefaultFileFormatter{}
}

// FormatStatus formats a status event with emojis
func (f *DefaultFileFormatter) FormatStatus(ev Event) string {
	switch ev.Status {
	case StatusOK:
		return fmt.Sprintf("📝 Modified %s", ev.Msg)
	case StatusNoChange:
		return fmt.Sprintf("👍 Unchanged %s", ev.Msg)
	case StatusSkip:
		return fmt.Sprintf("⏭️  Skipped %s", ev.Msg)
	case StatusError:
		return fmt.Sprintf("❌ Failed %s", ev.Msg)
	default:
		return fmt.Sprintf("❔ %s %s", ev.Status, ev.Msg)
	}
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFileFormatter) FormatProgress(current, total int) string {
	var percentage float64
	if total == 0 {
		percentage = 0
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = float64(current) / float64(total) * 100
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

// FormatError formats an error message with emoji
func (f *DefaultFileFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}
