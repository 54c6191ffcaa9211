package lifecycle

import (
	"strings"
	"time"

	"tasklock/internal/domain"
)

// TimestampLayout is the MM-dd-yyyy HH:mm layout used in completed-list text.
const TimestampLayout = "01-02-2006 15:04"

// separator splits the timestamp from the task name in a completed line.
const separator = " - "

// Lines splits text on line breaks and returns the trimmed, non-blank lines.
func Lines(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// ReplaceFromText replaces the whole target list with the contents of text.
// Completed lines that do not parse are dropped.
func ReplaceFromText(data domain.TaskLockData, target domain.List, text string, loc *time.Location) domain.TaskLockData {
	next := data.Clone()
	lines := Lines(text)
	switch target {
	case domain.Active:
		next.Active = lines
	case domain.Backlog:
		next.Backlog = lines
	case domain.Completed:
		completed := make([]domain.CompletedTask, 0, len(lines))
		for _, line := range lines {
			c, ok := ParseCompletedLine(line, loc)
			if !ok {
				continue
			}
			completed = append(completed, c)
		}
		next.Completed = completed
	default:
		return data
	}
	return next
}

// ParseCompletedLine decodes "MM-dd-yyyy HH:mm - name". The timestamp is read
// in loc (local time when nil); the name is everything after the first " - ".
func ParseCompletedLine(line string, loc *time.Location) (domain.CompletedTask, bool) {
	if loc == nil {
		loc = time.Local
	}
	stamp, name, found := strings.Cut(strings.TrimSpace(line), separator)
	if !found {
		return domain.CompletedTask{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.CompletedTask{}, false
	}
	at, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(stamp), loc)
	if err != nil {
		return domain.CompletedTask{}, false
	}
	return domain.CompletedTask{CompletedAt: at.UTC(), Task: name}, true
}

// FormatCompletedLine renders c the way ParseCompletedLine reads it.
func FormatCompletedLine(c domain.CompletedTask, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return c.CompletedAt.In(loc).Format(TimestampLayout) + separator + c.Task
}

// FormatText renders a list as the text a user edits, one entry per line.
func FormatText(data domain.TaskLockData, target domain.List, loc *time.Location) string {
	switch target {
	case domain.Active:
		return strings.Join(data.Active, "\n")
	case domain.Backlog:
		return strings.Join(data.Backlog, "\n")
	case domain.Completed:
		lines := make([]string, 0, len(data.Completed))
		for _, c := range data.Completed {
			lines = append(lines, FormatCompletedLine(c, loc))
		}
		return strings.Join(lines, "\n")
	}
	return ""
}
