package domain

import "fmt"

// Summary is the at-a-glance view of the state: the current task label,
// the roll action label and one heading per list with its count.
type Summary struct {
	CurrentTask string            `json:"current_task"`
	RollLabel   string            `json:"roll_label"`
	Headings    map[string]string `json:"headings"`
	Counts      map[string]int    `json:"counts"`
}

// Summarize builds the Summary for d.
func Summarize(d TaskLockData) Summary {
	s := Summary{
		CurrentTask: d.CurrentLabel(),
		RollLabel:   "Roll Task",
		Headings:    map[string]string{},
		Counts:      map[string]int{},
	}
	if d.HasCurrentTask() {
		s.RollLabel = "Reroll Task"
	}
	for _, l := range Lists() {
		n := d.Len(l)
		s.Counts[l.String()] = n
		s.Headings[l.String()] = Heading(l, n)
	}
	return s
}

// Heading is the list title, with the entry count when the list is not empty.
func Heading(l List, n int) string {
	if n == 0 {
		return l.Title()
	}
	return fmt.Sprintf("%s (%d)", l.Title(), n)
}

// EmptyLabel is shown in place of an empty list.
func EmptyLabel(l List) string {
	return "No " + l.Title()
}
