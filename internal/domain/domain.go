package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// NoCurrentTask is the label shown when nothing is selected. A stored current
// task equal to it is treated the same as an empty one.
const NoCurrentTask = "No Current Task"

var ErrUnknownList = errors.New("unknown list")

// TaskLockData is the whole persisted task state of a user.
type TaskLockData struct {
	CurrentTask string          `json:"currentTask"`
	Active      []string        `json:"active"`
	Backlog     []string        `json:"backlog"`
	Completed   []CompletedTask `json:"completed"`
}

// CompletedTask records when a task was finished.
type CompletedTask struct {
	CompletedAt time.Time `json:"completedAt" format:"date-time"`
	Task        string    `json:"task"`
}

// New returns an empty aggregate with non-nil lists.
func New() TaskLockData {
	return TaskLockData{
		Active:    []string{},
		Backlog:   []string{},
		Completed: []CompletedTask{},
	}
}

// Normalize replaces nil lists with empty ones so JSON output never carries null.
func (d TaskLockData) Normalize() TaskLockData {
	if d.Active == nil {
		d.Active = []string{}
	}
	if d.Backlog == nil {
		d.Backlog = []string{}
	}
	if d.Completed == nil {
		d.Completed = []CompletedTask{}
	}
	return d
}

// Clone returns a deep copy so callers can mutate lists freely.
func (d TaskLockData) Clone() TaskLockData {
	out := TaskLockData{
		CurrentTask: d.CurrentTask,
		Active:      append([]string{}, d.Active...),
		Backlog:     append([]string{}, d.Backlog...),
		Completed:   append([]CompletedTask{}, d.Completed...),
	}
	return out
}

// HasCurrentTask reports whether CurrentTask names a real selection.
func (d TaskLockData) HasCurrentTask() bool {
	return d.CurrentTask != "" && d.CurrentTask != NoCurrentTask
}

// CurrentLabel is the text shown for the current task slot.
func (d TaskLockData) CurrentLabel() string {
	if !d.HasCurrentTask() {
		return NoCurrentTask
	}
	return d.CurrentTask
}

// List identifies one of the editable task lists.
type List int

const (
	Active List = iota + 1
	Backlog
	Completed
)

var listNames = map[List]string{
	Active:    "active",
	Backlog:   "backlog",
	Completed: "completed",
}

var listTitles = map[List]string{
	Active:    "Active Tasks",
	Backlog:   "Backlog",
	Completed: "Completed Tasks",
}

func (l List) String() string {
	if name, ok := listNames[l]; ok {
		return name
	}
	return fmt.Sprintf("list(%d)", int(l))
}

// Title is the human heading for the list.
func (l List) Title() string {
	return listTitles[l]
}

// Lists returns every list in display order.
func Lists() []List {
	return []List{Active, Backlog, Completed}
}

// ParseList maps a list name to its List value.
func ParseList(s string) (List, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for l, name := range listNames {
		if name == key {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (want active, backlog or completed)", ErrUnknownList, s)
}

// Len returns the number of entries in the given list.
func (d TaskLockData) Len(l List) int {
	switch l {
	case Active:
		return len(d.Active)
	case Backlog:
		return len(d.Backlog)
	case Completed:
		return len(d.Completed)
	}
	return 0
}

// Destination is where Advance moves the current task.
type Destination int

const (
	ToBacklog Destination = iota + 1
	ToCompleted
)

func (d Destination) String() string {
	switch d {
	case ToBacklog:
		return "backlog"
	case ToCompleted:
		return "completed"
	default:
		return fmt.Sprintf("destination(%d)", int(d))
	}
}

// Event is one entry of the transition log.
type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts" format:"date-time"`
	Type    string `json:"type"`
	OpID    string `json:"op_id"`
	Task    string `json:"task,omitempty"`
	Payload string `json:"payload_json"`
}
