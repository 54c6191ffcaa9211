// Package lifecycle holds the pure task transitions: rolling a new current
// task, moving the current task to the backlog or the completed history, and
// replacing a list from edited text. Nothing here touches storage.
package lifecycle

import (
	"math/rand"
	"time"

	"tasklock/internal/domain"
)

// Source picks an index in [0, n). *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

type defaultSource struct{}

func (defaultSource) Intn(n int) int { return rand.Intn(n) }

// DefaultSource draws from the package-level math/rand generator.
func DefaultSource() Source { return defaultSource{} }

// Candidates returns the tasks Roll may pick from: active without the current task.
func Candidates(data domain.TaskLockData) []string {
	out := make([]string, 0, len(data.Active))
	for _, t := range data.Active {
		if data.CurrentTask != "" && t == data.CurrentTask {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Roll sets a random candidate as the current task. With no candidate the
// snapshot is returned unchanged.
func Roll(data domain.TaskLockData, src Source) domain.TaskLockData {
	next, _ := TryRoll(data, src)
	return next
}

// TryRoll is Roll that also reports whether the state changed.
func TryRoll(data domain.TaskLockData, src Source) (domain.TaskLockData, bool) {
	candidates := Candidates(data)
	if len(candidates) == 0 {
		return data, false
	}
	if src == nil {
		src = DefaultSource()
	}
	next := data.Clone()
	next.CurrentTask = candidates[src.Intn(len(candidates))]
	return next, true
}

// Advance moves the current task out of the active list into dest and
// clears the selection. It is a no-op when there is no valid current task.
func Advance(data domain.TaskLockData, dest domain.Destination, now time.Time) domain.TaskLockData {
	next, _ := TryAdvance(data, dest, now)
	return next
}

// TryAdvance is Advance that also reports whether the state changed.
func TryAdvance(data domain.TaskLockData, dest domain.Destination, now time.Time) (domain.TaskLockData, bool) {
	if !data.HasCurrentTask() {
		return data, false
	}
	idx := indexOf(data.Active, data.CurrentTask)
	if idx < 0 {
		return data, false
	}
	if dest != domain.ToBacklog && dest != domain.ToCompleted {
		return data, false
	}
	next := data.Clone()
	task := next.CurrentTask
	next.Active = append(next.Active[:idx], next.Active[idx+1:]...)
	switch dest {
	case domain.ToBacklog:
		next.Backlog = append(next.Backlog, task)
	case domain.ToCompleted:
		next.Completed = append(next.Completed, domain.CompletedTask{
			CompletedAt: now.UTC(),
			Task:        task,
		})
	}
	next.CurrentTask = ""
	return next, true
}

func indexOf(items []string, v string) int {
	for i, item := range items {
		if item == v {
			return i
		}
	}
	return -1
}
