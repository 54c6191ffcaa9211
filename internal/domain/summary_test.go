package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	d := New()
	s := Summarize(d)
	assert.Equal(t, NoCurrentTask, s.CurrentTask)
	assert.Equal(t, "Roll Task", s.RollLabel)
	assert.Equal(t, "Active Tasks", s.Headings["active"])

	d.CurrentTask = "A"
	d.Active = []string{"A", "B", "C"}
	d.Completed = []CompletedTask{{Task: "Z"}}
	s = Summarize(d)
	assert.Equal(t, "A", s.CurrentTask)
	assert.Equal(t, "Reroll Task", s.RollLabel)
	assert.Equal(t, "Active Tasks (3)", s.Headings["active"])
	assert.Equal(t, "Backlog", s.Headings["backlog"])
	assert.Equal(t, "Completed Tasks (1)", s.Headings["completed"])
	assert.Equal(t, 1, s.Counts["completed"])
	assert.Equal(t, "No Backlog", EmptyLabel(Backlog))
}

func TestParseList(t *testing.T) {
	for _, l := range Lists() {
		got, err := ParseList(" " + l.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	got, err := ParseList("ACTIVE")
	require.NoError(t, err)
	assert.Equal(t, Active, got)

	_, err = ParseList("complete")
	assert.ErrorIs(t, err, ErrUnknownList)
}

func TestSentinelIsNotACurrentTask(t *testing.T) {
	d := TaskLockData{CurrentTask: NoCurrentTask}
	assert.False(t, d.HasCurrentTask())
	assert.Equal(t, NoCurrentTask, d.CurrentLabel())
}

func TestCloneIsDeep(t *testing.T) {
	d := TaskLockData{Active: []string{"A"}}
	c := d.Clone()
	c.Active[0] = "B"
	assert.Equal(t, "A", d.Active[0])
	assert.Equal(t, []string{}, c.Backlog)
}
