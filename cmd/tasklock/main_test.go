package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklock/internal/domain"
	"tasklock/internal/engine"
)

func run(t *testing.T, workspace, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--workspace", workspace, "--time-zone", "UTC"}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, workspace, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, workspace, stdin, args...)
	require.NoError(t, err, out)
	return out
}

func TestInitWritesConfig(t *testing.T) {
	ws := t.TempDir()
	out := mustRun(t, ws, "", "init")
	assert.Contains(t, out, "tasklock.yml")
	_, err := os.Stat(filepath.Join(ws, "tasklock.yml"))
	require.NoError(t, err)

	_, err = run(t, ws, "", "init")
	assert.Error(t, err)
	mustRun(t, ws, "", "init", "--force")
}

func TestRollCompleteFlow(t *testing.T) {
	ws := t.TempDir()

	out := mustRun(t, ws, "", "roll")
	assert.Contains(t, out, "Nothing to roll")

	mustRun(t, ws, "", "add", "active", "Kill chickens")
	out = mustRun(t, ws, "", "roll")
	assert.Equal(t, "Current task: Kill chickens\n", out)

	out = mustRun(t, ws, "", "status")
	assert.Contains(t, out, "Current Task: Kill chickens")
	assert.Contains(t, out, "Active Tasks (1)")
	assert.Contains(t, out, "Reroll Task")
	assert.Contains(t, out, "Schema v1, last saved ")
	assert.NotContains(t, out, "never")

	out = mustRun(t, ws, "", "complete")
	assert.Equal(t, "Completed: Kill chickens\n", out)

	out = mustRun(t, ws, "", "backlog")
	assert.Equal(t, domain.NoCurrentTask+"\n", out)

	out = mustRun(t, ws, "", "--json", "show")
	var data domain.TaskLockData
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Empty(t, data.Active)
	require.Len(t, data.Completed, 1)
	assert.Equal(t, "Kill chickens", data.Completed[0].Task)

	out = mustRun(t, ws, "", "log", "tail", "-n", "1")
	assert.Contains(t, out, "task.completed")
}

func TestEditAndText(t *testing.T) {
	ws := t.TempDir()

	mustRun(t, ws, "Buy rune\n\n  Obtain cape  \n", "edit", "backlog")
	out := mustRun(t, ws, "", "text", "backlog")
	assert.Equal(t, "Buy rune\nObtain cape\n", out)

	file := filepath.Join(t.TempDir(), "done.txt")
	require.NoError(t, os.WriteFile(file, []byte("05-01-2024 10:00 - Finish quest\nbad line\n06-01-2024 11:30 - Slay dragon\n"), 0o644))
	out = mustRun(t, ws, "", "edit", "completed", "--file", file)
	assert.Equal(t, "Completed Tasks (2)\n", out)

	out = mustRun(t, ws, "", "text", "completed")
	assert.Equal(t, "05-01-2024 10:00 - Finish quest\n06-01-2024 11:30 - Slay dragon\n", out)

	out = mustRun(t, ws, "", "show", "completed")
	assert.Contains(t, out, "Slay dragon")

	mustRun(t, ws, "", "clear", "completed")
	out = mustRun(t, ws, "", "show", "completed")
	assert.Contains(t, out, "No Completed Tasks")

	_, err := run(t, ws, "", "edit", "todo")
	assert.ErrorIs(t, err, domain.ErrUnknownList)
}

func TestExportImportReset(t *testing.T) {
	ws := t.TempDir()
	state := `{"currentTask":"A","active":["A","B"],"backlog":[],"completed":[{"completedAt":"2024-01-02T03:04:00Z","task":"C"}]}`
	out := mustRun(t, ws, state, "import")
	assert.Contains(t, out, "Active Tasks (2)")

	out = mustRun(t, ws, "", "export")
	assert.JSONEq(t, state, out)

	_, err := run(t, ws, "{nope", "import")
	assert.Error(t, err)

	out = mustRun(t, ws, "", "--json", "reset")
	var res engine.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Changed)

	out = mustRun(t, ws, "", "export")
	assert.JSONEq(t, `{"currentTask":"","active":[],"backlog":[],"completed":[]}`, out)
}

func TestTokenNeedsSecret(t *testing.T) {
	t.Setenv("TASKLOCK_JWT_SECRET", "")
	_, err := run(t, t.TempDir(), "", "token")
	assert.Error(t, err)

	t.Setenv("TASKLOCK_JWT_SECRET", "s3cret")
	out := mustRun(t, t.TempDir(), "", "token", "--subject", "me")
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "."))
}
