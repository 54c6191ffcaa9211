package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklock/internal/db"
	"tasklock/internal/domain"
	"tasklock/internal/migrate"
	"tasklock/internal/repo"
	"tasklock/internal/store"
)

// memSurface is an in-memory config surface that counts writes.
type memSurface struct {
	values map[string]string
	sets   int
	setErr error
}

func newMem() *memSurface { return &memSurface{values: map[string]string{}} }

func (m *memSurface) GetString(_ context.Context, group, key string) (string, bool, error) {
	v, ok := m.values[group+"."+key]
	return v, ok, nil
}

func (m *memSurface) SetString(_ context.Context, group, key, value string) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.values[group+"."+key] = value
	return nil
}

func sample() domain.TaskLockData {
	return domain.TaskLockData{
		CurrentTask: "Buy rune",
		Active:      []string{"Kill chickens", "Buy rune", "Buy rune"},
		Backlog:     []string{"Obtain fire cape"},
		Completed: []domain.CompletedTask{
			{CompletedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), Task: "Finish quest"},
			{CompletedAt: time.Date(2024, 6, 1, 11, 30, 15, 500, time.UTC), Task: "Slay dragon"},
		},
	}
}

func TestLoadMissingReturnsEmpty(t *testing.T) {
	s := store.New(newMem())
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.New(), got)
}

func TestLoadEmptyStringReturnsEmpty(t *testing.T) {
	mem := newMem()
	mem.values["tasklock.allTasksJson"] = ""
	got, err := store.New(mem).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.New(), got)
}

func TestLoadCorruptFails(t *testing.T) {
	mem := newMem()
	mem.values["tasklock.allTasksJson"] = `{"currentTask": 12`
	_, err := store.New(mem).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrCorrupt))
}

func TestLoadTopLevelNullFails(t *testing.T) {
	for _, raw := range []string{"null", " null\n"} {
		mem := newMem()
		mem.values["tasklock.allTasksJson"] = raw
		_, err := store.New(mem).Load(context.Background())
		assert.True(t, errors.Is(err, store.ErrCorrupt), "%q", raw)
	}
}

func TestLoadNormalizesNullLists(t *testing.T) {
	mem := newMem()
	mem.values["tasklock.allTasksJson"] = `{"currentTask":"A","active":null}`
	got, err := store.New(mem).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", got.CurrentTask)
	assert.NotNil(t, got.Active)
	assert.NotNil(t, got.Backlog)
	assert.NotNil(t, got.Completed)
}

func TestSaveUsesSingleSet(t *testing.T) {
	mem := newMem()
	s := store.New(mem)
	require.NoError(t, s.Save(context.Background(), sample()))
	assert.Equal(t, 1, mem.sets)
	assert.JSONEq(t, `{
		"currentTask": "Buy rune",
		"active": ["Kill chickens", "Buy rune", "Buy rune"],
		"backlog": ["Obtain fire cape"],
		"completed": [
			{"completedAt": "2024-05-01T10:00:00Z", "task": "Finish quest"},
			{"completedAt": "2024-06-01T11:30:15.0000005Z", "task": "Slay dragon"}
		]
	}`, mem.values["tasklock.allTasksJson"])
}

func TestSaveEmptyWritesArrays(t *testing.T) {
	mem := newMem()
	require.NoError(t, store.New(mem).Save(context.Background(), domain.TaskLockData{}))
	assert.JSONEq(t, `{"currentTask":"","active":[],"backlog":[],"completed":[]}`, mem.values["tasklock.allTasksJson"])
}

func TestSaveFailureIsReported(t *testing.T) {
	mem := newMem()
	mem.setErr = errors.New("disk full")
	err := store.New(mem).Save(context.Background(), sample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCustomGroupAndKey(t *testing.T) {
	mem := newMem()
	s := store.Store{Surface: mem, Group: "g", Key: "k"}
	require.NoError(t, s.Save(context.Background(), sample()))
	_, ok := mem.values["g.k"]
	assert.True(t, ok)
}

func TestRoundTripSQLite(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, migrate.Migrate(conn))
	s := store.New(repo.Repo{DB: conn})
	ctx := context.Background()

	for _, want := range []domain.TaskLockData{domain.New(), sample()} {
		require.NoError(t, s.Save(ctx, want))
		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
