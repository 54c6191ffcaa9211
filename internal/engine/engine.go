package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tasklock/internal/config"
	"tasklock/internal/domain"
	"tasklock/internal/events"
	"tasklock/internal/lifecycle"
	"tasklock/internal/migrate"
	"tasklock/internal/repo"
	"tasklock/internal/store"
)

// Engine runs one load-mutate-save cycle per user action.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Rand   lifecycle.Source
	Now    func() time.Time
	NewID  func() string
	Log    zerolog.Logger
}

// Result describes the outcome of an action.
type Result struct {
	OpID    string              `json:"op_id"`
	Changed bool                `json:"changed"`
	Task    string              `json:"task,omitempty"`
	State   domain.TaskLockData `json:"state"`
}

type actorKey struct{}

// WithActor tags ctx with the caller recorded on the events its mutations append.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func actorFrom(ctx context.Context) string {
	a, _ := ctx.Value(actorKey{}).(string)
	return a
}

func withActor(ctx context.Context, payload events.EventPayload) events.EventPayload {
	actor := actorFrom(ctx)
	if actor == "" {
		return payload
	}
	if payload == nil {
		payload = events.EventPayload{}
	}
	payload["actor"] = actor
	return payload
}

func New(db *sql.DB, cfg *config.Config, log zerolog.Logger) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{},
		Config: cfg,
		Rand:   lifecycle.DefaultSource(),
		Now:    time.Now,
		NewID:  uuid.NewString,
		Log:    log,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func (e Engine) location() *time.Location {
	return e.Config.Location()
}

func (e Engine) store(q repo.DBTX) store.Store {
	return store.Store{
		Surface: repo.Repo{DB: q, Now: e.Now},
		Group:   e.Config.Storage.Group,
		Key:     e.Config.Storage.Key,
	}
}

// State loads the current aggregate.
func (e Engine) State(ctx context.Context) (domain.TaskLockData, error) {
	return e.store(e.DB).Load(ctx)
}

// Status is the summary plus where the state is stored: the applied schema
// version and when the aggregate was last written (empty when never saved).
type Status struct {
	domain.Summary
	SchemaVersion int    `json:"schema_version"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

func (e Engine) Status(ctx context.Context) (Status, error) {
	data, err := e.State(ctx)
	if err != nil {
		return Status{}, err
	}
	version, err := migrate.CurrentVersion(e.DB)
	if err != nil {
		return Status{}, err
	}
	updated, err := e.Repo.UpdatedAt(ctx, e.Config.Storage.Group, e.Config.Storage.Key)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return Status{}, err
	}
	return Status{Summary: domain.Summarize(data), SchemaVersion: version, UpdatedAt: updated}, nil
}

// Text renders a list the way the edit box shows it.
func (e Engine) Text(ctx context.Context, list domain.List) (string, error) {
	data, err := e.State(ctx)
	if err != nil {
		return "", err
	}
	return lifecycle.FormatText(data, list, e.location()), nil
}

// Roll picks a new current task.
func (e Engine) Roll(ctx context.Context) (Result, error) {
	return e.mutate(ctx, events.TaskRolled, func(data domain.TaskLockData) (change, error) {
		next, ok := lifecycle.TryRoll(data, e.Rand)
		return change{
			next:    next,
			changed: ok,
			task:    next.CurrentTask,
			payload: events.EventPayload{"from": data.CurrentTask, "candidates": len(lifecycle.Candidates(data))},
		}, nil
	})
}

// Backlog moves the current task to the backlog.
func (e Engine) Backlog(ctx context.Context) (Result, error) {
	return e.advance(ctx, domain.ToBacklog, events.TaskBacklogged)
}

// Complete moves the current task to the completed history, stamped now.
func (e Engine) Complete(ctx context.Context) (Result, error) {
	return e.advance(ctx, domain.ToCompleted, events.TaskCompleted)
}

func (e Engine) advance(ctx context.Context, dest domain.Destination, evtType string) (Result, error) {
	return e.mutate(ctx, evtType, func(data domain.TaskLockData) (change, error) {
		next, ok := lifecycle.TryAdvance(data, dest, e.now())
		return change{
			next:    next,
			changed: ok,
			task:    data.CurrentTask,
			payload: events.EventPayload{"to": dest.String()},
		}, nil
	})
}

// Replace swaps a whole list for the entries parsed from text.
func (e Engine) Replace(ctx context.Context, list domain.List, text string) (Result, error) {
	return e.mutate(ctx, events.ListReplaced, func(data domain.TaskLockData) (change, error) {
		next := lifecycle.ReplaceFromText(data, list, text, e.location())
		return change{
			next:    next,
			changed: true,
			payload: events.EventPayload{
				"list":    list.String(),
				"before":  data.Len(list),
				"after":   next.Len(list),
				"dropped": len(lifecycle.Lines(text)) - next.Len(list),
			},
		}, nil
	})
}

// Add appends tasks to the active list or the backlog. New names are
// trimmed and blank ones skipped; stored entries are left as they are.
func (e Engine) Add(ctx context.Context, list domain.List, tasks ...string) (Result, error) {
	if list == domain.Completed {
		return Result{}, errors.New("tasks cannot be added to the completed list; complete the current task instead")
	}
	added := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t = strings.TrimSpace(t); t != "" {
			added = append(added, t)
		}
	}
	return e.mutate(ctx, events.ListReplaced, func(data domain.TaskLockData) (change, error) {
		next := data.Clone()
		switch list {
		case domain.Active:
			next.Active = append(next.Active, added...)
		case domain.Backlog:
			next.Backlog = append(next.Backlog, added...)
		}
		return change{
			next:    next,
			changed: len(added) > 0,
			payload: events.EventPayload{"list": list.String(), "added": len(added)},
		}, nil
	})
}

// ClearCompleted empties the completed history.
func (e Engine) ClearCompleted(ctx context.Context) (Result, error) {
	return e.Replace(ctx, domain.Completed, "")
}

// Import overwrites the whole aggregate.
func (e Engine) Import(ctx context.Context, data domain.TaskLockData) (Result, error) {
	return e.mutate(ctx, events.StateImported, func(old domain.TaskLockData) (change, error) {
		next := data.Clone().Normalize()
		for i := range next.Completed {
			next.Completed[i].CompletedAt = next.Completed[i].CompletedAt.UTC()
		}
		return change{
			next:    next,
			changed: true,
			payload: events.EventPayload{
				"active":    len(next.Active),
				"backlog":   len(next.Backlog),
				"completed": len(next.Completed),
			},
		}, nil
	})
}

// Reset deletes the stored aggregate. The next load starts empty.
func (e Engine) Reset(ctx context.Context) (Result, error) {
	opID := e.newID()
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()
	r := repo.Repo{DB: tx}
	changed := true
	if err := r.UnsetString(ctx, e.Config.Storage.Group, e.Config.Storage.Key); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return Result{}, err
		}
		changed = false
	}
	if changed {
		if err := e.writer().Append(ctx, tx, events.StateReset, opID, "", withActor(ctx, nil)); err != nil {
			return Result{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	e.Log.Info().Str("op_id", opID).Bool("changed", changed).Msg("state reset")
	return Result{OpID: opID, Changed: changed, State: domain.New()}, nil
}

// History returns recent transition events.
func (e Engine) History(ctx context.Context, n int, evtType string) ([]domain.Event, error) {
	return e.Repo.LatestEvents(ctx, n, evtType)
}

func (e Engine) writer() events.Writer {
	w := e.Events
	if w.Now == nil {
		w.Now = e.Now
	}
	return w
}

type change struct {
	next    domain.TaskLockData
	changed bool
	task    string
	payload events.EventPayload
}

// mutate loads the aggregate, applies fn and, when fn reports a change,
// saves it and appends evtType in the same transaction.
func (e Engine) mutate(ctx context.Context, evtType string, fn func(domain.TaskLockData) (change, error)) (Result, error) {
	opID := e.newID()
	log := e.Log.With().Str("op_id", opID).Str("event", evtType).Str("actor", actorFrom(ctx)).Logger()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()

	s := e.store(tx)
	data, err := s.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load failed")
		return Result{}, err
	}
	c, err := fn(data)
	if err != nil {
		return Result{}, err
	}
	if !c.changed {
		log.Debug().Msg("nothing to change")
		return Result{OpID: opID, Changed: false, Task: c.task, State: data}, nil
	}
	if err := s.Save(ctx, c.next); err != nil {
		log.Error().Err(err).Msg("save failed")
		return Result{}, err
	}
	if err := e.writer().Append(ctx, tx, evtType, opID, c.task, withActor(ctx, c.payload)); err != nil {
		return Result{}, fmt.Errorf("append event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}
	log.Info().Str("task", c.task).Msg("state updated")
	return Result{OpID: opID, Changed: true, Task: c.task, State: c.next.Normalize()}, nil
}
