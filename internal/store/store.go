// Package store persists the task aggregate as a JSON string under a single
// key of a key-value config surface.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tasklock/internal/domain"
)

const (
	DefaultGroup = "tasklock"
	DefaultKey   = "allTasksJson"
)

// ErrCorrupt is returned by Load when the stored value is not valid task JSON.
var ErrCorrupt = errors.New("stored task data is corrupt")

// ConfigSurface is the get/set-string contract of the host configuration.
type ConfigSurface interface {
	GetString(ctx context.Context, group, key string) (string, bool, error)
	SetString(ctx context.Context, group, key, value string) error
}

// Store translates between the config surface and domain.TaskLockData.
type Store struct {
	Surface ConfigSurface
	Group   string
	Key     string
}

// New returns a Store bound to the default group and key.
func New(surface ConfigSurface) Store {
	return Store{Surface: surface, Group: DefaultGroup, Key: DefaultKey}
}

func (s Store) group() string {
	if s.Group == "" {
		return DefaultGroup
	}
	return s.Group
}

func (s Store) key() string {
	if s.Key == "" {
		return DefaultKey
	}
	return s.Key
}

// Load reads the aggregate. A missing or empty value yields an empty aggregate;
// anything that does not decode is an error wrapping ErrCorrupt.
func (s Store) Load(ctx context.Context) (domain.TaskLockData, error) {
	raw, ok, err := s.Surface.GetString(ctx, s.group(), s.key())
	if err != nil {
		return domain.TaskLockData{}, fmt.Errorf("load task data: %w", err)
	}
	if !ok || raw == "" {
		return domain.New(), nil
	}
	return Decode([]byte(raw))
}

// Save writes the aggregate with one SetString call.
func (s Store) Save(ctx context.Context, data domain.TaskLockData) error {
	b, err := Encode(data)
	if err != nil {
		return err
	}
	if err := s.Surface.SetString(ctx, s.group(), s.key(), string(b)); err != nil {
		return fmt.Errorf("save task data: %w", err)
	}
	return nil
}

// Encode renders the aggregate in its persisted JSON shape.
func Encode(data domain.TaskLockData) ([]byte, error) {
	b, err := json.Marshal(data.Normalize())
	if err != nil {
		return nil, fmt.Errorf("encode task data: %w", err)
	}
	return b, nil
}

// Decode parses persisted JSON, normalizing null lists and timestamps to UTC.
// A top-level null is not an aggregate and is rejected like any other garbage.
func Decode(raw []byte) (domain.TaskLockData, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return domain.TaskLockData{}, fmt.Errorf("%w: top-level null", ErrCorrupt)
	}
	var data domain.TaskLockData
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.TaskLockData{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	data = data.Normalize()
	for i := range data.Completed {
		data.Completed[i].CompletedAt = data.Completed[i].CompletedAt.UTC()
	}
	return data, nil
}
