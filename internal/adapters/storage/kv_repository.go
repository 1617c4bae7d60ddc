package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xvierd/keeper/internal/domain"
	"github.com/xvierd/keeper/internal/ports"
)

// kvStore implements ports.KeyValueStore on the kv table.
type kvStore struct {
	db *sql.DB
}

// Get returns the value stored under ns/key.
func (s *kvStore) Get(ctx context.Context, ns ports.Namespace, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`,
		string(ns), key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s/%s: %w", ns, key, err)
	}
	return value, true, nil
}

// Set writes value under ns/key, replacing any previous value.
func (s *kvStore) Set(ctx context.Context, ns ports.Namespace, key string, value []byte) error {
	query := `
		INSERT INTO kv (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, string(ns), key, value, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", ns, key, err)
	}
	return nil
}

// timerRepository implements ports.TimerRepository as a JSON record in the local namespace.
type timerRepository struct {
	kv ports.KeyValueStore
}

// newTimerRepository creates a new timer repository.
func newTimerRepository(kv ports.KeyValueStore) ports.TimerRepository {
	return &timerRepository{kv: kv}
}

// Load returns the stored timer state or nil when none exists.
func (r *timerRepository) Load(ctx context.Context) (*domain.TimerState, error) {
	raw, ok, err := r.kv.Get(ctx, ports.NamespaceLocal, ports.KeyTimerState)
	if err != nil || !ok {
		return nil, err
	}

	var st domain.TimerState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("failed to decode timer state: %w", err)
	}
	return &st, nil
}

// Save overwrites the stored timer state.
func (r *timerRepository) Save(ctx context.Context, state *domain.TimerState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode timer state: %w", err)
	}
	return r.kv.Set(ctx, ports.NamespaceLocal, ports.KeyTimerState, raw)
}

// settingsRepository implements ports.SettingsRepository in the sync namespace.
type settingsRepository struct {
	kv ports.KeyValueStore
}

// newSettingsRepository creates a new settings repository.
func newSettingsRepository(kv ports.KeyValueStore) ports.SettingsRepository {
	return &settingsRepository{kv: kv}
}

// Load returns the stored settings or nil when none exist.
// Fields missing from the stored record keep their default values.
func (r *settingsRepository) Load(ctx context.Context) (*domain.Settings, error) {
	raw, ok, err := r.kv.Get(ctx, ports.NamespaceSync, ports.KeySettings)
	if err != nil || !ok {
		return nil, err
	}

	s := domain.DefaultSettings()
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &s, nil
}

// Save overwrites the stored settings.
func (r *settingsRepository) Save(ctx context.Context, settings *domain.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return r.kv.Set(ctx, ports.NamespaceSync, ports.KeySettings, raw)
}
