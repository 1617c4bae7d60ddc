// Package ports defines the interfaces (driven and driving ports)
// for keeper following hexagonal architecture principles.
// These interfaces define the contracts between the timer engine, the
// foreground view, and external infrastructure.
package ports

import (
	"context"
	"time"

	"github.com/xvierd/keeper/internal/domain"
)

// Namespace partitions the key-value store.
type Namespace string

const (
	// NamespaceSync holds user settings.
	NamespaceSync Namespace = "sync"
	// NamespaceLocal holds the canonical timer state.
	NamespaceLocal Namespace = "local"
)

// Store keys.
const (
	KeySettings   = "productivityKeeperSettings"
	KeyTimerState = "timerState"
)

// KeyValueStore is the raw asynchronous get/set service behind both namespaces.
// Each call is atomic on its own; there are no transactions and the last write wins.
type KeyValueStore interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, ns Namespace, key string) ([]byte, bool, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, ns Namespace, key string, value []byte) error
}

// TimerRepository persists the single TimerState record.
// This is a driven port (implemented by adapters).
type TimerRepository interface {
	// Load returns the stored state, or nil when none has been written yet.
	Load(ctx context.Context) (*domain.TimerState, error)

	// Save overwrites the stored state.
	Save(ctx context.Context, state *domain.TimerState) error
}

// SettingsRepository persists the user settings.
// This is a driven port (implemented by adapters).
type SettingsRepository interface {
	// Load returns the stored settings, or nil when none have been written yet.
	Load(ctx context.Context) (*domain.Settings, error)

	// Save overwrites the stored settings.
	Save(ctx context.Context, settings *domain.Settings) error
}

// PhaseRepository keeps the log of finished phases.
// This is a driven port (implemented by adapters).
type PhaseRepository interface {
	// Record appends a finished phase.
	Record(ctx context.Context, record *domain.PhaseRecord) error

	// FindRecent returns records completed at or after since, newest first.
	FindRecent(ctx context.Context, since time.Time) ([]*domain.PhaseRecord, error)

	// GetDailyStats returns aggregated statistics for a specific date.
	GetDailyStats(ctx context.Context, date time.Time) (*domain.DailyStats, error)
}

// Storage is the combined repository interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	// KV exposes the raw namespaced store.
	KV() KeyValueStore

	// Timer provides access to the canonical timer state.
	Timer() TimerRepository

	// Settings provides access to the user settings.
	Settings() SettingsRepository

	// Phases provides access to the completion log.
	Phases() PhaseRepository

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate() error
}
