package ports

import (
	"context"
	"testing"
)

// Mock implementations for testing interfaces.

type mockKeyValueStore struct {
	values map[Namespace]map[string][]byte
}

func (m *mockKeyValueStore) Get(ctx context.Context, ns Namespace, key string) ([]byte, bool, error) {
	v, ok := m.values[ns][key]
	return v, ok, nil
}

func (m *mockKeyValueStore) Set(ctx context.Context, ns Namespace, key string, value []byte) error {
	if m.values[ns] == nil {
		m.values[ns] = make(map[string][]byte)
	}
	m.values[ns][key] = value
	return nil
}

var _ KeyValueStore = (*mockKeyValueStore)(nil)

func TestMockKeyValueStore(t *testing.T) {
	store := &mockKeyValueStore{values: make(map[Namespace]map[string][]byte)}
	ctx := context.Background()

	t.Run("absent key", func(t *testing.T) {
		_, ok, err := store.Get(ctx, NamespaceLocal, KeyTimerState)
		if err != nil {
			t.Errorf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() should report a missing key as absent")
		}
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		if err := store.Set(ctx, NamespaceSync, KeySettings, []byte(`{"pomodoroDuration":25}`)); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if _, ok, _ := store.Get(ctx, NamespaceLocal, KeySettings); ok {
			t.Error("a sync key must not be visible in the local namespace")
		}
		v, ok, _ := store.Get(ctx, NamespaceSync, KeySettings)
		if !ok || string(v) != `{"pomodoroDuration":25}` {
			t.Errorf("Get() = %q, %v", v, ok)
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		_ = store.Set(ctx, NamespaceLocal, KeyTimerState, []byte("a"))
		_ = store.Set(ctx, NamespaceLocal, KeyTimerState, []byte("b"))
		v, _, _ := store.Get(ctx, NamespaceLocal, KeyTimerState)
		if string(v) != "b" {
			t.Errorf("Get() = %q, want b", v)
		}
	})
}
