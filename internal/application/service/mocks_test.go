package service

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/kbdigital/doc-ledger/internal/application/port"
	"github.com/kbdigital/doc-ledger/internal/domain/entity"
	"github.com/kbdigital/doc-ledger/internal/domain/event"
)

type mockSnapshotStore struct {
	mu       sync.Mutex
	saved    []entity.Snapshot
	saveFunc func(ctx context.Context, snap entity.Snapshot) error
	loadFunc func(ctx context.Context) (entity.Snapshot, error)
}

func (m *mockSnapshotStore) Save(ctx context.Context, snap entity.Snapshot) error {
	if m.saveFunc != nil {
		if err := m.saveFunc(ctx, snap); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, snap)
	return nil
}

func (m *mockSnapshotStore) Load(ctx context.Context) (entity.Snapshot, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return entity.Snapshot{}, port.ErrNoSnapshot
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *mockSnapshotStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

type mockFileStorage struct {
	files    map[string][]byte
	saveFunc func(ctx context.Context, path string, content []byte) error
}

func newMockFileStorage() *mockFileStorage {
	return &mockFileStorage{files: make(map[string][]byte)}
}

func (m *mockFileStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveFunc != nil {
		if err := m.saveFunc(ctx, path, content); err != nil {
			return err
		}
	}
	m.files[path] = content
	return nil
}

func (m *mockFileStorage) Read(ctx context.Context, path string) ([]byte, error) {
	content, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, os.ErrNotExist)
	}
	return content, nil
}

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

// mockEventPublisher records events instead of queueing them
type mockEventPublisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockEventPublisher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockEventPublisher) types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Type, len(m.events))
	for i, evt := range m.events {
		out[i] = evt.Type
	}
	return out
}

var (
	_ EventPublisher     = (*mockEventPublisher)(nil)
	_ port.SnapshotStore = (*mockSnapshotStore)(nil)
	_ port.FileStorage   = (*mockFileStorage)(nil)
)
