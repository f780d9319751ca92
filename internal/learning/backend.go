package learning

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned by Backend.Load when a key has never been saved.
var ErrNotFound = errors.New("learning record not found")

// Backend is the durable key-value medium behind a Store.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Event is one append-only interaction entry.
type Event struct {
	ID        string      `json:"id"`
	Scope     string      `json:"scope"`
	PatternID string      `json:"patternId"`
	Kind      Interaction `json:"kind"`
	At        time.Time   `json:"at"`
}

// EventSink is implemented by backends that keep an interaction log.
type EventSink interface {
	AppendEvent(ctx context.Context, ev Event) error
}

// MemoryBackend keeps records in process memory.
type MemoryBackend struct {
	mu     sync.Mutex
	data   map[string][]byte
	events []Event
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: map[string][]byte{}}
}

func (m *MemoryBackend) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBackend) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryBackend) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryBackend) AppendEvent(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// Events returns the logged events for scope, newest last. An empty scope
// returns every event.
func (m *MemoryBackend) Events(scope string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, ev := range m.events {
		if scope == "" || ev.Scope == scope {
			out = append(out, ev)
		}
	}
	return out
}

// sourceOf returns the source half of a persisted scope key.
func sourceOf(key string) string {
	if k, err := ParseScopeKey(key); err == nil {
		return k.Source
	}
	if i := strings.LastIndex(key, scopeSep); i >= 0 {
		return key[i+len(scopeSep):]
	}
	return ""
}
