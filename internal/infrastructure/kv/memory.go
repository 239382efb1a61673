package kv

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.AtomicStore = (*Memory)(nil)

// Memory almacén en memoria del proceso (tests y demos).
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory construye un almacén vacío.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mapView(m.data).Get(ctx, key)
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mapView(m.data).Set(ctx, key, value)
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mapView(m.data).Delete(ctx, key)
}

// Atomically bloquea el almacén mientras fn se ejecuta y aplica sus escrituras si no falla.
func (m *Memory) Atomically(ctx context.Context, fn func(kv repository.KeyValueStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := NewStaged(mapView(m.data))
	if err := fn(staged); err != nil {
		return err
	}
	applyTo(m.data, staged.Changes())
	return nil
}

// Snapshot copia del contenido (para tests que comparan bytes).
func (m *Memory) Snapshot() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		out[k] = clone(v)
	}
	return out
}

// mapView acceso sin bloqueo a un mapa; el llamador ya tiene el mutex.
type mapView map[string][]byte

func (v mapView) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := v[key]
	return clone(b), ok, nil
}

func (v mapView) Set(_ context.Context, key string, value []byte) error {
	v[key] = clone(value)
	return nil
}

func (v mapView) Delete(_ context.Context, key string) error {
	delete(v, key)
	return nil
}

func applyTo(data map[string][]byte, changes []Change) {
	for _, c := range changes {
		if c.Deleted {
			delete(data, c.Key)
			continue
		}
		data[c.Key] = c.Value
	}
}
