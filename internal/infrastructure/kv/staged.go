// Package kv contiene los almacenes clave-valor locales (memoria y archivo JSON) y la
// vista con escrituras diferidas que usan los backends sin transacciones nativas.
package kv

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.KeyValueStore = (*Staged)(nil)

// Staged vista sobre un almacén base que acumula escrituras hasta Apply.
// No es segura para uso concurrente; vive dentro de una sección crítica.
type Staged struct {
	base    repository.KeyValueStore
	writes  map[string][]byte
	deleted map[string]bool
}

// NewStaged construye la vista sobre base.
func NewStaged(base repository.KeyValueStore) *Staged {
	return &Staged{
		base:    base,
		writes:  make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

// Get lee primero las escrituras pendientes y luego el almacén base.
func (s *Staged) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.deleted[key] {
		return nil, false, nil
	}
	if v, ok := s.writes[key]; ok {
		return clone(v), true, nil
	}
	return s.base.Get(ctx, key)
}

// Set registra la escritura sin tocar el almacén base.
func (s *Staged) Set(_ context.Context, key string, value []byte) error {
	s.writes[key] = clone(value)
	delete(s.deleted, key)
	return nil
}

// Delete registra el borrado sin tocar el almacén base.
func (s *Staged) Delete(_ context.Context, key string) error {
	delete(s.writes, key)
	s.deleted[key] = true
	return nil
}

// Dirty indica si hay escrituras pendientes.
func (s *Staged) Dirty() bool { return len(s.writes) > 0 || len(s.deleted) > 0 }

// Change escritura pendiente; Value nil con Deleted true es un borrado.
type Change struct {
	Key     string
	Value   []byte
	Deleted bool
}

// Changes escrituras pendientes ordenadas por clave.
func (s *Staged) Changes() []Change {
	out := make([]Change, 0, len(s.writes)+len(s.deleted))
	for k, v := range s.writes {
		out = append(out, Change{Key: k, Value: clone(v)})
	}
	for k := range s.deleted {
		out = append(out, Change{Key: k, Deleted: true})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
