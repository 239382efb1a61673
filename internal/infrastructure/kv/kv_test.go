package kv_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/kv"
)

// ──────────────────────────────────────────────────────────────────────────────
// Comportamiento común
// ──────────────────────────────────────────────────────────────────────────────

func stores(t *testing.T) map[string]repository.AtomicStore {
	t.Helper()
	f, err := kv.OpenFile(filepath.Join(t.TempDir(), "data.json"), nil)
	require.NoError(t, err)
	return map[string]repository.AtomicStore{
		"memory": kv.NewMemory(),
		"file":   f,
	}
}

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(ctx, "stockData")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, "stockData", []byte(`[]`)))
			v, ok, err := s.Get(ctx, "stockData")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[]`, string(v))

			require.NoError(t, s.Delete(ctx, "stockData"))
			_, ok, _ = s.Get(ctx, "stockData")
			assert.False(t, ok)
		})
	}
}

func TestStore_AtomicallyDescartaEscriturasSiFalla(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "users", []byte(`{}`)))

			err := s.Atomically(ctx, func(v repository.KeyValueStore) error {
				require.NoError(t, v.Set(ctx, "users", []byte(`{"x":1}`)))
				require.NoError(t, v.Set(ctx, "notifications", []byte(`[]`)))
				got, ok, _ := v.Get(ctx, "users")
				assert.True(t, ok)
				assert.Equal(t, `{"x":1}`, string(got), "la vista ve sus propias escrituras")
				return boom
			})
			assert.ErrorIs(t, err, boom)

			got, _, _ := s.Get(ctx, "users")
			assert.Equal(t, `{}`, string(got))
			_, ok, _ := s.Get(ctx, "notifications")
			assert.False(t, ok)
		})
	}
}

func TestStore_AtomicallySerializaReadModifyWrite(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "n", []byte{0}))

			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = s.Atomically(ctx, func(v repository.KeyValueStore) error {
						b, _, _ := v.Get(ctx, "n")
						return v.Set(ctx, "n", []byte{b[0] + 1})
					})
				}()
			}
			wg.Wait()

			b, _, _ := s.Get(ctx, "n")
			assert.Equal(t, byte(50), b[0])
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Archivo
// ──────────────────────────────────────────────────────────────────────────────

func TestFile_PersisteEntreAperturas(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")

	f, err := kv.OpenFile(path, nil)
	require.NoError(t, err)
	require.NoError(t, f.Set(ctx, "stockData", []byte(`[{"id":"1"}]`)))

	again, err := kv.OpenFile(path, nil)
	require.NoError(t, err)
	v, ok, err := again.Get(ctx, "stockData")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, string(v))
}

func TestFile_ArchivoCorruptoArrancaVacio(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{no es json"), 0o600))

	f, err := kv.OpenFile(path, nil)
	require.NoError(t, err)
	_, ok, _ := f.Get(ctx, "stockData")
	assert.False(t, ok)

	_, err = os.Stat(path + ".corrupt")
	assert.NoError(t, err, "el archivo ilegible se conserva aparte")
}
