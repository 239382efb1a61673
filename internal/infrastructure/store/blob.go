// Package store implementa los repositorios del dominio como blobs JSON sobre un
// repository.KeyValueStore, con el mismo formato de claves que el almacén original.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// readBlob decodifica key en T. Un blob ausente o vacío devuelve (cero, false, nil);
// uno ilegible se registra como StorageCorruption y también devuelve la colección vacía.
func readBlob[T any](ctx context.Context, kv repository.KeyValueStore, key string, log *logger.Logger) (T, bool, error) {
	var out T
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return out, false, fmt.Errorf("leer %s: %w", key, err)
	}
	raw = bytes.TrimSpace(raw)
	if !ok || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, false, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		var zero T
		log.Warn().
			Err(&domain.StorageCorruption{Key: key, Err: err}).
			Str("key", key).
			Msg("blob ilegible, se usa colección vacía")
		return zero, false, nil
	}
	return out, true, nil
}

func writeBlob(ctx context.Context, kv repository.KeyValueStore, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serializar %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("escribir %s: %w", key, err)
	}
	return nil
}
