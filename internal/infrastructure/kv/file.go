package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var _ repository.AtomicStore = (*File)(nil)

// File almacén persistido en un único archivo JSON {clave: blob}. Cada escritura
// reescribe el archivo con un rename atómico.
type File struct {
	mu   sync.Mutex
	path string
	data map[string][]byte
	log  *logger.Logger
}

// OpenFile carga path (o empieza vacío si no existe). Un archivo ilegible se aparta
// como <path>.corrupt y el almacén arranca vacío.
func OpenFile(path string, log *logger.Logger) (*File, error) {
	if log == nil {
		log = logger.Nop()
	}
	f := &File{path: path, data: make(map[string][]byte), log: log}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leer %s: %w", path, err)
	}
	if len(raw) == 0 {
		return f, nil
	}

	var blobs map[string]string
	if err := json.Unmarshal(raw, &blobs); err != nil {
		corrupt := &domain.StorageCorruption{Key: path, Err: err}
		log.Warn().Err(corrupt).Str("path", path).Msg("archivo de datos ilegible, se inicia vacío")
		if rerr := os.Rename(path, path+".corrupt"); rerr != nil {
			return nil, fmt.Errorf("apartar archivo corrupto: %w", rerr)
		}
		return f, nil
	}
	for k, v := range blobs {
		f.data[k] = []byte(v)
	}
	return f, nil
}

// Path ruta del archivo.
func (f *File) Path() string { return f.path }

func (f *File) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return mapView(f.data).Get(ctx, key)
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	return f.Atomically(ctx, func(kv repository.KeyValueStore) error {
		return kv.Set(ctx, key, value)
	})
}

func (f *File) Delete(ctx context.Context, key string) error {
	return f.Atomically(ctx, func(kv repository.KeyValueStore) error {
		return kv.Delete(ctx, key)
	})
}

// Atomically serializa fn; si falla, ni la memoria ni el archivo cambian.
func (f *File) Atomically(ctx context.Context, fn func(kv repository.KeyValueStore) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	staged := NewStaged(mapView(f.data))
	if err := fn(staged); err != nil {
		return err
	}
	if !staged.Dirty() {
		return nil
	}

	next := make(map[string][]byte, len(f.data))
	for k, v := range f.data {
		next[k] = v
	}
	applyTo(next, staged.Changes())
	if err := f.flush(next); err != nil {
		return err
	}
	f.data = next
	return nil
}

func (f *File) flush(data map[string][]byte) error {
	blobs := make(map[string]string, len(data))
	for k, v := range data {
		blobs[k] = string(v)
	}
	raw, err := json.MarshalIndent(blobs, "", "  ")
	if err != nil {
		return fmt.Errorf("serializar almacén: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("crear temporal: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("escribir temporal: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cerrar temporal: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("reemplazar %s: %w", f.path, err)
	}
	return nil
}
