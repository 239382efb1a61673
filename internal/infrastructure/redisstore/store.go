// Package redisstore implementa repository.AtomicStore sobre Redis con un prefijo por namespace.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/kv"
	"github.com/jhoicas/stock-ledger/pkg/config"
)

var _ repository.AtomicStore = (*Store)(nil)

// Store blobs como strings Redis bajo "<namespace>:<key>". Atomically serializa los
// read-modify-write del proceso y aplica las escrituras con MULTI/EXEC.
type Store struct {
	client    *redis.Client
	keyPrefix string
	mu        sync.Mutex
}

// New conecta a Redis y verifica la conexión.
func New(ctx context.Context, cfg config.RedisConfig, namespace string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}
	return NewWithClient(client, namespace), nil
}

// NewWithClient construye el almacén con un cliente existente.
func NewWithClient(client *redis.Client, namespace string) *Store {
	prefix := ""
	if namespace != "" {
		prefix = namespace + ":"
	}
	return &Store{client: client, keyPrefix: prefix}
}

func (s *Store) key(k string) string { return s.keyPrefix + k }

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Atomically ejecuta fn sobre una vista diferida y aplica sus escrituras en un pipeline transaccional.
func (s *Store) Atomically(ctx context.Context, fn func(kv repository.KeyValueStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := kv.NewStaged(s)
	if err := fn(staged); err != nil {
		return err
	}
	if !staged.Dirty() {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, c := range staged.Changes() {
			if c.Deleted {
				p.Del(ctx, s.key(c.Key))
				continue
			}
			p.Set(ctx, s.key(c.Key), c.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("aplicar cambios: %w", err)
	}
	return nil
}

// Close cierra el cliente Redis.
func (s *Store) Close() error {
	return s.client.Close()
}
