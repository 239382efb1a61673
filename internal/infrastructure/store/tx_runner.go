package store

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una sección crítica del almacén.
type TxRunner struct {
	kv  repository.AtomicStore
	log *logger.Logger
	now func() time.Time
}

// NewTxRunner construye el runner. now nil usa time.Now.
func NewTxRunner(kv repository.AtomicStore, log *logger.Logger, now func() time.Time) *TxRunner {
	if log == nil {
		log = logger.Nop()
	}
	if now == nil {
		now = time.Now
	}
	return &TxRunner{kv: kv, log: log.Named("store"), now: now}
}

// Run abre la sección crítica, ejecuta fn con repos atados a ella y aplica o descarta.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ports.Repositories) error) error {
	return r.kv.Atomically(ctx, func(view repository.KeyValueStore) error {
		return fn(Bind(view, r.log, r.now))
	})
}

// Bind construye los repositorios sobre kv (fuera de una sección crítica, para lecturas sueltas).
func Bind(kv repository.KeyValueStore, log *logger.Logger, now func() time.Time) ports.Repositories {
	if log == nil {
		log = logger.Nop()
	}
	if now == nil {
		now = time.Now
	}
	return ports.Repositories{
		Ledger:        NewLedgerRepository(kv, log, now),
		Users:         NewUserRepository(kv, log),
		Sessions:      NewSessionRepository(kv, log),
		AdminList:     NewAdminListRepository(kv, log),
		Notifications: NewNotificationRepository(kv, log),
		Activities:    NewActivityRepository(kv, log),
	}
}
