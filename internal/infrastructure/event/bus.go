// Package event implementa la señal de cambio del libro como pub/sub en memoria.
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Handler reacciona a un cambio de stockData.
type Handler func(ctx context.Context, evt entity.StockDataChanged) error

type subscription struct {
	name    string
	handler Handler
}

// Bus pub/sub síncrono: cada suscriptor se ejecuta en orden de registro y un fallo
// o panic de uno no impide que los demás reciban el evento.
type Bus struct {
	mu   sync.RWMutex
	subs []subscription
	log  *logger.Logger
}

// NewBus construye el bus.
func NewBus(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &Bus{log: log.Named("event")}
}

// Subscribe registra un suscriptor con un nombre para los logs.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{name: name, handler: h})
	b.log.Debug().Str("handler", name).Msg("suscriptor registrado")
}

// Publish entrega evt a todos los suscriptores.
func (b *Bus) Publish(ctx context.Context, evt entity.StockDataChanged) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs...)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := b.dispatch(ctx, s, evt); err != nil {
			b.log.Error().
				Err(err).
				Str("handler", s.name).
				Str("reason", evt.Reason).
				Msg("suscriptor falló al procesar el cambio")
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, s subscription, evt entity.StockDataChanged) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.handler(ctx, evt)
}

var _ ports.EventPublisher = (*Bus)(nil)
