package event_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/event"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func TestBus_EntregaATodosEnOrden(t *testing.T) {
	bus := event.NewBus(logger.Nop())
	var got []string
	bus.Subscribe("a", func(_ context.Context, e entity.StockDataChanged) error {
		got = append(got, "a:"+e.Reason)
		return nil
	})
	bus.Subscribe("b", func(_ context.Context, e entity.StockDataChanged) error {
		got = append(got, "b:"+e.Reason)
		return nil
	})

	bus.Publish(context.Background(), entity.StockDataChanged{Reason: entity.ActivityStockIn, At: time.Now()})
	assert.Equal(t, []string{"a:stock-in", "b:stock-in"}, got)
}

func TestBus_FalloOPanicNoCortaLaEntrega(t *testing.T) {
	var buf bytes.Buffer
	bus := event.NewBus(logger.New(logger.Config{Env: "production", Level: "error", Output: &buf}))

	reached := false
	bus.Subscribe("falla", func(context.Context, entity.StockDataChanged) error { return errors.New("sin conexión") })
	bus.Subscribe("panic", func(context.Context, entity.StockDataChanged) error { panic("boom") })
	bus.Subscribe("ok", func(context.Context, entity.StockDataChanged) error {
		reached = true
		return nil
	})

	bus.Publish(context.Background(), entity.StockDataChanged{Reason: entity.ActivityDelete})
	assert.True(t, reached)
	assert.Contains(t, buf.String(), "sin conexión")
	assert.Contains(t, buf.String(), "panic: boom")
}
