package ports

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Repositories repositorios ligados a una misma sección crítica del almacén.
type Repositories struct {
	Ledger        repository.LedgerRepository
	Users         repository.UserRepository
	Sessions      repository.SessionRepository
	AdminList     repository.AdminListRepository
	Notifications repository.NotificationRepository
	Activities    repository.ActivityRepository
}

// TxRunner ejecuta fn con repositorios atados a una sección crítica del almacén.
// Las escrituras se aplican solo si fn devuelve nil; lecturas y escrituras de
// llamadas concurrentes a Run quedan serializadas.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repositories) error) error
}

// EventPublisher señal de cambio del libro para vistas independientes.
// Se llama después del commit; un fallo del suscriptor no revierte la mutación.
type EventPublisher interface {
	Publish(ctx context.Context, evt entity.StockDataChanged)
}
