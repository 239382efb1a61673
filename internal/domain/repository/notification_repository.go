package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// NotificationRepository registro acotado de notificaciones, la más reciente primero.
type NotificationRepository interface {
	List(ctx context.Context) ([]entity.Notification, error)
	// Prepend inserta al inicio y descarta las más antiguas por encima de limit.
	Prepend(ctx context.Context, n entity.Notification, limit int) error
	// RemoveAt devuelve ErrNotFound si index está fuera de rango.
	RemoveAt(ctx context.Context, index int) error
	Clear(ctx context.Context) error
}

// ActivityRepository bitácora append-only de acciones administrativas.
type ActivityRepository interface {
	Append(ctx context.Context, a entity.Activity) error
	List(ctx context.Context) ([]entity.Activity, error)
}
