package repository

import "context"

// Claves de los blobs persistidos.
const (
	KeyStockData        = "stockData"
	KeyStockDataUpdated = "stockDataUpdated"
	KeyUsers            = "users"
	KeyCurrentUser      = "currentUser"
	KeyAdminUsers       = "adminUsers"
	KeyNotifications    = "notifications"
	KeyAdminActivities  = "adminActivities"
)

// KeyValueStore almacén de blobs opacos por clave (memoria, archivo, PostgreSQL o Redis).
type KeyValueStore interface {
	// Get devuelve el valor y si existe.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// AtomicStore ejecuta un read-modify-write en sección crítica: fn recibe una vista
// ligada a la sección y sus escrituras se aplican solo si fn devuelve nil.
type AtomicStore interface {
	KeyValueStore
	Atomically(ctx context.Context, fn func(kv KeyValueStore) error) error
}
