package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (blob users).
type UserRepository interface {
	List(ctx context.Context) ([]entity.User, error)
	// FindByUsername búsqueda sin distinguir mayúsculas; nil, nil si no existe.
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	// Save inserta o reemplaza por Username.
	Save(ctx context.Context, user entity.User) error
	Delete(ctx context.Context, username string) error
}

// SessionRepository perfil del usuario con sesión abierta (blob currentUser).
type SessionRepository interface {
	Current(ctx context.Context) (*entity.Profile, error)
	SetCurrent(ctx context.Context, p entity.Profile) error
	Clear(ctx context.Context) error
}

// AdminListRepository proyección heredada adminUsers. Nunca se lee para autorizar.
type AdminListRepository interface {
	List(ctx context.Context) ([]string, error)
	Save(ctx context.Context, usernames []string) error
}
