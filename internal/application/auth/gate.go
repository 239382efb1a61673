package auth

import (
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Action operación sujeta al control de acceso.
type Action string

// Acciones que mutan el libro o la administración; solo admin.
const (
	ActionStockIn  Action = "stock-in"
	ActionStockOut Action = "stock-out"
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
	ActionAdmin    Action = "admin"
)

// Gate control de capacidades por rol sobre el Principal recibido; no consulta el
// almacén. En HTTP el rol del Principal lo refresca RefreshRole en cada petición,
// de modo que un cambio de rol aplica antes de que expire el token.
type Gate struct{}

// Authorize nil si p puede ejecutar a; *domain.AuthorizationDenied si no.
// Las lecturas no pasan por aquí.
func (Gate) Authorize(p entity.Principal, a Action) error {
	if p.IsAdmin() {
		return nil
	}
	return &domain.AuthorizationDenied{Username: p.Username, Action: string(a)}
}
