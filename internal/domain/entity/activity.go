package entity

import "time"

// Tipos de actividad administrativa.
const (
	ActivityStockIn       = "stock-in"
	ActivityStockOut      = "stock-out"
	ActivityEdit          = "edit"
	ActivityDelete        = "delete"
	ActivityRoleChange    = "role-change"
	ActivityPasswordReset = "password-reset"
	ActivityUserRemove    = "user-remove"
	ActivityUserCreate    = "user-create"
)

// Activity registro de auditoría (append-only) de una mutación.
type Activity struct {
	Action    string
	Username  string
	Type      string
	Timestamp time.Time
}
