package dto

import "time"

// RegisterRequest entrada para registro de usuario.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ChangeRoleRequest body para PATCH /api/admin/users/:username/role.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}

// ResetPasswordRequest body para PUT /api/admin/users/:username/password.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// ActivityResponse entrada de la bitácora administrativa.
type ActivityResponse struct {
	Action    string    `json:"action"`
	Username  string    `json:"username"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
