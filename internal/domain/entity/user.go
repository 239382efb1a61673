package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole indica si role es admin o user.
func ValidRole(role string) bool { return role == RoleAdmin || role == RoleUser }

// User representa una cuenta del sistema.
type User struct {
	Username     string
	PasswordHash string // bcrypt, nunca plano
	Role         string
	CreatedAt    time.Time
}

// Profile perfil público (sin password), el que se guarda en currentUser.
type Profile struct {
	Username  string
	Role      string
	CreatedAt time.Time
}

// Profile devuelve el perfil público del usuario.
func (u User) Profile() Profile {
	return Profile{Username: u.Username, Role: u.Role, CreatedAt: u.CreatedAt}
}

// Principal quien ejecuta una operación (extraído del token).
type Principal struct {
	Username string
	Role     string
}

// IsAdmin indica si el principal tiene rol admin.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
