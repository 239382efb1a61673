package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/application/validation"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// MinPasswordLength longitud mínima de contraseña.
const MinPasswordLength = 8

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de cuentas: registro, login, sesión y administración de usuarios.
type AuthUseCase struct {
	tx     ports.TxRunner
	jwtCfg JWTConfig
	gate   Gate
	now    func() time.Time
	log    *logger.Logger
}

// NewAuthUseCase construye el caso de uso de auth. now nil usa time.Now.
func NewAuthUseCase(tx ports.TxRunner, jwtCfg JWTConfig, log *logger.Logger, now func() time.Time) *AuthUseCase {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{tx: tx, jwtCfg: jwtCfg, now: now, log: log.Named("auth")}
}

// EnsureDefaultAdmin crea la cuenta admin si no existe. Devuelve true si la creó.
func (uc *AuthUseCase) EnsureDefaultAdmin(ctx context.Context, username, password string) (bool, error) {
	created := false
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		existing, err := r.Users.FindByUsername(ctx, username)
		if err != nil || existing != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := r.Users.Save(ctx, entity.User{
			Username: username, PasswordHash: string(hash), Role: entity.RoleAdmin, CreatedAt: uc.now(),
		}); err != nil {
			return err
		}
		created = true
		return syncAdminList(ctx, r)
	})
	if created {
		uc.log.Info().Str("username", username).Msg("cuenta admin por defecto creada")
	}
	return created, err
}

// RegisterUser crea un usuario con rol user (o admin si quien registra es admin).
// caller nil es el registro público.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, caller *entity.Principal, in dto.RegisterRequest) (*dto.UserResponse, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	role := in.Role
	if role == "" {
		role = entity.RoleUser
	}
	if role == entity.RoleAdmin {
		p := entity.Principal{}
		if caller != nil {
			p = *caller
		}
		if err := uc.gate.Authorize(p, ActionAdmin); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := entity.User{Username: in.Username, PasswordHash: string(hash), Role: role, CreatedAt: uc.now()}

	err = uc.tx.Run(ctx, func(r ports.Repositories) error {
		existing, err := r.Users.FindByUsername(ctx, in.Username)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrUsernameTaken
		}
		if err := r.Users.Save(ctx, user); err != nil {
			return err
		}
		if caller != nil && caller.IsAdmin() {
			if err := uc.activity(ctx, r, *caller, entity.ActivityUserCreate, fmt.Sprintf("creó %s (%s)", user.Username, role)); err != nil {
				return err
			}
		}
		return syncAdminList(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// Login verifica usuario/contraseña, genera JWT y guarda currentUser.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var user *entity.User
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		var err error
		user, err = r.Users.FindByUsername(ctx, strings.TrimSpace(in.Username))
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
			return domain.ErrUnauthorized
		}
		return r.Sessions.SetCurrent(ctx, user.Profile())
	})
	if err != nil {
		return nil, err
	}

	token, err := jwt.Generate(uc.jwtCfg.Secret, user.Username, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, User: *toUserResponse(*user)}, nil
}

// Logout borra currentUser.
func (uc *AuthUseCase) Logout(ctx context.Context) error {
	return uc.tx.Run(ctx, func(r ports.Repositories) error {
		return r.Sessions.Clear(ctx)
	})
}

// CurrentUser perfil de la sesión abierta; ErrUnauthorized si no hay.
func (uc *AuthUseCase) CurrentUser(ctx context.Context) (*dto.UserResponse, error) {
	var out *dto.UserResponse
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		p, err := r.Sessions.Current(ctx)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrUnauthorized
		}
		out = &dto.UserResponse{Username: p.Username, Role: p.Role, CreatedAt: p.CreatedAt}
		return nil
	})
	return out, err
}

// Me perfil actual del usuario del token (el rol puede haber cambiado desde el login).
func (uc *AuthUseCase) Me(ctx context.Context, username string) (*dto.UserResponse, error) {
	var out *dto.UserResponse
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		u, err := r.Users.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrUserNotFound
		}
		out = toUserResponse(*u)
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Administración (solo admin)
// ──────────────────────────────────────────────────────────────────────────────

// ListUsers usuarios sin contraseñas.
func (uc *AuthUseCase) ListUsers(ctx context.Context, p entity.Principal) ([]dto.UserResponse, error) {
	if err := uc.gate.Authorize(p, ActionAdmin); err != nil {
		return nil, err
	}
	var out []dto.UserResponse
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		users, err := r.Users.List(ctx)
		if err != nil {
			return err
		}
		out = make([]dto.UserResponse, 0, len(users))
		for _, u := range users {
			out = append(out, *toUserResponse(u))
		}
		return nil
	})
	return out, err
}

// ChangeRole cambia el rol de username. No se puede dejar el sistema sin admin.
func (uc *AuthUseCase) ChangeRole(ctx context.Context, p entity.Principal, username, role string) (*dto.UserResponse, error) {
	if err := uc.gate.Authorize(p, ActionAdmin); err != nil {
		return nil, err
	}
	if err := validation.Struct(dto.ChangeRoleRequest{Role: role}); err != nil {
		return nil, err
	}
	var out *dto.UserResponse
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		u, err := r.Users.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrUserNotFound
		}
		if u.Role == entity.RoleAdmin && role != entity.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, r, u.Username); err != nil {
				return err
			}
		}
		u.Role = role
		if err := r.Users.Save(ctx, *u); err != nil {
			return err
		}
		if err := uc.activity(ctx, r, p, entity.ActivityRoleChange, fmt.Sprintf("%s ahora es %s", u.Username, role)); err != nil {
			return err
		}
		out = toUserResponse(*u)
		return syncAdminList(ctx, r)
	})
	return out, err
}

// ResetPassword asigna una nueva contraseña a username.
func (uc *AuthUseCase) ResetPassword(ctx context.Context, p entity.Principal, username, password string) error {
	if err := uc.gate.Authorize(p, ActionAdmin); err != nil {
		return err
	}
	if len(password) < MinPasswordLength {
		return domain.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return uc.tx.Run(ctx, func(r ports.Repositories) error {
		u, err := r.Users.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrUserNotFound
		}
		u.PasswordHash = string(hash)
		if err := r.Users.Save(ctx, *u); err != nil {
			return err
		}
		return uc.activity(ctx, r, p, entity.ActivityPasswordReset, "contraseña restablecida para "+u.Username)
	})
}

// RemoveUser elimina username. Un admin no puede eliminarse a sí mismo ni al último admin.
func (uc *AuthUseCase) RemoveUser(ctx context.Context, p entity.Principal, username string) error {
	if err := uc.gate.Authorize(p, ActionAdmin); err != nil {
		return err
	}
	if strings.EqualFold(p.Username, username) {
		return validation.Invalid("No puede eliminar su propia cuenta", "username")
	}
	return uc.tx.Run(ctx, func(r ports.Repositories) error {
		u, err := r.Users.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrUserNotFound
		}
		if u.Role == entity.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, r, u.Username); err != nil {
				return err
			}
		}
		if err := r.Users.Delete(ctx, u.Username); err != nil {
			return err
		}
		if err := uc.activity(ctx, r, p, entity.ActivityUserRemove, "eliminó "+u.Username); err != nil {
			return err
		}
		return syncAdminList(ctx, r)
	})
}

// ListActivities bitácora en orden de registro.
func (uc *AuthUseCase) ListActivities(ctx context.Context, p entity.Principal) ([]dto.ActivityResponse, error) {
	if err := uc.gate.Authorize(p, ActionAdmin); err != nil {
		return nil, err
	}
	var out []dto.ActivityResponse
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		list, err := r.Activities.List(ctx)
		if err != nil {
			return err
		}
		out = make([]dto.ActivityResponse, 0, len(list))
		for _, a := range list {
			out = append(out, dto.ActivityResponse{Action: a.Action, Username: a.Username, Type: a.Type, Timestamp: a.Timestamp})
		}
		return nil
	})
	return out, err
}

// ReconcileAdminList compara la lista heredada adminUsers con los roles, registra
// cada desacuerdo y reescribe la proyección. Los roles mandan.
func (uc *AuthUseCase) ReconcileAdminList(ctx context.Context) ([]string, error) {
	var disagreements []string
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		legacy, err := r.AdminList.List(ctx)
		if err != nil {
			return err
		}
		admins, err := adminNames(ctx, r)
		if err != nil {
			return err
		}
		inRoles := make(map[string]bool, len(admins))
		for _, n := range admins {
			inRoles[strings.ToLower(n)] = true
		}
		inLegacy := make(map[string]bool, len(legacy))
		for _, n := range legacy {
			inLegacy[strings.ToLower(n)] = true
			if !inRoles[strings.ToLower(n)] {
				disagreements = append(disagreements, n)
			}
		}
		for _, n := range admins {
			if !inLegacy[strings.ToLower(n)] {
				disagreements = append(disagreements, n)
			}
		}
		return r.AdminList.Save(ctx, admins)
	})
	for _, n := range disagreements {
		uc.log.Warn().Str("username", n).Msg("adminUsers no coincide con el rol; se conserva el rol")
	}
	return disagreements, err
}

func (uc *AuthUseCase) activity(ctx context.Context, r ports.Repositories, p entity.Principal, kind, action string) error {
	return r.Activities.Append(ctx, entity.Activity{Action: action, Username: p.Username, Type: kind, Timestamp: uc.now()})
}

func adminNames(ctx context.Context, r ports.Repositories) ([]string, error) {
	users, err := r.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0)
	for _, u := range users {
		if u.Role == entity.RoleAdmin {
			names = append(names, u.Username)
		}
	}
	sort.Strings(names)
	return names, nil
}

// syncAdminList reescribe la proyección adminUsers a partir de los roles.
func syncAdminList(ctx context.Context, r ports.Repositories) error {
	names, err := adminNames(ctx, r)
	if err != nil {
		return err
	}
	return r.AdminList.Save(ctx, names)
}

func ensureAnotherAdmin(ctx context.Context, r ports.Repositories, username string) error {
	names, err := adminNames(ctx, r)
	if err != nil {
		return err
	}
	for _, n := range names {
		if !strings.EqualFold(n, username) {
			return nil
		}
	}
	return validation.Invalid("Debe quedar al menos un administrador", "role")
}

func toUserResponse(u entity.User) *dto.UserResponse {
	return &dto.UserResponse{Username: u.Username, Role: u.Role, CreatedAt: u.CreatedAt}
}
