package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/kv"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/store"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

const testSecret = "test-secret-key-for-unit-tests"

var (
	admin = entity.Principal{Username: "admin", Role: entity.RoleAdmin}
	ana   = entity.Principal{Username: "ana", Role: entity.RoleUser}
)

func newAuth(t *testing.T) (*auth.AuthUseCase, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	now := func() time.Time { return time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC) }
	runner := store.NewTxRunner(mem, logger.Nop(), now)
	uc := auth.NewAuthUseCase(runner, auth.JWTConfig{Secret: testSecret, ExpMinutes: 60, Issuer: "test"}, logger.Nop(), now)

	created, err := uc.EnsureDefaultAdmin(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	require.True(t, created)
	return uc, mem
}

func register(t *testing.T, uc *auth.AuthUseCase, username, password string) {
	t.Helper()
	_, err := uc.RegisterUser(context.Background(), nil, dto.RegisterRequest{Username: username, Password: password})
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Gate
// ──────────────────────────────────────────────────────────────────────────────

func TestGate_SoloAdminMuta(t *testing.T) {
	var g auth.Gate
	for _, a := range []auth.Action{auth.ActionStockIn, auth.ActionStockOut, auth.ActionEdit, auth.ActionDelete, auth.ActionAdmin} {
		assert.NoError(t, g.Authorize(admin, a))

		err := g.Authorize(ana, a)
		var denied *domain.AuthorizationDenied
		require.True(t, errors.As(err, &denied), string(a))
		assert.Equal(t, "ana", denied.Username)
		assert.Equal(t, string(a), denied.Action)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro y login
// ──────────────────────────────────────────────────────────────────────────────

func TestEnsureDefaultAdmin_Idempotente(t *testing.T) {
	uc, _ := newAuth(t)
	created, err := uc.EnsureDefaultAdmin(context.Background(), "admin", "otra-clave")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRegister_ReglasBasicas(t *testing.T) {
	ctx := context.Background()
	uc, mem := newAuth(t)

	res, err := uc.RegisterUser(ctx, nil, dto.RegisterRequest{Username: " Ana ", Password: "secreta123"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", res.Username)
	assert.Equal(t, entity.RoleUser, res.Role)

	_, err = uc.RegisterUser(ctx, nil, dto.RegisterRequest{Username: "ANA", Password: "secreta123"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken, "unicidad sin distinguir mayúsculas")

	_, err = uc.RegisterUser(ctx, nil, dto.RegisterRequest{Username: "luis", Password: "corta"})
	assert.ErrorIs(t, err, domain.ErrWeakPassword)

	_, err = uc.RegisterUser(ctx, nil, dto.RegisterRequest{Username: "eva", Password: "secreta123", Role: entity.RoleAdmin})
	var denied *domain.AuthorizationDenied
	assert.True(t, errors.As(err, &denied), "registro público no puede crear admin")

	_, err = uc.RegisterUser(ctx, &admin, dto.RegisterRequest{Username: "eva", Password: "secreta123", Role: entity.RoleAdmin})
	require.NoError(t, err)

	var stored map[string]map[string]any
	require.NoError(t, json.Unmarshal(mem.Snapshot()[repository.KeyUsers], &stored))
	assert.NotEqual(t, "secreta123", stored["Ana"]["password"], "la contraseña se guarda hasheada")

	var admins []string
	require.NoError(t, json.Unmarshal(mem.Snapshot()[repository.KeyAdminUsers], &admins))
	assert.Equal(t, []string{"admin", "eva"}, admins, "adminUsers es proyección de los roles")
}

func TestLogin_TokenYSesion(t *testing.T) {
	ctx := context.Background()
	uc, mem := newAuth(t)
	register(t, uc, "ana", "secreta123")

	out, err := uc.Login(ctx, dto.LoginRequest{Username: "ANA", Password: "secreta123"})
	require.NoError(t, err)
	username, role, err := jwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "ana", username)
	assert.Equal(t, entity.RoleUser, role)

	cur, err := uc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana", cur.Username)
	assert.NotContains(t, string(mem.Snapshot()[repository.KeyCurrentUser]), "password")

	require.NoError(t, uc.Logout(ctx))
	_, err = uc.CurrentUser(ctx)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	ctx := context.Background()
	uc, _ := newAuth(t)

	_, err := uc.Login(ctx, dto.LoginRequest{Username: "admin", Password: "mal"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Username: "nadie", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Administración
// ──────────────────────────────────────────────────────────────────────────────

func TestAdmin_NoAdminDenegado(t *testing.T) {
	ctx := context.Background()
	uc, mem := newAuth(t)
	register(t, uc, "ana", "secreta123")
	before := mem.Snapshot()

	_, err := uc.ListUsers(ctx, ana)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = uc.ChangeRole(ctx, ana, "ana", entity.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, uc.ResetPassword(ctx, ana, "admin", "nueva-clave"), domain.ErrForbidden)
	assert.ErrorIs(t, uc.RemoveUser(ctx, ana, "admin"), domain.ErrForbidden)
	_, err = uc.ListActivities(ctx, ana)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.Equal(t, before, mem.Snapshot(), "el almacén no cambia")
}

func TestAdmin_CambiarRolResetearYEliminar(t *testing.T) {
	ctx := context.Background()
	uc, _ := newAuth(t)
	register(t, uc, "ana", "secreta123")

	res, err := uc.ChangeRole(ctx, admin, "ana", entity.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, res.Role)

	require.NoError(t, uc.ResetPassword(ctx, admin, "ana", "nueva-clave"))
	_, err = uc.Login(ctx, dto.LoginRequest{Username: "ana", Password: "nueva-clave"})
	require.NoError(t, err)

	assert.ErrorIs(t, uc.ResetPassword(ctx, admin, "ana", "corta"), domain.ErrWeakPassword)

	require.NoError(t, uc.RemoveUser(ctx, admin, "ana"))
	assert.ErrorIs(t, uc.RemoveUser(ctx, admin, "ana"), domain.ErrUserNotFound)

	users, err := uc.ListUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 1)

	acts, err := uc.ListActivities(ctx, admin)
	require.NoError(t, err)
	types := make([]string, 0, len(acts))
	for _, a := range acts {
		types = append(types, a.Type)
	}
	assert.Equal(t, []string{entity.ActivityRoleChange, entity.ActivityPasswordReset, entity.ActivityUserRemove}, types)
}

func TestAdmin_NoSeQuedaSinAdmin(t *testing.T) {
	ctx := context.Background()
	uc, _ := newAuth(t)

	_, err := uc.ChangeRole(ctx, admin, "admin", entity.RoleUser)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = uc.RemoveUser(ctx, admin, "admin")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "no puede eliminarse a sí mismo")
}

func TestReconcileAdminList_RolesMandan(t *testing.T) {
	ctx := context.Background()
	uc, mem := newAuth(t)
	register(t, uc, "ana", "secreta123")
	require.NoError(t, mem.Set(ctx, repository.KeyAdminUsers, []byte(`["ana"]`)))

	diff, err := uc.ReconcileAdminList(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ana", "admin"}, diff)

	var admins []string
	require.NoError(t, json.Unmarshal(mem.Snapshot()[repository.KeyAdminUsers], &admins))
	assert.Equal(t, []string{"admin"}, admins)

	_, err = uc.ListUsers(ctx, ana)
	assert.ErrorIs(t, err, domain.ErrForbidden, "adminUsers nunca concede permisos")
}
