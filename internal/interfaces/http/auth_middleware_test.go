package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	apphttp "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "stock-ledger-test"
	testExpMin    = 60
)

// principal respuesta del handler de eco: quién quedó en los locals.
type principal struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func echoPrincipal(c *fiber.Ctx) error {
	return c.JSON(principal{Username: apphttp.GetUsername(c), Role: apphttp.GetRole(c)})
}

func signed(t *testing.T, username, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, username, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return tok
}

func get(t *testing.T, app *fiber.App, path, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Code
}

// directory usuarios vigentes para RefreshRole; err simula un fallo del almacén.
type directory struct {
	roles map[string]string
	err   error
}

func (d *directory) Me(_ context.Context, username string) (*dto.UserResponse, error) {
	if d.err != nil {
		return nil, d.err
	}
	role, ok := d.roles[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &dto.UserResponse{Username: username, Role: role}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_Cabeceras(t *testing.T) {
	app := fiber.New()
	app.Get("/p", apphttp.AuthMiddleware(testJWTSecret), echoPrincipal)
	tok := signed(t, "ana", "admin")

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"sin cabecera", "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"esquema distinto", "Basic " + tok, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"sin token tras el esquema", "Bearer", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"token alterado", "Bearer " + tok + "x", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"bearer en minúsculas", "bearer " + tok, http.StatusOK, ""},
		{"BEARER en mayúsculas", "BEARER " + tok, http.StatusOK, ""},
		{"espacios extra tras el esquema", "Bearer   " + tok, http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := get(t, app, "/p", tc.header)
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)
			if tc.code != "" {
				assert.Equal(t, tc.code, errorCode(t, resp))
				return
			}
			var got principal
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, principal{Username: "ana", Role: "admin"}, got)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// OptionalAuth
// ──────────────────────────────────────────────────────────────────────────────

func TestOptionalAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/p", apphttp.OptionalAuth(testJWTSecret), echoPrincipal)

	t.Run("sin cabecera pasa como anónimo", func(t *testing.T) {
		resp := get(t, app, "/p", "")
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got principal
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Empty(t, got.Username)
		assert.Empty(t, got.Role)
	})

	t.Run("token válido carga el principal", func(t *testing.T) {
		resp := get(t, app, "/p", "Bearer "+signed(t, "ana", "admin"))
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got principal
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, principal{Username: "ana", Role: "admin"}, got)
	})

	t.Run("token inválido se rechaza, no degrada a anónimo", func(t *testing.T) {
		resp := get(t, app, "/p", "Bearer no.es.jwt")
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "INVALID_TOKEN", errorCode(t, resp))
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// RefreshRole + RequireRole
// ──────────────────────────────────────────────────────────────────────────────

func refreshedApp(dir *directory) *fiber.App {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), apphttp.RefreshRole(dir), echoPrincipal)
	app.Get("/admin",
		apphttp.AuthMiddleware(testJWTSecret), apphttp.RefreshRole(dir), apphttp.RequireRole("admin"),
		echoPrincipal)
	return app
}

func TestRefreshRole_DegradacionAplicaConTokenVigente(t *testing.T) {
	dir := &directory{roles: map[string]string{"ana": "admin"}}
	app := refreshedApp(dir)
	tok := "Bearer " + signed(t, "ana", "admin")

	resp := get(t, app, "/admin", tok)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dir.roles["ana"] = "user"

	resp = get(t, app, "/admin", tok)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "el token todavía dice admin")
	assert.Equal(t, "FORBIDDEN", errorCode(t, resp))

	me := get(t, app, "/me", tok)
	defer me.Body.Close()
	var got principal
	require.NoError(t, json.NewDecoder(me.Body).Decode(&got))
	assert.Equal(t, "user", got.Role)
}

func TestRefreshRole_PromocionAplicaConTokenVigente(t *testing.T) {
	dir := &directory{roles: map[string]string{"sam": "admin"}}
	resp := get(t, refreshedApp(dir), "/admin", "Bearer "+signed(t, "sam", "user"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefreshRole_UsuarioEliminado(t *testing.T) {
	dir := &directory{roles: map[string]string{}}
	resp := get(t, refreshedApp(dir), "/me", "Bearer "+signed(t, "ana", "admin"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, resp))
}

func TestRefreshRole_FalloDelAlmacen(t *testing.T) {
	dir := &directory{err: errors.New("kv caído")}
	resp := get(t, refreshedApp(dir), "/me", "Bearer "+signed(t, "ana", "admin"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(t, resp))
}

func TestRequireRole_TokenSinRol(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", apphttp.AuthMiddleware(testJWTSecret), apphttp.RequireRole("admin"), echoPrincipal)

	resp := get(t, app, "/admin", "Bearer "+signed(t, "ana", ""))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_ROLE", errorCode(t, resp))
}
