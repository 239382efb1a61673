package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/application/dashboard"
	"github.com/jhoicas/stock-ledger/internal/application/export"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/application/notification"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	LedgerUC      *ledger.UseCase
	DashboardUC   *dashboard.UseCase
	ExportUC      *export.UseCase
	Notifications *notification.Service
	JWTSecret     string
	Location      *time.Location // zona de los filtros por día; nil usa la local
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	var rep ErrorReporter
	if deps.Notifications != nil {
		rep = deps.Notifications
	}

	// Auth (público; register acepta token opcional para crear admins)
	authHandler := NewAuthHandler(deps.AuthUC, rep)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", OptionalAuth(deps.JWTSecret), authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token y un usuario vigente)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RefreshRole(deps.AuthUC))

	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)

	// Tablero
	dashboardHandler := NewDashboardHandler(deps.DashboardUC, rep)
	protected.Get("/dashboard", dashboardHandler.GetSummary)
	protected.Get("/dashboard/filters", dashboardHandler.GetFilters)

	// Libro de stock; las escrituras pasan además por el control de acceso del caso de uso
	inventoryHandler := NewInventoryHandler(deps.LedgerUC, rep, deps.Location)
	stock := protected.Group("/stock")
	stock.Get("/levels", inventoryHandler.Levels)
	stock.Get("/levels/:itemKey", inventoryHandler.Level)
	stock.Get("/items", inventoryHandler.Items)
	stock.Get("/version", inventoryHandler.Version)
	stock.Get("/movements", inventoryHandler.ListMovements)
	stock.Get("/movements/:id", inventoryHandler.GetMovement)
	stock.Post("/in", inventoryHandler.StockIn)
	stock.Post("/out", inventoryHandler.StockOut)
	stock.Patch("/movements/:id", inventoryHandler.UpdateMovement)
	stock.Delete("/movements/:id", inventoryHandler.DeleteMovement)

	// Notificaciones
	if deps.Notifications != nil {
		notificationHandler := NewNotificationHandler(deps.Notifications)
		protected.Get("/notifications", notificationHandler.List)
		protected.Delete("/notifications/:index", notificationHandler.Dismiss)
		protected.Delete("/notifications", notificationHandler.ClearAll)
	}

	// Exportación
	exportHandler := NewExportHandler(deps.ExportUC, rep)
	protected.Get("/export", exportHandler.Export)

	// Administración (solo admin)
	admin := protected.Group("/admin", RequireRole(entity.RoleAdmin))
	admin.Get("/users", authHandler.ListUsers)
	admin.Patch("/users/:username/role", authHandler.ChangeRole)
	admin.Put("/users/:username/password", authHandler.ResetPassword)
	admin.Delete("/users/:username", authHandler.RemoveUser)
	admin.Get("/activities", authHandler.ListActivities)
}
