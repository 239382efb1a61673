// Package bootstrap arma los casos de uso sobre el backend configurado. Lo comparten
// el servidor HTTP y la CLI de operación.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/application/dashboard"
	"github.com/jhoicas/stock-ledger/internal/application/export"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/application/notification"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/backend"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/event"
	infraexport "github.com/jhoicas/stock-ledger/internal/infrastructure/export"
	infrapdf "github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/store"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// App casos de uso listos para usar.
type App struct {
	Backend       *backend.Backend
	Bus           *event.Bus
	Auth          *auth.AuthUseCase
	Ledger        *ledger.UseCase
	Dashboard     *dashboard.UseCase
	Export        *export.UseCase
	Notifications *notification.Service
	// Levels instantánea de niveles; nil salvo con backend postgres.
	Levels repository.StockLevelRepository
}

// Build abre el backend y construye los casos de uso. El llamador debe invocar Close.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	be, err := backend.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("abrir backend %s: %w", cfg.Store.Backend, err)
	}

	now := time.Now
	runner := store.NewTxRunner(be.Store, log.Named("store"), now)
	bus := event.NewBus(log)

	notes := notification.NewService(runner, notification.NewLogSink(log), log, now)
	ledgerUC := ledger.NewUseCase(runner, bus, notes, log, now)

	a := &App{
		Backend: be,
		Bus:     bus,
		Auth: auth.NewAuthUseCase(runner, auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		}, log, now),
		Ledger:    ledgerUC,
		Dashboard: dashboard.NewUseCase(ledgerUC),
		Export: export.NewUseCase(ledgerUC, map[export.Format]export.Renderer{
			export.FormatXLSX: infraexport.NewXLSXRenderer(),
			export.FormatPDF:  infrapdf.NewMarotoPDFGenerator(),
			export.FormatXML:  infraexport.NewXMLRenderer(),
		}, notes, log, now),
		Notifications: notes,
	}

	if be.Pool != nil {
		levels := postgres.NewStockLevelRepository(be.Pool, cfg.Store.Namespace)
		snapshot := ledger.NewLevelSnapshot(ledgerUC, levels)
		bus.Subscribe("stock-levels", snapshot.Handle)
		a.Levels = levels
		// Alinear la tabla con el libro actual antes del primer cambio.
		if err := snapshot.Handle(ctx, entity.StockDataChanged{Reason: "startup", At: now()}); err != nil {
			log.Warn().Err(err).Msg("no se pudo inicializar la instantánea de niveles")
		}
	}
	return a, nil
}

// Seed crea la cuenta admin por defecto y reconcilia la lista heredada adminUsers.
func (a *App) Seed(ctx context.Context, cfg config.AdminConfig) (created bool, err error) {
	created, err = a.Auth.EnsureDefaultAdmin(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return false, err
	}
	if _, err := a.Auth.ReconcileAdminList(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// Close libera el backend.
func (a *App) Close() {
	a.Backend.Close()
}
