package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/application/notification"
	"github.com/jhoicas/stock-ledger/internal/application/view"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/kv"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/store"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var (
	admin = entity.Principal{Username: "admin", Role: entity.RoleAdmin}
	sam   = entity.Principal{Username: "sam", Role: entity.RoleUser}
)

type recordedEvents struct {
	mu     sync.Mutex
	events []entity.StockDataChanged
}

func (r *recordedEvents) Publish(_ context.Context, evt entity.StockDataChanged) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

type fixture struct {
	uc     *ledger.UseCase
	mem    *kv.Memory
	sink   *notification.RecordingSink
	events *recordedEvents
	notes  *notification.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := kv.NewMemory()
	tick := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	now := func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	runner := store.NewTxRunner(mem, logger.Nop(), now)
	sink := &notification.RecordingSink{}
	events := &recordedEvents{}
	notes := notification.NewService(runner, sink, logger.Nop(), now)
	return &fixture{
		uc:     ledger.NewUseCase(runner, events, notes, logger.Nop(), now),
		mem:    mem,
		sink:   sink,
		events: events,
		notes:  notes,
	}
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func stockIn(t *testing.T, f *fixture, item string, qty, price int64) *dto.MutationResponse {
	t.Helper()
	out, err := f.uc.StockIn(context.Background(), admin, dto.StockInRequest{
		Item: item, Quantity: dec(qty), UnitPrice: dec(price), Supplier: "ACME", Receiver: "Ana",
	})
	require.NoError(t, err)
	return out
}

func stockOut(f *fixture, item string, qty int64) (*dto.MutationResponse, error) {
	return f.uc.StockOut(context.Background(), admin, dto.StockOutRequest{Item: item, Quantity: dec(qty), Person: "Sam"})
}

// ──────────────────────────────────────────────────────────────────────────────
// Entradas y salidas
// ──────────────────────────────────────────────────────────────────────────────

func TestStockIn_NormalizaClaveYCalculaTotal(t *testing.T) {
	f := newFixture(t)
	out := stockIn(t, f, "  Hex Bolt ", 10, 2)

	assert.Equal(t, "hex bolt", out.Transaction.ItemKey)
	assert.Equal(t, "Hex Bolt", out.Transaction.DisplayName)
	require.NotNil(t, out.Transaction.TotalPrice)
	assert.True(t, dec(20).Equal(*out.Transaction.TotalPrice))
	assert.True(t, dec(10).Equal(out.Level))
	assert.Equal(t, "admin", out.Transaction.CreatedBy)
	assert.Equal(t, "Ana recibió 10 Hex Bolt de ACME", f.sink.Last().Message)
}

func TestStockOut_EjemploBoltYSobregiro(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stockIn(t, f, "bolt", 10, 2)

	out, err := stockOut(f, "Bolt", 3)
	require.NoError(t, err)
	assert.True(t, dec(7).Equal(out.Level))
	assert.Equal(t, "bolt", out.Transaction.DisplayName, "se conserva el primer nombre registrado")

	level, err := f.uc.Level(ctx, "bolt")
	require.NoError(t, err)
	assert.True(t, dec(7).Equal(level.Quantity))

	before := f.mem.Snapshot()
	_, err = stockOut(f, "bolt", 10)
	var bv *domain.BusinessRuleViolation
	require.True(t, errors.As(err, &bv))
	assert.True(t, dec(7).Equal(bv.Available))
	assert.True(t, dec(10).Equal(bv.Requested))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "solo hay 7 disponibles")
	assert.Equal(t, before, f.mem.Snapshot(), "el libro no cambia al rechazar")
}

func TestStockOut_StockBajoGeneraAdvertencia(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stockIn(t, f, "Nut", 6, 1)

	out, err := stockOut(f, "nut", 2)
	require.NoError(t, err)
	assert.True(t, out.LowStock)
	assert.Equal(t, "Advertencia: stock bajo de Nut (4 restantes)", out.Warning)

	list, err := f.notes.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.True(t, list[0].IsWarning, "la advertencia queda en el registro")
	assert.True(t, f.sink.Last().Warning)
}

func TestStockOut_SinStockBajoNoAdvierte(t *testing.T) {
	f := newFixture(t)
	stockIn(t, f, "Nut", 20, 1)
	out, err := stockOut(f, "nut", 2)
	require.NoError(t, err)
	assert.False(t, out.LowStock)
	assert.Empty(t, out.Warning)
}

func TestStock_ValidacionDeEntrada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stockIn(t, f, "bolt", 10, 2)

	cases := map[string]func() error{
		"entrada sin artículo": func() error {
			_, err := f.uc.StockIn(ctx, admin, dto.StockInRequest{Item: "  ", Quantity: dec(1), UnitPrice: dec(1), Supplier: "a", Receiver: "b"})
			return err
		},
		"entrada cantidad cero": func() error {
			_, err := f.uc.StockIn(ctx, admin, dto.StockInRequest{Item: "x", Quantity: dec(0), UnitPrice: dec(1), Supplier: "a", Receiver: "b"})
			return err
		},
		"entrada precio negativo": func() error {
			_, err := f.uc.StockIn(ctx, admin, dto.StockInRequest{Item: "x", Quantity: dec(1), UnitPrice: dec(-1), Supplier: "a", Receiver: "b"})
			return err
		},
		"entrada sin proveedor": func() error {
			_, err := f.uc.StockIn(ctx, admin, dto.StockInRequest{Item: "x", Quantity: dec(1), UnitPrice: dec(1), Receiver: "b"})
			return err
		},
		"salida fraccionaria": func() error {
			_, err := f.uc.StockOut(ctx, admin, dto.StockOutRequest{Item: "bolt", Quantity: decimal.RequireFromString("1.5"), Person: "Sam"})
			return err
		},
		"salida sin persona": func() error {
			_, err := f.uc.StockOut(ctx, admin, dto.StockOutRequest{Item: "bolt", Quantity: dec(1)})
			return err
		},
	}
	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			before := f.mem.Snapshot()
			err := fn()
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve), "%v", err)
			assert.Equal(t, domain.ClassValidation, domain.Classify(err))
			assert.Equal(t, before, f.mem.Snapshot())
		})
	}
}

func TestMutaciones_NoAdminNoCambiaNada(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created := stockIn(t, f, "bolt", 10, 2)
	before := f.mem.Snapshot()

	_, errIn := f.uc.StockIn(ctx, sam, dto.StockInRequest{Item: "x", Quantity: dec(1), UnitPrice: dec(1), Supplier: "a", Receiver: "b"})
	_, errOut := f.uc.StockOut(ctx, sam, dto.StockOutRequest{Item: "bolt", Quantity: dec(1), Person: "Sam"})
	_, errEdit := f.uc.Update(ctx, sam, created.Transaction.ID, dto.TransactionPatch{Quantity: ptr(dec(1))})
	_, errDel := f.uc.Delete(ctx, sam, created.Transaction.ID)

	for _, err := range []error{errIn, errOut, errEdit, errDel} {
		var denied *domain.AuthorizationDenied
		require.True(t, errors.As(err, &denied))
		assert.Equal(t, "sam", denied.Username)
		assert.Equal(t, domain.ClassAuthorization, domain.Classify(err))
	}
	assert.Equal(t, before, f.mem.Snapshot(), "el almacén queda byte a byte igual")
}

// ──────────────────────────────────────────────────────────────────────────────
// Edición y borrado
// ──────────────────────────────────────────────────────────────────────────────

func ptr[T any](v T) *T { return &v }

func TestUpdate_EnSuPosicionPorID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := stockIn(t, f, "bolt", 10, 2)
	stockIn(t, f, "nut", 5, 1)

	out, err := f.uc.Update(ctx, admin, first.Transaction.ID, dto.TransactionPatch{
		Quantity: ptr(dec(12)), UnitPrice: ptr(dec(3)),
	})
	require.NoError(t, err)
	assert.Equal(t, first.Transaction.ID, out.Transaction.ID)
	assert.True(t, dec(36).Equal(*out.Transaction.TotalPrice))
	require.NotNil(t, out.Transaction.UpdatedAt)

	txs, err := f.uc.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, first.Transaction.ID, txs[0].ID, "la posición no cambia")
	assert.True(t, dec(12).Equal(txs[0].Quantity))
}

func TestUpdate_SalidaSeComparaSinContarseASiMisma(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stockIn(t, f, "bolt", 10, 2)
	out, err := stockOut(f, "bolt", 8)
	require.NoError(t, err)

	_, err = f.uc.Update(ctx, admin, out.Transaction.ID, dto.TransactionPatch{Quantity: ptr(dec(10))})
	require.NoError(t, err, "10 disponibles sin contar la propia salida")

	_, err = f.uc.Update(ctx, admin, out.Transaction.ID, dto.TransactionPatch{Quantity: ptr(dec(11))})
	var bv *domain.BusinessRuleViolation
	require.True(t, errors.As(err, &bv))
	assert.True(t, dec(10).Equal(bv.Available))
}

func TestUpdate_CamposDeOtroTipoSonInvalidos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	in := stockIn(t, f, "bolt", 10, 2)

	_, err := f.uc.Update(ctx, admin, in.Transaction.ID, dto.TransactionPatch{Person: ptr("Sam")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Update(ctx, admin, "no-existe", dto.TransactionPatch{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_RestauraAgregados(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stockIn(t, f, "bolt", 10, 2)
	_, err := stockOut(f, "bolt", 3)
	require.NoError(t, err)
	before, err := f.uc.Levels(ctx)
	require.NoError(t, err)

	extra := stockIn(t, f, "Nut", 4, 1)
	deleted, err := f.uc.Delete(ctx, admin, extra.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, extra.Transaction.ID, deleted.ID)

	after, err := f.uc.Levels(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, "Eliminada entrada: 4 Nut", f.sink.Last().Message)

	_, err = f.uc.Delete(ctx, admin, extra.Transaction.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMutaciones_PublicanCambioYRegistranActividad(t *testing.T) {
	f := newFixture(t)
	in := stockIn(t, f, "bolt", 10, 2)
	_, err := stockOut(f, "bolt", 1)
	require.NoError(t, err)
	_, err = f.uc.Delete(context.Background(), admin, in.Transaction.ID)
	require.NoError(t, err)

	require.Len(t, f.events.events, 3)
	assert.Equal(t, entity.ActivityStockIn, f.events.events[0].Reason)
	assert.Equal(t, entity.ActivityStockOut, f.events.events[1].Reason)
	assert.Equal(t, entity.ActivityDelete, f.events.events[2].Reason)

	raw := f.mem.Snapshot()[repository.KeyAdminActivities]
	assert.Contains(t, string(raw), `"type":"stock-in"`)
	assert.Contains(t, string(raw), `"type":"delete"`)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas
// ──────────────────────────────────────────────────────────────────────────────

func TestList_FiltraPorTipoPalabraYFecha(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stockIn(t, f, "bolt", 10, 2)
	stockIn(t, f, "Washer", 3, 1)
	_, err := stockOut(f, "bolt", 1)
	require.NoError(t, err)

	ins, err := f.uc.List(ctx, ledger.ListFilter{Kind: entity.KindIn})
	require.NoError(t, err)
	require.Len(t, ins, 2)
	assert.Equal(t, "Washer", ins[0].DisplayName, "más reciente primero")

	found, err := f.uc.List(ctx, ledger.ListFilter{Keyword: "WASH"})
	require.NoError(t, err)
	require.Len(t, found, 1)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	all, err := f.uc.List(ctx, ledger.ListFilter{Range: view.Range{Start: &day}})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	next := day.AddDate(0, 0, 1)
	none, err := f.uc.List(ctx, ledger.ListFilter{Range: view.Range{Start: &next}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestItemOptions_SoloEntradasOrdenadasConDisponible(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	stockIn(t, f, "washer", 3, 1)
	stockIn(t, f, "Bolt", 10, 2)
	stockIn(t, f, "BOLT", 1, 2)
	_, err := stockOut(f, "bolt", 4)
	require.NoError(t, err)

	opts, err := f.uc.ItemOptions(ctx, "")
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "Bolt", opts[0].DisplayName)
	assert.True(t, dec(7).Equal(opts[0].Available))
	assert.Equal(t, "washer", opts[1].DisplayName)

	opts, err = f.uc.ItemOptions(ctx, "WASH")
	require.NoError(t, err)
	require.Len(t, opts, 1)
}

func TestVersion_CambiaConCadaEscritura(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v0, err := f.uc.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, v0)

	stockIn(t, f, "bolt", 1, 1)
	v1, err := f.uc.Version(ctx)
	require.NoError(t, err)
	assert.Greater(t, v1, v0)
}

func TestLevel_ArticuloDesconocidoEsCero(t *testing.T) {
	f := newFixture(t)
	level, err := f.uc.Level(context.Background(), "Ghost")
	require.NoError(t, err)
	assert.True(t, level.Quantity.IsZero())
	assert.Equal(t, "ghost", level.DisplayName)
	assert.True(t, level.LowStock)
}

// ──────────────────────────────────────────────────────────────────────────────
// Instantánea de niveles
// ──────────────────────────────────────────────────────────────────────────────

type memoryLevels struct{ rows []repository.StockLevel }

func (m *memoryLevels) Refresh(_ context.Context, levels []repository.StockLevel) error {
	m.rows = levels
	return nil
}

func (m *memoryLevels) List(context.Context) ([]repository.StockLevel, error) { return m.rows, nil }

func TestLevelSnapshot_RecalculaNiveles(t *testing.T) {
	f := newFixture(t)
	stockIn(t, f, "Bolt", 10, 2)
	_, err := stockOut(f, "bolt", 3)
	require.NoError(t, err)

	repo := &memoryLevels{}
	snap := ledger.NewLevelSnapshot(f.uc, repo)
	require.NoError(t, snap.Handle(context.Background(), entity.StockDataChanged{}))

	require.Len(t, repo.rows, 1)
	assert.Equal(t, "bolt", repo.rows[0].ItemKey)
	assert.Equal(t, "Bolt", repo.rows[0].DisplayName)
	assert.True(t, dec(7).Equal(repo.rows[0].Quantity))
}
