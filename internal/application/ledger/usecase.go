// Package ledger contiene los casos de uso del libro de movimientos: entradas,
// salidas, edición y borrado por id, listados y niveles. Cada mutación pasa por
// el control de acceso, se valida y se ejecuta dentro de una sección crítica del
// almacén (TxRunner.Run) junto con su notificación y su registro de auditoría.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/notification"
	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/application/validation"
	"github.com/jhoicas/stock-ledger/internal/application/view"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/stock"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Notifier destino de los avisos efímeros tras una mutación confirmada.
type Notifier interface {
	Toast(message string, warning, prominent bool)
}

// UseCase casos de uso del libro.
type UseCase struct {
	tx       ports.TxRunner
	events   ports.EventPublisher
	notifier Notifier
	gate     auth.Gate
	now      func() time.Time
	log      *logger.Logger
}

// NewUseCase construye el caso de uso. events y notifier pueden ser nil; now nil usa time.Now.
func NewUseCase(tx ports.TxRunner, events ports.EventPublisher, notifier Notifier, log *logger.Logger, now func() time.Time) *UseCase {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{tx: tx, events: events, notifier: notifier, now: now, log: log.Named("ledger")}
}

// mutation lo que una operación deja para después del commit.
type mutation struct {
	activity string
	messages []entity.Notification
}

// ──────────────────────────────────────────────────────────────────────────────
// Entradas y salidas
// ──────────────────────────────────────────────────────────────────────────────

// StockIn registra una entrada. Requiere artículo, cantidad y precio positivos,
// proveedor y receptor; el total es cantidad * precio unitario.
func (uc *UseCase) StockIn(ctx context.Context, p entity.Principal, in dto.StockInRequest) (*dto.MutationResponse, error) {
	if err := uc.gate.Authorize(p, auth.ActionStockIn); err != nil {
		return nil, err
	}
	in = trimStockIn(in)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := uc.now()
	t := entity.Transaction{
		ID:          uuid.New().String(),
		Kind:        entity.KindIn,
		ItemKey:     stock.NormalizeKey(in.Item),
		DisplayName: in.Item,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		TotalPrice:  in.Quantity.Mul(in.UnitPrice),
		Supplier:    in.Supplier,
		Receiver:    in.Receiver,
		Note:        in.Note,
		OccurredAt:  occurredAt(in.OccurredAt, now),
		CreatedBy:   p.Username,
	}

	var level decimal.Decimal
	m := mutation{activity: entity.ActivityStockIn}
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		txs, err := r.Ledger.List(ctx)
		if err != nil {
			return err
		}
		if err := r.Ledger.Append(ctx, t); err != nil {
			return err
		}
		level = stock.CurrentStock(append(txs, t), t.ItemKey)

		m.messages = []entity.Notification{{
			Message:   fmt.Sprintf("%s recibió %s %s de %s", t.Receiver, t.Quantity.String(), t.DisplayName, t.Supplier),
			Timestamp: now,
		}}
		return uc.record(ctx, r, p, m, fmt.Sprintf("Entrada: %s %s", t.Quantity.String(), t.DisplayName), now)
	})
	if err != nil {
		return nil, err
	}
	uc.afterCommit(ctx, m, now)

	return &dto.MutationResponse{Transaction: TransactionResponse(t), Level: level, LowStock: stock.IsLow(level)}, nil
}

// StockOut registra una salida. La cantidad debe ser entera y no puede superar el
// stock disponible del artículo: un sobregiro devuelve *domain.BusinessRuleViolation
// con la cantidad disponible y deja el libro intacto. Si el nivel resultante queda
// por debajo de stock.LowStockThreshold se añade una advertencia no bloqueante.
func (uc *UseCase) StockOut(ctx context.Context, p entity.Principal, in dto.StockOutRequest) (*dto.MutationResponse, error) {
	if err := uc.gate.Authorize(p, auth.ActionStockOut); err != nil {
		return nil, err
	}
	in = trimStockOut(in)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := uc.now()
	key := stock.NormalizeKey(in.Item)

	var (
		t     entity.Transaction
		level decimal.Decimal
		warn  string
	)
	m := mutation{activity: entity.ActivityStockOut}
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		txs, err := r.Ledger.List(ctx)
		if err != nil {
			return err
		}
		t = entity.Transaction{
			ID:          uuid.New().String(),
			Kind:        entity.KindOut,
			ItemKey:     key,
			DisplayName: displayNameOr(txs, key, in.Item),
			Quantity:    in.Quantity,
			Person:      in.Person,
			Reason:      in.Reason,
			Note:        in.Note,
			OccurredAt:  occurredAt(in.OccurredAt, now),
			CreatedBy:   p.Username,
		}
		if err := checkAvailable(txs, t); err != nil {
			return err
		}
		if err := r.Ledger.Append(ctx, t); err != nil {
			return err
		}
		level = stock.CurrentStock(append(txs, t), key)

		m.messages = []entity.Notification{{Message: outMessage(t), Timestamp: now}}
		if stock.IsLow(level) {
			warn = lowStockMessage(t.DisplayName, level)
			m.messages = append(m.messages, entity.Notification{Message: warn, IsWarning: true, Timestamp: now})
		}
		return uc.record(ctx, r, p, m, fmt.Sprintf("Salida: %s %s", t.Quantity.String(), t.DisplayName), now)
	})
	if err != nil {
		return nil, err
	}
	uc.afterCommit(ctx, m, now)

	return &dto.MutationResponse{
		Transaction: TransactionResponse(t),
		Level:       level,
		LowStock:    stock.IsLow(level),
		Warning:     warn,
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Edición y borrado
// ──────────────────────────────────────────────────────────────────────────────

// Update aplica patch sobre el movimiento id en su posición. El resultado se valida
// con las mismas reglas que una alta; una salida editada se compara con el stock
// disponible sin contar el propio movimiento.
func (uc *UseCase) Update(ctx context.Context, p entity.Principal, id string, patch dto.TransactionPatch) (*dto.MutationResponse, error) {
	if err := uc.gate.Authorize(p, auth.ActionEdit); err != nil {
		return nil, err
	}

	now := uc.now()
	var (
		t     entity.Transaction
		level decimal.Decimal
		warn  string
	)
	m := mutation{activity: entity.ActivityEdit}
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		txs, err := r.Ledger.List(ctx)
		if err != nil {
			return err
		}
		current, ok := find(txs, id)
		if !ok {
			return domain.ErrNotFound
		}
		others := stock.Without(txs, id)

		t, err = applyPatch(current, patch)
		if err != nil {
			return err
		}
		if t.ItemKey != current.ItemKey {
			t.DisplayName = displayNameOr(others, t.ItemKey, t.DisplayName)
		}
		if t.IsOut() {
			if err := checkAvailable(others, t); err != nil {
				return err
			}
		}
		updated := now
		t.UpdatedAt = &updated
		if err := r.Ledger.Replace(ctx, t); err != nil {
			return err
		}

		level = stock.CurrentStock(append(others, t), t.ItemKey)
		m.messages = []entity.Notification{{
			Message:   fmt.Sprintf("Movimiento actualizado: %s %s", t.Quantity.String(), t.DisplayName),
			Timestamp: now,
		}}
		if t.IsOut() && stock.IsLow(level) {
			warn = lowStockMessage(t.DisplayName, level)
			m.messages = append(m.messages, entity.Notification{Message: warn, IsWarning: true, Timestamp: now})
		}
		return uc.record(ctx, r, p, m, fmt.Sprintf("Edición %s: %s %s", kindLabel(t.Kind), t.Quantity.String(), t.DisplayName), now)
	})
	if err != nil {
		return nil, err
	}
	uc.afterCommit(ctx, m, now)

	return &dto.MutationResponse{
		Transaction: TransactionResponse(t),
		Level:       level,
		LowStock:    stock.IsLow(level),
		Warning:     warn,
	}, nil
}

// Delete elimina el movimiento id y lo devuelve.
func (uc *UseCase) Delete(ctx context.Context, p entity.Principal, id string) (*dto.TransactionResponse, error) {
	if err := uc.gate.Authorize(p, auth.ActionDelete); err != nil {
		return nil, err
	}

	now := uc.now()
	var deleted *entity.Transaction
	m := mutation{activity: entity.ActivityDelete}
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		var err error
		deleted, err = r.Ledger.Delete(ctx, id)
		if err != nil {
			return err
		}
		m.messages = []entity.Notification{{
			Message:   fmt.Sprintf("Eliminada %s: %s %s", kindLabel(deleted.Kind), deleted.Quantity.String(), deleted.Label()),
			Timestamp: now,
		}}
		return uc.record(ctx, r, p, m, m.messages[0].Message, now)
	})
	if err != nil {
		return nil, err
	}
	uc.afterCommit(ctx, m, now)

	out := TransactionResponse(*deleted)
	return &out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas (sin control de acceso)
// ──────────────────────────────────────────────────────────────────────────────

// Transactions libro completo en orden de inserción.
func (uc *UseCase) Transactions(ctx context.Context) ([]entity.Transaction, error) {
	var txs []entity.Transaction
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		var err error
		txs, err = r.Ledger.List(ctx)
		return err
	})
	return txs, err
}

// Get movimiento por id (ErrNotFound si no existe).
func (uc *UseCase) Get(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	txs, err := uc.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	t, ok := find(txs, id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := TransactionResponse(t)
	return &out, nil
}

// ListFilter filtro de los listados de entradas y salidas.
type ListFilter struct {
	Kind    entity.Kind // vacío: ambos tipos
	Keyword string      // subcadena sin distinguir mayúsculas
	Range   view.Range
}

// List movimientos que cumplen f, del más reciente al más antiguo.
func (uc *UseCase) List(ctx context.Context, f ListFilter) ([]dto.TransactionResponse, error) {
	txs, err := uc.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))

	out := make([]dto.TransactionResponse, 0)
	for i := len(txs) - 1; i >= 0; i-- {
		t := txs[i]
		if f.Kind != "" && t.Kind != f.Kind {
			continue
		}
		if f.Range.Active() && (t.OccurredAt.IsZero() || !f.Range.Contains(t.OccurredAt)) {
			continue
		}
		if keyword != "" && !strings.Contains(searchText(t), keyword) {
			continue
		}
		out = append(out, TransactionResponse(t))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return occurred(out[i]).After(occurred(out[j]))
	})
	return out, nil
}

// Levels nivel de cada artículo en orden de primera aparición.
func (uc *UseCase) Levels(ctx context.Context) ([]dto.StockLevelDTO, error) {
	txs, err := uc.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	return levelRows(txs, stock.AllStockLevels(txs).Keys()), nil
}

// Level nivel de un artículo; cero para artículos desconocidos.
func (uc *UseCase) Level(ctx context.Context, itemKey string) (*dto.StockLevelDTO, error) {
	txs, err := uc.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	key := stock.NormalizeKey(itemKey)
	level := stock.CurrentStock(txs, key)
	return &dto.StockLevelDTO{
		ItemKey:     key,
		DisplayName: stock.DisplayNameFor(txs, key),
		Quantity:    level,
		LowStock:    stock.IsLow(level),
	}, nil
}

// ItemOptions artículos con alguna entrada, ordenados por nombre, con su disponible.
// search filtra por subcadena del nombre sin distinguir mayúsculas.
func (uc *UseCase) ItemOptions(ctx context.Context, search string) ([]dto.ItemOptionDTO, error) {
	txs, err := uc.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	levels := stock.AllStockLevels(txs)
	search = strings.ToLower(strings.TrimSpace(search))

	seen := make(map[string]bool)
	out := make([]dto.ItemOptionDTO, 0)
	for _, t := range txs {
		if !t.IsIn() || seen[t.ItemKey] {
			continue
		}
		seen[t.ItemKey] = true
		name := stock.DisplayNameFor(txs, t.ItemKey)
		if search != "" && !strings.Contains(strings.ToLower(name), search) {
			continue
		}
		out = append(out, dto.ItemOptionDTO{ItemKey: t.ItemKey, DisplayName: name, Available: levels.Get(t.ItemKey)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
	})
	return out, nil
}

// Version marca de cambio de stockData para detectar escrituras de otros clientes.
func (uc *UseCase) Version(ctx context.Context) (int64, error) {
	var v int64
	err := uc.tx.Run(ctx, func(r ports.Repositories) error {
		var err error
		v, err = r.Ledger.Version(ctx)
		return err
	})
	return v, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

// record persiste notificaciones y actividad dentro de la sección crítica.
func (uc *UseCase) record(ctx context.Context, r ports.Repositories, p entity.Principal, m mutation, action string, now time.Time) error {
	for _, n := range m.messages {
		if err := notification.Record(ctx, r.Notifications, n); err != nil {
			return err
		}
	}
	return r.Activities.Append(ctx, entity.Activity{Action: action, Username: p.Username, Type: m.activity, Timestamp: now})
}

// afterCommit muestra los toasts y publica la señal de cambio.
func (uc *UseCase) afterCommit(ctx context.Context, m mutation, now time.Time) {
	if uc.notifier != nil {
		for _, n := range m.messages {
			uc.notifier.Toast(n.Message, n.IsWarning, false)
		}
	}
	if uc.events != nil {
		uc.events.Publish(ctx, entity.StockDataChanged{Reason: m.activity, At: now})
	}
	uc.log.Debug().Str("activity", m.activity).Msg("libro actualizado")
}

// checkAvailable rechaza una salida mayor que el stock de txs.
func checkAvailable(txs []entity.Transaction, t entity.Transaction) error {
	available := stock.CurrentStock(txs, t.ItemKey)
	if t.Quantity.GreaterThan(available) {
		return &domain.BusinessRuleViolation{
			ItemKey:     t.ItemKey,
			DisplayName: t.DisplayName,
			Requested:   t.Quantity,
			Available:   available,
		}
	}
	return nil
}

// applyPatch aplica los campos presentes y revalida el resultado.
func applyPatch(t entity.Transaction, patch dto.TransactionPatch) (entity.Transaction, error) {
	if patch.Item != nil {
		t.DisplayName = strings.TrimSpace(*patch.Item)
		t.ItemKey = stock.NormalizeKey(t.DisplayName)
	}
	if patch.Quantity != nil {
		t.Quantity = *patch.Quantity
	}
	if patch.Note != nil {
		t.Note = strings.TrimSpace(*patch.Note)
	}
	if patch.OccurredAt != nil {
		t.OccurredAt = *patch.OccurredAt
	}

	switch t.Kind {
	case entity.KindIn:
		if patch.Person != nil || patch.Reason != nil {
			return t, validation.Invalid("Una entrada no tiene persona ni motivo", "person", "reason")
		}
		if patch.UnitPrice != nil {
			t.UnitPrice = *patch.UnitPrice
		}
		if patch.Supplier != nil {
			t.Supplier = strings.TrimSpace(*patch.Supplier)
		}
		if patch.Receiver != nil {
			t.Receiver = strings.TrimSpace(*patch.Receiver)
		}
		t.TotalPrice = t.Quantity.Mul(t.UnitPrice)
		return t, validation.Struct(dto.StockInRequest{
			Item: t.DisplayName, Quantity: t.Quantity, UnitPrice: t.UnitPrice,
			Supplier: t.Supplier, Receiver: t.Receiver,
		})
	case entity.KindOut:
		if patch.UnitPrice != nil || patch.Supplier != nil || patch.Receiver != nil {
			return t, validation.Invalid("Una salida no tiene precio, proveedor ni receptor", "unit_price", "supplier", "receiver")
		}
		if patch.Person != nil {
			t.Person = strings.TrimSpace(*patch.Person)
		}
		if patch.Reason != nil {
			t.Reason = strings.TrimSpace(*patch.Reason)
		}
		return t, validation.Struct(dto.StockOutRequest{Item: t.DisplayName, Quantity: t.Quantity, Person: t.Person})
	}
	return t, domain.ErrInvalidInput
}

func trimStockIn(in dto.StockInRequest) dto.StockInRequest {
	in.Item = strings.TrimSpace(in.Item)
	in.Supplier = strings.TrimSpace(in.Supplier)
	in.Receiver = strings.TrimSpace(in.Receiver)
	in.Note = strings.TrimSpace(in.Note)
	return in
}

func trimStockOut(in dto.StockOutRequest) dto.StockOutRequest {
	in.Item = strings.TrimSpace(in.Item)
	in.Person = strings.TrimSpace(in.Person)
	in.Reason = strings.TrimSpace(in.Reason)
	in.Note = strings.TrimSpace(in.Note)
	return in
}

func occurredAt(at *time.Time, now time.Time) time.Time {
	if at != nil && !at.IsZero() {
		return *at
	}
	return now
}

// displayNameOr nombre ya registrado para key; fallback si el artículo es nuevo.
func displayNameOr(txs []entity.Transaction, key, fallback string) string {
	for _, t := range txs {
		if t.ItemKey == key {
			return t.Label()
		}
	}
	return fallback
}

func find(txs []entity.Transaction, id string) (entity.Transaction, bool) {
	for _, t := range txs {
		if t.ID == id {
			return t, true
		}
	}
	return entity.Transaction{}, false
}

func outMessage(t entity.Transaction) string {
	msg := fmt.Sprintf("%s retiró %s %s", t.Person, t.Quantity.String(), t.DisplayName)
	if t.Reason != "" {
		msg += " (" + t.Reason + ")"
	}
	return msg
}

func lowStockMessage(name string, level decimal.Decimal) string {
	return fmt.Sprintf("Advertencia: stock bajo de %s (%s restantes)", name, level.String())
}

func kindLabel(k entity.Kind) string {
	if k == entity.KindIn {
		return "entrada"
	}
	return "salida"
}

func searchText(t entity.Transaction) string {
	parts := []string{
		t.DisplayName, t.ItemKey, t.Quantity.String(), t.Supplier, t.Receiver,
		t.Person, t.Reason, t.Note, t.DisplayDate(), t.DisplayTime(),
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func occurred(r dto.TransactionResponse) time.Time {
	if r.OccurredAt == nil {
		return time.Time{}
	}
	return *r.OccurredAt
}

func levelRows(txs []entity.Transaction, keys []string) []dto.StockLevelDTO {
	levels := stock.AllStockLevels(txs)
	out := make([]dto.StockLevelDTO, 0, len(keys))
	for _, k := range keys {
		q := levels.Get(k)
		out = append(out, dto.StockLevelDTO{
			ItemKey:     k,
			DisplayName: stock.DisplayNameFor(txs, k),
			Quantity:    q,
			LowStock:    stock.IsLow(q),
		})
	}
	return out
}

// TransactionResponse convierte un movimiento en su DTO de salida.
func TransactionResponse(t entity.Transaction) dto.TransactionResponse {
	out := dto.TransactionResponse{
		ID:          t.ID,
		Kind:        string(t.Kind),
		ItemKey:     t.ItemKey,
		DisplayName: t.Label(),
		Quantity:    t.Quantity,
		Supplier:    t.Supplier,
		Receiver:    t.Receiver,
		Person:      t.Person,
		Reason:      t.Reason,
		Note:        t.Note,
		UpdatedAt:   t.UpdatedAt,
		Date:        t.DisplayDate(),
		Time:        t.DisplayTime(),
		CreatedBy:   t.CreatedBy,
	}
	if !t.OccurredAt.IsZero() {
		at := t.OccurredAt
		out.OccurredAt = &at
	}
	if t.IsIn() {
		unit, total := t.UnitPrice, t.TotalPrice
		out.UnitPrice = &unit
		out.TotalPrice = &total
	}
	return out
}
