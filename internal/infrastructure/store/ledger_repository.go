package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo implementación de LedgerRepository sobre el blob stockData.
type LedgerRepo struct {
	kv  repository.KeyValueStore
	log *logger.Logger
	now func() time.Time
}

// NewLedgerRepository construye el repositorio. Pasar el almacén o la vista de una sección crítica.
func NewLedgerRepository(kv repository.KeyValueStore, log *logger.Logger, now func() time.Time) *LedgerRepo {
	return &LedgerRepo{kv: kv, log: log, now: now}
}

// entry elemento de stockData. Si raw no está vacío se reescribe tal cual: elementos
// que no son movimientos legibles (ok=false, no se exponen) o que perderían campos
// al recodificarse.
type entry struct {
	tx  entity.Transaction
	raw json.RawMessage
	ok  bool
}

// load lee stockData sin descartar nada. rewrite indica que hay registros heredados
// o ids derivados pendientes de persistir.
func (r *LedgerRepo) load(ctx context.Context) (entries []entry, rewrite bool, err error) {
	raws, _, err := readBlob[[]json.RawMessage](ctx, r.kv, repository.KeyStockData, r.log)
	if err != nil {
		return nil, false, err
	}

	entries = make([]entry, 0, len(raws))
	for i, raw := range raws {
		d, derr := decodeTransaction(raw, i)
		if derr != nil || !d.tx.Kind.Valid() {
			if derr == nil {
				derr = fmt.Errorf("tipo desconocido %q", d.tx.Kind)
			}
			r.log.Warn().
				Err(&domain.StorageCorruption{Key: repository.KeyStockData, Err: derr}).
				Int("index", i).
				Msg("movimiento ilegible, se conserva sin exponerlo")
			entries = append(entries, entry{raw: raw})
			continue
		}

		e := entry{tx: d.tx, ok: true}
		switch {
		case d.lossy:
			r.log.Warn().Int("index", i).Str("id", d.tx.ID).Msg("movimiento con campos ilegibles, se conserva el original")
			e.raw = raw
			if d.assigned {
				if e.raw, err = withID(raw, d.tx.ID); err != nil {
					return nil, false, fmt.Errorf("asignar id a movimiento %d: %w", i, err)
				}
				rewrite = true
			}
		case d.legacy || d.assigned:
			rewrite = true
		}
		entries = append(entries, e)
	}
	return entries, rewrite, nil
}

// List devuelve el libro en orden de inserción. Los registros heredados se migran
// al formato actual y se reescriben sin cambiar la versión.
func (r *LedgerRepo) List(ctx context.Context) ([]entity.Transaction, error) {
	entries, rewrite, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if rewrite {
		if err := r.save(ctx, entries, false); err != nil {
			return nil, err
		}
		r.log.Info().Int("count", len(entries)).Msg("libro migrado al formato actual")
	}
	return transactions(entries), nil
}

// Get devuelve ErrNotFound si no existe el id.
func (r *LedgerRepo) Get(ctx context.Context, id string) (*entity.Transaction, error) {
	txs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range txs {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *LedgerRepo) Append(ctx context.Context, tx entity.Transaction) error {
	entries, _, err := r.load(ctx)
	if err != nil {
		return err
	}
	return r.save(ctx, append(entries, entry{tx: tx, ok: true}), true)
}

// Replace recodifica el movimiento editado; el original ya no se conserva.
func (r *LedgerRepo) Replace(ctx context.Context, tx entity.Transaction) error {
	entries, _, err := r.load(ctx)
	if err != nil {
		return err
	}
	i := indexOf(entries, tx.ID)
	if i < 0 {
		return domain.ErrNotFound
	}
	entries[i] = entry{tx: tx, ok: true}
	return r.save(ctx, entries, true)
}

func (r *LedgerRepo) Delete(ctx context.Context, id string) (*entity.Transaction, error) {
	entries, _, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(entries, id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	deleted := entries[i].tx
	entries = append(entries[:i], entries[i+1:]...)
	if err := r.save(ctx, entries, true); err != nil {
		return nil, err
	}
	return &deleted, nil
}

// Version valor de stockDataUpdated; 0 si nunca se escribió o es ilegible.
func (r *LedgerRepo) Version(ctx context.Context) (int64, error) {
	raw, ok, err := r.kv.Get(ctx, repository.KeyStockDataUpdated)
	if err != nil || !ok {
		return 0, err
	}
	v, perr := strconv.ParseInt(strings.Trim(strings.TrimSpace(string(raw)), `"`), 10, 64)
	if perr != nil {
		return 0, nil
	}
	return v, nil
}

// save reescribe stockData; bump actualiza stockDataUpdated.
func (r *LedgerRepo) save(ctx context.Context, entries []entry, bump bool) error {
	out := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		if len(e.raw) > 0 {
			out = append(out, e.raw)
			continue
		}
		raw, err := json.Marshal(encodeTransaction(e.tx))
		if err != nil {
			return fmt.Errorf("serializar movimiento %s: %w", e.tx.ID, err)
		}
		out = append(out, raw)
	}
	if err := writeBlob(ctx, r.kv, repository.KeyStockData, out); err != nil {
		return err
	}
	if !bump {
		return nil
	}
	return r.kv.Set(ctx, repository.KeyStockDataUpdated, []byte(strconv.FormatInt(r.now().UnixMilli(), 10)))
}

func transactions(entries []entry) []entity.Transaction {
	txs := make([]entity.Transaction, 0, len(entries))
	for _, e := range entries {
		if e.ok {
			txs = append(txs, e.tx)
		}
	}
	return txs
}

func indexOf(entries []entry, id string) int {
	for i, e := range entries {
		if e.ok && e.tx.ID == id {
			return i
		}
	}
	return -1
}
