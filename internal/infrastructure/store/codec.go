package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/stock"
)

// transactionRecord forma persistida de un movimiento en stockData. La lectura no
// pasa por este tipo: ver decodeTransaction, que también acepta los campos heredados
// type/item/displayItem/qty/price/date/time.
type transactionRecord struct {
	ID          string          `json:"id,omitempty"`
	Kind        string          `json:"kind,omitempty"`
	ItemKey     string          `json:"itemKey,omitempty"`
	DisplayName string          `json:"displayName,omitempty"`
	Quantity    json.RawMessage `json:"quantity,omitempty"`
	UnitPrice   json.RawMessage `json:"unitPrice,omitempty"`
	TotalPrice  json.RawMessage `json:"totalPrice,omitempty"`
	Supplier    string          `json:"supplier,omitempty"`
	Receiver    string          `json:"receiver,omitempty"`
	Person      string          `json:"person,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Note        string          `json:"note,omitempty"`
	OccurredAt  *time.Time      `json:"occurredAt,omitempty"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
	CreatedBy   string          `json:"createdBy,omitempty"`
}

// legacyNamespace espacio de nombres para los ids derivados de registros sin id.
var legacyNamespace = uuid.MustParse("5b8f0d4e-6c1a-4f53-9d2e-3f7a1c0b9e21")

// Formatos de fecha y hora con los que se guardaron los registros heredados,
// en orden de prueba (en-US primero, luego día/mes).
var legacyLayouts = []string{
	"1/2/2006 03:04 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006 15:04",
	"02/01/2006 15:04",
	"2/1/2006 15:04",
	"2006-01-02 15:04",
}

func encodeTransaction(t entity.Transaction) transactionRecord {
	r := transactionRecord{
		ID:          t.ID,
		Kind:        string(t.Kind),
		ItemKey:     t.ItemKey,
		DisplayName: t.DisplayName,
		Quantity:    rawDecimal(t.Quantity),
		Note:        t.Note,
		UpdatedAt:   t.UpdatedAt,
		CreatedBy:   t.CreatedBy,
	}
	if !t.OccurredAt.IsZero() {
		at := t.OccurredAt.UTC()
		r.OccurredAt = &at
	}
	switch t.Kind {
	case entity.KindIn:
		r.UnitPrice = rawDecimal(t.UnitPrice)
		r.TotalPrice = rawDecimal(t.TotalPrice)
		r.Supplier = t.Supplier
		r.Receiver = t.Receiver
	case entity.KindOut:
		r.Person = t.Person
		r.Reason = t.Reason
	}
	return r
}

// recordReader lee un elemento de stockData campo a campo. Un campo con un tipo
// inesperado queda en cero y marca el elemento como lossy.
type recordReader struct {
	fields map[string]json.RawMessage
	lossy  bool
}

func (r *recordReader) raw(name string) json.RawMessage {
	v := bytes.TrimSpace(r.fields[name])
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil
	}
	return v
}

// str acepta también números (42 -> "42"); cualquier otro tipo queda vacío.
func (r *recordReader) str(name string) string {
	v := r.raw(name)
	if v == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	r.lossy = true
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

// amount aplica stock.LenientQuantity; present indica que el campo existe.
func (r *recordReader) amount(names ...string) (d decimal.Decimal, present bool) {
	for _, name := range names {
		v := r.raw(name)
		if v == nil {
			continue
		}
		if _, err := decimal.NewFromString(strings.TrimSpace(strings.Trim(string(v), `"`))); err != nil {
			r.lossy = true
		}
		return stock.LenientQuantity(string(v)), true
	}
	return decimal.Zero, false
}

func (r *recordReader) instant(name string) *time.Time {
	v := r.raw(name)
	if v == nil {
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(v, &t); err != nil {
		r.lossy = true
		return nil
	}
	return &t
}

// decoded resultado de leer un elemento de stockData.
type decoded struct {
	tx entity.Transaction
	// legacy: campos heredados, se recodifica al formato actual.
	legacy bool
	// lossy: algún campo ilegible; recodificarlo perdería el valor original.
	lossy bool
	// assigned: el id se derivó y todavía no está persistido.
	assigned bool
}

// decodeTransaction convierte un elemento (actual o heredado) en entidad. Solo
// falla si el elemento no es un objeto JSON.
func decodeTransaction(raw json.RawMessage, index int) (decoded, error) {
	r := recordReader{}
	if err := json.Unmarshal(raw, &r.fields); err != nil {
		return decoded{}, err
	}
	if r.fields == nil {
		return decoded{}, errNotObject
	}
	var d decoded

	kindRaw := r.str("kind")
	if kindRaw == "" {
		kindRaw = r.str("type")
		d.legacy = true
	}
	kind := entity.Kind(strings.ToUpper(strings.TrimSpace(kindRaw)))

	displayName, displayItem, item, itemKey := r.str("displayName"), r.str("displayItem"), r.str("item"), r.str("itemKey")
	name := firstNonEmpty(displayName, displayItem, item, itemKey)
	key := itemKey
	if key == "" {
		key = firstNonEmpty(item, displayItem, displayName)
		d.legacy = true
	}

	qty, _ := r.amount("quantity", "qty")
	t := entity.Transaction{
		ID:          r.str("id"),
		Kind:        kind,
		ItemKey:     stock.NormalizeKey(key),
		DisplayName: strings.TrimSpace(name),
		Quantity:    qty,
		Supplier:    r.str("supplier"),
		Receiver:    r.str("receiver"),
		Person:      r.str("person"),
		Reason:      r.str("reason"),
		Note:        r.str("note"),
		UpdatedAt:   r.instant("updatedAt"),
		CreatedBy:   r.str("createdBy"),
	}
	if kind == entity.KindIn {
		t.UnitPrice, _ = r.amount("unitPrice", "price")
		if total, ok := r.amount("totalPrice"); ok {
			t.TotalPrice = total
		} else {
			t.TotalPrice = t.Quantity.Mul(t.UnitPrice)
		}
	}

	if at := r.instant("occurredAt"); at != nil {
		t.OccurredAt = *at
	} else if date := r.str("date"); date != "" && r.raw("occurredAt") == nil {
		t.OccurredAt = parseLegacyInstant(date, r.str("time"))
		if t.OccurredAt.IsZero() {
			r.lossy = true
		}
		d.legacy = true
	}

	if t.ID == "" {
		t.ID = legacyID(index, raw)
		d.assigned = true
	}
	d.tx = t
	d.lossy = r.lossy
	return d, nil
}

var errNotObject = errors.New("el elemento no es un objeto JSON")

// withID devuelve el elemento original con el id dado, sin tocar el resto de campos.
func withID(raw json.RawMessage, id string) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	idRaw, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	fields["id"] = idRaw
	return json.Marshal(fields)
}

// legacyID id estable derivado de la posición y el contenido del registro.
func legacyID(index int, raw json.RawMessage) string {
	seed := append([]byte{byte(index >> 24), byte(index >> 16), byte(index >> 8), byte(index)}, raw...)
	return uuid.NewSHA1(legacyNamespace, seed).String()
}

// parseLegacyInstant interpreta fecha y hora locales heredadas; cero si no se reconoce.
func parseLegacyInstant(date, clock string) time.Time {
	value := strings.TrimSpace(date)
	if c := strings.TrimSpace(clock); c != "" {
		value += " " + c
	}
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	for _, layout := range []string{"1/2/2006", "02/01/2006", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(date), time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func rawDecimal(d decimal.Decimal) json.RawMessage {
	return json.RawMessage(d.String())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// notificationRecord forma persistida de una notificación (timestamp en unix ms).
type notificationRecord struct {
	Message   string `json:"message"`
	IsWarning bool   `json:"isWarning"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Timestamp int64  `json:"timestamp"`
}

func encodeNotification(n entity.Notification) notificationRecord {
	return notificationRecord{
		Message:   n.Message,
		IsWarning: n.IsWarning,
		Date:      n.DisplayDate(),
		Time:      n.DisplayTime(),
		Timestamp: n.Timestamp.UnixMilli(),
	}
}

func decodeNotification(r notificationRecord) entity.Notification {
	n := entity.Notification{Message: r.Message, IsWarning: r.IsWarning}
	if r.Timestamp > 0 {
		n.Timestamp = time.UnixMilli(r.Timestamp)
	} else {
		n.Timestamp = parseLegacyInstant(r.Date, r.Time)
	}
	return n
}

// activityRecord forma persistida de una actividad (timestamp ISO 8601).
type activityRecord struct {
	Action    string    `json:"action"`
	Username  string    `json:"username"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// userRecord valor de users[username].
type userRecord struct {
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// legacyUserRecord elemento de la lista heredada de usuarios.
type legacyUserRecord struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// profileRecord forma persistida de currentUser.
type profileRecord struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
