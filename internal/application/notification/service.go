// Package notification centraliza el registro persistente de notificaciones y los
// avisos efímeros (toasts), y decide cómo se presenta cada clase de error.
package notification

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// MaxEntries tope del registro; se descartan las más antiguas.
const MaxEntries = 100

// Duraciones de los toasts.
const (
	ToastDuration     = 3 * time.Second
	ProminentDuration = 5 * time.Second
)

// Mensajes fijos.
const (
	MessageCleared  = "Todas las notificaciones fueron eliminadas"
	MessageInternal = "Ocurrió un error al procesar la solicitud"
)

// Toast aviso efímero.
type Toast struct {
	Message  string
	Warning  bool
	Duration time.Duration
}

// ToastSink destino de los toasts (la UI, el log, un test).
type ToastSink interface {
	Show(t Toast)
}

// Policy cómo se presenta un error clasificado.
type Policy struct {
	Persist   bool // añadir al registro
	Toast     bool
	Prominent bool // toast destacado de duración ProminentDuration
	Silent    bool // solo log, valor seguro por defecto
}

// PolicyFor política por clase: validación solo toast; regla de negocio persistida
// y toast; autorización toast destacado sin persistir; corrupción silenciosa.
func PolicyFor(class domain.Class) Policy {
	switch class {
	case domain.ClassValidation:
		return Policy{Toast: true}
	case domain.ClassBusinessRule:
		return Policy{Persist: true, Toast: true}
	case domain.ClassAuthorization:
		return Policy{Toast: true, Prominent: true}
	case domain.ClassCorruption:
		return Policy{Silent: true}
	case domain.ClassNotFound, domain.ClassUnauthenticated:
		return Policy{Toast: true}
	default:
		return Policy{Persist: true, Toast: true}
	}
}

// Record añade n al registro acotado usando un repositorio ya ligado a una sección crítica.
func Record(ctx context.Context, repo repository.NotificationRepository, n entity.Notification) error {
	return repo.Prepend(ctx, n, MaxEntries)
}

// Badge texto del contador de la campana.
func Badge(count int) string {
	switch {
	case count <= 0:
		return ""
	case count > 9:
		return "9+"
	default:
		return strconv.Itoa(count)
	}
}

// Service casos de uso del centro de notificaciones.
type Service struct {
	tx   ports.TxRunner
	sink ToastSink
	now  func() time.Time
	log  *logger.Logger
}

// NewService construye el servicio. now nil usa time.Now.
func NewService(tx ports.TxRunner, sink ToastSink, log *logger.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	if sink == nil {
		sink = NewLogSink(log)
	}
	return &Service{tx: tx, sink: sink, now: now, log: log.Named("notification")}
}

// Now reloj del servicio.
func (s *Service) Now() time.Time { return s.now() }

// Notify muestra un toast y, si persist, lo añade al registro.
func (s *Service) Notify(ctx context.Context, message string, warning, persist bool) error {
	if persist {
		err := s.tx.Run(ctx, func(r ports.Repositories) error {
			return Record(ctx, r.Notifications, entity.Notification{Message: message, IsWarning: warning, Timestamp: s.now()})
		})
		if err != nil {
			return err
		}
	}
	s.Toast(message, warning, false)
	return nil
}

// Toast muestra un aviso efímero sin persistirlo.
func (s *Service) Toast(message string, warning, prominent bool) {
	d := ToastDuration
	if prominent {
		d = ProminentDuration
	}
	s.sink.Show(Toast{Message: message, Warning: warning, Duration: d})
}

// Report aplica PolicyFor a un error de un caso de uso.
func (s *Service) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}
	class := domain.Classify(err)
	p := PolicyFor(class)
	if p.Silent {
		s.log.Warn().Err(err).Str("class", string(class)).Msg("error recuperado con valor por defecto")
		return
	}
	message := err.Error()
	if class == domain.ClassInternal {
		s.log.Error().Err(err).Msg("error interno")
		message = MessageInternal
	}
	if p.Persist {
		if perr := s.tx.Run(ctx, func(r ports.Repositories) error {
			return Record(ctx, r.Notifications, entity.Notification{Message: message, IsWarning: true, Timestamp: s.now()})
		}); perr != nil {
			s.log.Error().Err(perr).Msg("no se pudo registrar la notificación")
		}
	}
	if p.Toast {
		s.Toast(message, true, p.Prominent)
	}
}

// List registro completo, más reciente primero.
func (s *Service) List(ctx context.Context) ([]entity.Notification, error) {
	var out []entity.Notification
	err := s.tx.Run(ctx, func(r ports.Repositories) error {
		var err error
		out, err = r.Notifications.List(ctx)
		return err
	})
	return out, err
}

// Dismiss elimina la notificación en index (ErrNotFound si no existe).
func (s *Service) Dismiss(ctx context.Context, index int) error {
	return s.tx.Run(ctx, func(r ports.Repositories) error {
		return r.Notifications.RemoveAt(ctx, index)
	})
}

// ClearAll vacía el registro y lo anuncia con un toast.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.tx.Run(ctx, func(r ports.Repositories) error {
		return r.Notifications.Clear(ctx)
	}); err != nil {
		return err
	}
	s.Toast(MessageCleared, false, false)
	return nil
}

// LogSink escribe cada toast en el log.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink construye el sink de producción.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.Named("toast")}
}

func (s *LogSink) Show(t Toast) {
	ev := s.log.Info()
	if t.Warning {
		ev = s.log.Warn()
	}
	ev.Dur("duration", t.Duration).Msg(t.Message)
}

// RecordingSink guarda los toasts en memoria.
type RecordingSink struct {
	mu     sync.Mutex
	toasts []Toast
}

func (s *RecordingSink) Show(t Toast) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, t)
}

// Toasts copia de los toasts recibidos.
func (s *RecordingSink) Toasts() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Toast(nil), s.toasts...)
}

// Last último toast; cero si no hay.
func (s *RecordingSink) Last() Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.toasts) == 0 {
		return Toast{}
	}
	return s.toasts[len(s.toasts)-1]
}
