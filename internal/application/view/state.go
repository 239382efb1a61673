// Package view contiene el estado explícito de las vistas de entradas y salidas
// (calendario visible y rango de fechas seleccionado). Cada vista construye su
// propio State al inicializarse con NewState y lo vuelve al mes actual con Reset.
package view

import (
	"fmt"
	"time"
)

// Calendar mes visible en el selector de fechas (Month 1..12).
type Calendar struct {
	Month time.Month
	Year  int
}

// Range rango seleccionado. Start sin End filtra un solo día; ambos nil no filtra.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// Active indica si el rango filtra algo.
func (r Range) Active() bool { return r.Start != nil }

// Contains indica si t cae dentro del rango (por día local, extremos incluidos).
// Un rango inactivo contiene todo.
func (r Range) Contains(t time.Time) bool {
	if r.Start == nil {
		return true
	}
	day := truncateDay(t.In(r.Start.Location()))
	if r.End == nil {
		return day.Equal(*r.Start)
	}
	return !day.Before(*r.Start) && !day.After(*r.End)
}

// State estado de una vista.
type State struct {
	Calendar Calendar
	Range    Range
	loc      *time.Location
}

// NewState estado inicial: calendario en el mes de now, sin rango.
func NewState(now time.Time) *State {
	s := &State{loc: now.Location()}
	s.Reset(now)
	return s
}

// Reset vuelve al mes de now y limpia el rango.
func (s *State) Reset(now time.Time) {
	s.loc = now.Location()
	s.Calendar = Calendar{Month: now.Month(), Year: now.Year()}
	s.Range = Range{}
}

// ChangeMonth mueve el calendario offset meses, cruzando años.
func (s *State) ChangeMonth(offset int) {
	idx := s.Calendar.Year*12 + int(s.Calendar.Month-1) + offset
	year, month := idx/12, idx%12
	if month < 0 {
		month += 12
		year--
	}
	s.Calendar = Calendar{Month: time.Month(month + 1), Year: year}
}

// SelectDay aplica un clic sobre el día day del mes visible: el primero fija el
// inicio; el segundo fija el fin (o intercambia si es anterior al inicio); un
// clic con el rango completo empieza uno nuevo.
func (s *State) SelectDay(day int) {
	d := time.Date(s.Calendar.Year, s.Calendar.Month, day, 0, 0, 0, 0, s.location())
	switch {
	case s.Range.Start == nil || s.Range.End != nil:
		s.Range = Range{Start: &d}
	case d.Before(*s.Range.Start):
		start := *s.Range.Start
		s.Range = Range{Start: &d, End: &start}
	default:
		s.Range.End = &d
	}
}

// ClearRange quita el filtro de fechas sin mover el calendario.
func (s *State) ClearRange() { s.Range = Range{} }

// DaysSelected días del rango, extremos incluidos; 1 con solo inicio, 0 sin rango.
func (s *State) DaysSelected() int {
	switch {
	case s.Range.Start == nil:
		return 0
	case s.Range.End == nil:
		return 1
	}
	a, b := s.Range.Start, s.Range.End
	days := 0
	for d := *a; !d.After(*b); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// RangeLabel texto del rango para la cabecera del filtro.
func (s *State) RangeLabel() string {
	const layout = "02/01/2006"
	switch {
	case s.Range.Start == nil:
		return "Seleccione un rango haciendo clic en la fecha inicial y final"
	case s.Range.End == nil:
		return "Seleccionado: " + s.Range.Start.Format(layout)
	}
	return fmt.Sprintf("Seleccionado: %s a %s (%d días)",
		s.Range.Start.Format(layout), s.Range.End.Format(layout), s.DaysSelected())
}

func (s *State) location() *time.Location {
	if s.loc == nil {
		return time.Local
	}
	return s.loc
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayRange rango de días [start, end] en loc a partir de fechas "2006-01-02";
// end vacío selecciona solo start. Ambos vacíos devuelven un rango inactivo.
func DayRange(start, end string, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.Local
	}
	if start == "" {
		if end != "" {
			return Range{}, fmt.Errorf("fecha final sin fecha inicial")
		}
		return Range{}, nil
	}
	a, err := time.ParseInLocation("2006-01-02", start, loc)
	if err != nil {
		return Range{}, fmt.Errorf("fecha inicial inválida: %w", err)
	}
	if end == "" {
		return Range{Start: &a}, nil
	}
	b, err := time.ParseInLocation("2006-01-02", end, loc)
	if err != nil {
		return Range{}, fmt.Errorf("fecha final inválida: %w", err)
	}
	if b.Before(a) {
		a, b = b, a
	}
	return Range{Start: &a, End: &b}, nil
}
