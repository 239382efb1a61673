package entity

import "time"

// Notification entrada del centro de notificaciones (persistente, más reciente primero).
type Notification struct {
	Message   string
	IsWarning bool
	Timestamp time.Time
}

// DisplayDate fecha local de la notificación.
func (n Notification) DisplayDate() string { return n.Timestamp.Local().Format(DisplayDateLayout) }

// DisplayTime hora local de la notificación.
func (n Notification) DisplayTime() string { return n.Timestamp.Local().Format(DisplayTimeLayout) }
