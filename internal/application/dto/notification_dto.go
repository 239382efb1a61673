package dto

import "time"

// NotificationResponse entrada del centro de notificaciones.
type NotificationResponse struct {
	Index     int       `json:"index"`
	Message   string    `json:"message"`
	IsWarning bool      `json:"is_warning"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationListResponse lista con el texto del contador de la campana.
type NotificationListResponse struct {
	Items []NotificationResponse `json:"items"`
	Badge string                 `json:"badge"` // "", "1".."9" o "9+"
}
