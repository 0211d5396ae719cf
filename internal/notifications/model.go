package notifications

import "time"

// Notification es la entrada persistida que consume la UI de notificaciones.
// Se crea como efecto de cada transición del core de access-control;
// la entrega es at-least-once (el sink nunca deduplica).
type Notification struct {
	ID          string
	Type        string
	RecipientID string
	Message     string

	// Related lleva ids útiles para deep-linking en la UI
	// (pet_id, request_id, grant_id, pending_id...).
	Related map[string]string

	IsRead    bool
	CreatedAt time.Time
}
