package realtime

import (
	"context"
	"time"
)

// Tipos de evento que viajan por el bus.
const (
	EventAccessRequested      = "access_request_created"
	EventAccessResolved       = "access_request_resolved"
	EventPendingRecordCreated = "pending_record_created"
)

// Event es el payload que viaja por un topic. Data es aditivo:
// los consumers deben ignorar campos que no conocen (sin versionado explícito).
type Event struct {
	Type       string            `json:"type"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Bus es la abstracción pub/sub entre las dos sesiones (guardian y profesional).
// Semántica: at-least-once, sin orden garantizado entre publishers, sin replay.
// Un consumer que se desconecta antes de la resolución puede perder eventos;
// por eso todo handling de resolución debe ser idempotente.
type Bus interface {
	Publish(ctx context.Context, topic string, ev Event) error
	Subscribe(ctx context.Context, topic string) (*Subscription, error)
}

// Subscription entrega eventos por C hasta que se cierre.
// Close es idempotente y seguro de llamar desde otro goroutine.
type Subscription struct {
	C chan Event

	closeFn func()
}

func (s *Subscription) Close() {
	if s == nil || s.closeFn == nil {
		return
	}
	s.closeFn()
}

// Topics del contrato realtime (§ suscripción):
// - pet:{petId}:access-requests => nueva solicitud creada (lado guardian)
// - request:{requestId}         => resolución approved/rejected (lado profesional)
// - pet:{petId}:pending-records => pending record nuevo (lado guardian)

func TopicPetAccessRequests(petID string) string {
	return "pet:" + petID + ":access-requests"
}

func TopicRequest(requestID string) string {
	return "request:" + requestID
}

func TopicPetPendingRecords(petID string) string {
	return "pet:" + petID + ":pending-records"
}
