package notify

import "context"

// Tipos de notificación que emite el core de access-control.
const (
	TypeAccessRequested      = "access_requested"
	TypeAccessApproved       = "access_approved"
	TypeAccessRejected       = "access_rejected"
	TypeGrantRequested       = "grant_requested"
	TypeGrantUpdated         = "grant_updated"
	TypeEmergencyAlert       = "emergency_alert"
	TypePendingRecordCreated = "pending_record_created"
	TypePendingRecordSolved  = "pending_record_resolved"
)

// Notification es el payload mínimo que consume la UI de notificaciones
// (excluida de este core). Related lleva ids útiles (pet_id, request_id, etc).
type Notification struct {
	Type        string
	RecipientID string
	Message     string
	Related     map[string]string
}

// Sink es fire-and-forget: los services lo llaman best-effort y loguean
// el error; nunca lo propagan al caller.
type Sink interface {
	Send(ctx context.Context, n Notification) error
}
