package accessrequests

import "time"

// TemporaryAccessTTL es la vigencia del acceso creado al aprobar un handshake.
const TemporaryAccessTTL = 24 * time.Hour

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// AccessRequest es el registro del handshake QR: se crea cuando un profesional
// escanea un token válido y lo resuelve el guardian.
//
// Máquina de estados (una sola transición pending -> terminal):
//
//	PENDING --(guardian approves)--> APPROVED (terminal)
//	PENDING --(guardian rejects)---> REJECTED (terminal)
//
// Un request puede quedar PENDING indefinidamente: no hay TTL ni timeout
// del lado del server. La expiración del token solo frena requests NUEVOS.
type AccessRequest struct {
	ID             string
	PetID          string
	ProfessionalID string

	Status Status

	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// Terminal responde si el request ya fue resuelto.
func (r AccessRequest) Terminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}
