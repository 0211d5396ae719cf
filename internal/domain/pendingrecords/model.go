package pendingrecords

import (
	"time"

	"petbook-access/internal/domain/records"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Payload es la entrada clínica propuesta por el profesional.
// Inmutable una vez enviada: la resolución solo cambia el status.
type Payload struct {
	Title string
	Type  records.RecordType
	Date  time.Time
	Notes string
}

// PendingHealthRecord es una entrada co-autorada en staging: no es parte
// del historial canónico hasta que el guardian la apruebe.
//
//	PENDING --(guardian approves)--> APPROVED (terminal)
//	PENDING --(guardian rejects)---> REJECTED (terminal)
type PendingHealthRecord struct {
	ID             string
	PetID          string
	ProfessionalID string

	Payload Payload
	Status  Status

	CreatedAt  time.Time
	ResolvedAt *time.Time
}

func (p PendingHealthRecord) Terminal() bool {
	return p.Status == StatusApproved || p.Status == StatusRejected
}
