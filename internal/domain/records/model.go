package records

import "time"

// Actor es la atribución del registro (quién lo generó).
// Para profesionales, Name guarda el nombre visible al momento de crear
// la entrada (la atribución no cambia si el perfil cambia después).
type Actor struct {
	Type ActorType
	ID   string
	Name string
}

// HealthRecord es la entrada canónica del historial.
// Desde este core el historial es append-only: nada lo edita ni lo borra.
type HealthRecord struct {
	ID    string
	PetID string

	Type  RecordType
	Title string
	Notes string

	Actor  Actor
	Source Source

	OccurredAt time.Time
	RecordedAt time.Time
}
