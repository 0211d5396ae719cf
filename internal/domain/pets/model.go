package pets

import "time"

// Species define las especies soportadas.
type Species string

const (
	SpeciesDog   Species = "dog"
	SpeciesCat   Species = "cat"
	SpeciesOther Species = "other"
)

// Sex define el sexo de la mascota.
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// EmergencyInfo son los datos críticos del pet que se resumen en una
// alerta de emergencia (alergias y medicaciones activas).
type EmergencyInfo struct {
	Allergies   []string
	Medications []string
}

// Pet representa el perfil básico de una mascota.
// OwnerUserID es el guardian: única autoridad para aprobar, rechazar
// y revocar accesos al historial de salud.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species Species
	Breed   string
	Sex     Sex

	BirthDate *time.Time
	Microchip string

	Emergency EmergencyInfo

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
