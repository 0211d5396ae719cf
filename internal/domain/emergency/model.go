package emergency

import "time"

// TemporaryAccessTTL es la vigencia del acceso de emergencia (más corto
// que el de aprobación: 12h vs 24h).
const TemporaryAccessTTL = 12 * time.Hour

// Payload resume los datos críticos que viajan en la alerta al profesional.
type Payload struct {
	Reason      string
	Allergies   []string
	Medications []string
	Notes       string
}
