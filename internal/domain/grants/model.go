package grants

import "time"

// Kind distingue las dos vías de autorización que conviven en PetBook:
// - persistent: AccessGrant iniciado por el profesional desde el perfil del pet;
//   vive hasta que el guardian lo revoca, re-solicitable después del revoke.
// - temporary: TemporaryAccess creado por aprobación de handshake QR (24h) o por
//   emergencia (12h); no se revoca, solo expira.
//
// Son un solo tipo tagged a propósito (un único CheckAccess), pero NO se
// unifican sus ciclos de vida: cada kind conserva su semántica.
type Kind string

const (
	KindPersistent Kind = "persistent"
	KindTemporary  Kind = "temporary"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusGranted Status = "granted"
	StatusRevoked Status = "revoked"
)

type Grant struct {
	ID             string
	PetID          string
	ProfessionalID string

	Kind   Kind
	Status Status

	// GrantedAt y RevokedAt son mutuamente excluyentes.
	GrantedAt *time.Time
	RevokedAt *time.Time

	// Solo kind=temporary. Siempre en el futuro al crearse.
	ExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveAt responde si el grant otorga acceso en el instante dado.
func (g Grant) ActiveAt(now time.Time) bool {
	switch g.Kind {
	case KindPersistent:
		return g.Status == StatusGranted
	case KindTemporary:
		return g.ExpiresAt != nil && now.Before(*g.ExpiresAt)
	default:
		return false
	}
}
