package accesstokens

import (
	"net/url"
	"time"
)

// TTL fijo del token QR. No hay revocación explícita: solo expira.
const TTL = time.Hour

// AccessToken es el token corto embebido en el deep link del QR.
// Un pet puede tener varios tokens vigentes a la vez (emitir uno nuevo
// no invalida los anteriores).
type AccessToken struct {
	ID    string
	PetID string

	// Value es opaco y no adivinable (crypto/rand).
	Value string

	CreatedAt time.Time
	ExpiresAt time.Time
}

// ShareLink arma el deep link que el guardian comparte como QR:
// {origin}/scan-health?token={value}&petId={petId}
func (t AccessToken) ShareLink(origin string) string {
	q := url.Values{}
	q.Set("token", t.Value)
	q.Set("petId", t.PetID)
	return origin + "/scan-health?" + q.Encode()
}
