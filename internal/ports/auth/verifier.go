package auth

import "context"

// AuthVerifier valida un token de sesión y devuelve los claims del usuario.
// La implementación real delega en PetBook ID; en dev puede ser nil y el
// middleware cae al modo debug por headers.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
