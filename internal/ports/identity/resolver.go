package identity

import "context"

// Profile es lo mínimo que necesitamos de un usuario PetBook:
// el nombre visible se usa para atribuir registros clínicos al profesional.
type Profile struct {
	UserID      string
	DisplayName string
	Role        string // "guardian" | "professional"
}

// Resolver resuelve perfiles guardian ↔ professional contra la plataforma.
// Los services lo tratan como opcional: si no hay resolver (o falla),
// se atribuye por UserID.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (Profile, error)
}
