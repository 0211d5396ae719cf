package pets

import "context"

// Repository persiste perfiles de mascotas. Hay dos adapters:
// memory (dev/tests) y postgres.
type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error)
}
