package grants

import "context"

type Repository interface {
	Create(ctx context.Context, g Grant) error
	Update(ctx context.Context, g Grant) error
	GetByID(ctx context.Context, id string) (Grant, error)

	// ListByPair devuelve todos los grants (ambos kinds) del par (pet, profesional).
	ListByPair(ctx context.Context, petID, professionalID string) ([]Grant, error)

	ListByPet(ctx context.Context, petID string) ([]Grant, error)
	ListByProfessional(ctx context.Context, professionalID string) ([]Grant, error)
}
