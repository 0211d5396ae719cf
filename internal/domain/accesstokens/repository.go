package accesstokens

import "context"

type Repository interface {
	Create(ctx context.Context, t AccessToken) error

	// Get busca por (petID, value). Si no existe devuelve error del repo;
	// el service lo traduce a ErrTokenInvalid.
	Get(ctx context.Context, petID, value string) (AccessToken, error)

	ListByPet(ctx context.Context, petID string) ([]AccessToken, error)
}
