package accessrequests

import (
	"context"
	"errors"
)

// ErrAlreadyResolved lo devuelve ResolvePending cuando el request existe
// pero ya no está PENDING: otro approve/reject ganó la carrera.
var ErrAlreadyResolved = errors.New("request already resolved")

type Repository interface {
	Create(ctx context.Context, r AccessRequest) error

	// Update pisa el estado sin condiciones. Solo para la reversión
	// APPROVED -> PENDING cuando el grant no se pudo crear.
	Update(ctx context.Context, r AccessRequest) error

	// ResolvePending escribe r solo si el estado persistido sigue PENDING.
	// Es el candado contra la doble aprobación concurrente: exactamente un
	// caller gana la transición, el resto recibe ErrAlreadyResolved.
	ResolvePending(ctx context.Context, r AccessRequest) error

	GetByID(ctx context.Context, id string) (AccessRequest, error)
	ListByPet(ctx context.Context, petID string) ([]AccessRequest, error)
}
