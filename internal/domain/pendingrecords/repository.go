package pendingrecords

import "context"

type Repository interface {
	Create(ctx context.Context, p PendingHealthRecord) error
	Update(ctx context.Context, p PendingHealthRecord) error
	GetByID(ctx context.Context, id string) (PendingHealthRecord, error)
	ListByPet(ctx context.Context, petID string) ([]PendingHealthRecord, error)
	ListByProfessional(ctx context.Context, professionalID string) ([]PendingHealthRecord, error)
}
