package records

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, rec HealthRecord) error
	GetByID(ctx context.Context, id string) (HealthRecord, error)
	ListByPet(ctx context.Context, petID string, filter ListFilter) ([]HealthRecord, error)
}

type ListFilter struct {
	Types []RecordType
	From  *time.Time
	To    *time.Time
	Limit int
}
