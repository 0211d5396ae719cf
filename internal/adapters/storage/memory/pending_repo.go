package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"petbook-access/internal/domain/pendingrecords"
)

type pendingRepo struct {
	mu   sync.RWMutex
	byID map[string]pendingrecords.PendingHealthRecord
}

func NewPendingRecordsRepo() pendingrecords.Repository {
	return &pendingRepo{
		byID: make(map[string]pendingrecords.PendingHealthRecord),
	}
}

func (r *pendingRepo) Create(ctx context.Context, p pendingrecords.PendingHealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		return errors.New("pending record id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("pending record already exists")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *pendingRepo) Update(ctx context.Context, p pendingrecords.PendingHealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		return errors.New("pending record id required")
	}
	if _, exists := r.byID[p.ID]; !exists {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *pendingRepo) GetByID(ctx context.Context, id string) (pendingrecords.PendingHealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pendingrecords.PendingHealthRecord{}, ErrNotFound
	}
	return p, nil
}

func (r *pendingRepo) ListByPet(ctx context.Context, petID string) ([]pendingrecords.PendingHealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pendingrecords.PendingHealthRecord, 0)
	for _, p := range r.byID {
		if p.PetID == petID {
			out = append(out, p)
		}
	}
	sortPending(out)
	return out, nil
}

func (r *pendingRepo) ListByProfessional(ctx context.Context, professionalID string) ([]pendingrecords.PendingHealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pendingrecords.PendingHealthRecord, 0)
	for _, p := range r.byID {
		if p.ProfessionalID == professionalID {
			out = append(out, p)
		}
	}
	sortPending(out)
	return out, nil
}

func sortPending(items []pendingrecords.PendingHealthRecord) {
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
}
