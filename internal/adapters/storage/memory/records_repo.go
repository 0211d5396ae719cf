package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"petbook-access/internal/domain/records"
)

type recordRepo struct {
	mu   sync.RWMutex
	byID map[string]records.HealthRecord
}

func NewHealthRecordsRepo() records.Repository {
	return &recordRepo{
		byID: make(map[string]records.HealthRecord),
	}
}

func (r *recordRepo) Create(ctx context.Context, rec records.HealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		return errors.New("record id required")
	}
	if _, exists := r.byID[rec.ID]; exists {
		return errors.New("record already exists")
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *recordRepo) GetByID(ctx context.Context, id string) (records.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return records.HealthRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *recordRepo) ListByPet(ctx context.Context, petID string, filter records.ListFilter) ([]records.HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]records.HealthRecord, 0)
	for _, rec := range r.byID {
		if rec.PetID != petID {
			continue
		}
		if !matchesFilter(rec, filter) {
			continue
		}
		out = append(out, rec)
	}

	// Más recientes primero (timeline).
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matchesFilter(rec records.HealthRecord, filter records.ListFilter) bool {
	if len(filter.Types) > 0 {
		found := false
		for _, t := range filter.Types {
			if rec.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.From != nil && rec.OccurredAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && rec.OccurredAt.After(*filter.To) {
		return false
	}
	return true
}
