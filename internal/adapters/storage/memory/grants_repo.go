package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"petbook-access/internal/domain/grants"
)

type grantRepo struct {
	mu   sync.RWMutex
	byID map[string]grants.Grant
}

func NewGrantsRepo() grants.Repository {
	return &grantRepo{
		byID: make(map[string]grants.Grant),
	}
}

func (r *grantRepo) Create(ctx context.Context, g grants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) Update(ctx context.Context, g grants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; !exists {
		return ErrNotFound
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) GetByID(ctx context.Context, id string) (grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return grants.Grant{}, ErrNotFound
	}
	return g, nil
}

func (r *grantRepo) ListByPair(ctx context.Context, petID, professionalID string) ([]grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grants.Grant, 0)
	for _, g := range r.byID {
		if g.PetID == petID && g.ProfessionalID == professionalID {
			out = append(out, g)
		}
	}
	sortGrants(out)
	return out, nil
}

func (r *grantRepo) ListByPet(ctx context.Context, petID string) ([]grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grants.Grant, 0)
	for _, g := range r.byID {
		if g.PetID == petID {
			out = append(out, g)
		}
	}
	sortGrants(out)
	return out, nil
}

func (r *grantRepo) ListByProfessional(ctx context.Context, professionalID string) ([]grants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]grants.Grant, 0)
	for _, g := range r.byID {
		if g.ProfessionalID == professionalID {
			out = append(out, g)
		}
	}
	sortGrants(out)
	return out, nil
}

func sortGrants(items []grants.Grant) {
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
}
