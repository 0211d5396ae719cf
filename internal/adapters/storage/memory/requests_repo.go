package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"petbook-access/internal/domain/accessrequests"
)

type requestRepo struct {
	mu   sync.RWMutex
	byID map[string]accessrequests.AccessRequest
}

func NewAccessRequestsRepo() accessrequests.Repository {
	return &requestRepo{
		byID: make(map[string]accessrequests.AccessRequest),
	}
}

func (r *requestRepo) Create(ctx context.Context, req accessrequests.AccessRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.ID == "" {
		return errors.New("request id required")
	}
	if _, exists := r.byID[req.ID]; exists {
		return errors.New("request already exists")
	}
	r.byID[req.ID] = req
	return nil
}

func (r *requestRepo) Update(ctx context.Context, req accessrequests.AccessRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.ID == "" {
		return errors.New("request id required")
	}
	if _, exists := r.byID[req.ID]; !exists {
		return ErrNotFound
	}
	r.byID[req.ID] = req
	return nil
}

// ResolvePending es compare-and-swap bajo el mutex: escribe solo si el
// estado guardado sigue pending. Con dos approves en paralelo, uno gana
// y el otro ve ErrAlreadyResolved.
func (r *requestRepo) ResolvePending(ctx context.Context, req accessrequests.AccessRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.byID[req.ID]
	if !exists {
		return ErrNotFound
	}
	if cur.Status != accessrequests.StatusPending {
		return accessrequests.ErrAlreadyResolved
	}
	r.byID[req.ID] = req
	return nil
}

func (r *requestRepo) GetByID(ctx context.Context, id string) (accessrequests.AccessRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.byID[id]
	if !ok {
		return accessrequests.AccessRequest{}, ErrNotFound
	}
	return req, nil
}

func (r *requestRepo) ListByPet(ctx context.Context, petID string) ([]accessrequests.AccessRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]accessrequests.AccessRequest, 0)
	for _, req := range r.byID {
		if req.PetID == petID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
