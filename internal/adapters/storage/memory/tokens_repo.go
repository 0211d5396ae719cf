package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"petbook-access/internal/domain/accesstokens"
)

type tokenRepo struct {
	mu   sync.RWMutex
	byID map[string]accesstokens.AccessToken
}

func NewAccessTokensRepo() accesstokens.Repository {
	return &tokenRepo{
		byID: make(map[string]accesstokens.AccessToken),
	}
}

func (r *tokenRepo) Create(ctx context.Context, t accesstokens.AccessToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == "" {
		return errors.New("token id required")
	}
	if _, exists := r.byID[t.ID]; exists {
		return errors.New("token already exists")
	}
	r.byID[t.ID] = t
	return nil
}

func (r *tokenRepo) Get(ctx context.Context, petID, value string) (accesstokens.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.byID {
		if t.PetID == petID && t.Value == value {
			return t, nil
		}
	}
	return accesstokens.AccessToken{}, ErrNotFound
}

func (r *tokenRepo) ListByPet(ctx context.Context, petID string) ([]accesstokens.AccessToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]accesstokens.AccessToken, 0)
	for _, t := range r.byID {
		if t.PetID == petID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
