package accesstokens

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrTokenInvalid: no existe un token con ese value para ese pet.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired: existe pero ya pasó su TTL.
	ErrTokenExpired = errors.New("token expired")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Issue emite un token nuevo con ExpiresAt = now + 1h.
// No hay unicidad por pet: cada apertura de la vista QR emite uno nuevo
// sin tocar los anteriores.
func (s *Service) Issue(ctx context.Context, petID string) (AccessToken, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return AccessToken{}, ErrInvalidInput
	}

	value, err := randomValue()
	if err != nil {
		return AccessToken{}, err
	}

	now := s.now()
	t := AccessToken{
		ID:        uuid.NewString(),
		PetID:     petID,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return AccessToken{}, err
	}
	return t, nil
}

// Validate chequea (petID, value) contra el repo:
// - ErrTokenInvalid si no existe
// - ErrTokenExpired si now > ExpiresAt
func (s *Service) Validate(ctx context.Context, petID, value string) error {
	petID = strings.TrimSpace(petID)
	value = strings.TrimSpace(value)
	if petID == "" || value == "" {
		return ErrTokenInvalid
	}

	t, err := s.repo.Get(ctx, petID, value)
	if err != nil {
		return ErrTokenInvalid
	}

	if s.now().After(t.ExpiresAt) {
		return ErrTokenExpired
	}
	return nil
}

// ListByPet lista los tokens del pet (vigentes o no) para la vista del guardian.
func (s *Service) ListByPet(ctx context.Context, petID string) ([]AccessToken, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPet(ctx, petID)
}

// 32 bytes aleatorios => 43 chars base64url, sin padding.
func randomValue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
