package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
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

type AppendInput struct {
	Type       RecordType
	Title      string
	Notes      string
	OccurredAt time.Time
	Source     Source
}

// Append agrega una entrada canónica al historial del pet.
func (s *Service) Append(ctx context.Context, petID string, actor Actor, in AppendInput) (HealthRecord, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" || in.Type == "" {
		return HealthRecord{}, ErrInvalidInput
	}
	if actor.Type == "" || strings.TrimSpace(actor.ID) == "" {
		return HealthRecord{}, ErrInvalidInput
	}

	now := s.now()

	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	src := in.Source
	if src == "" {
		src = SourceManual
	}

	rec := HealthRecord{
		ID:         uuid.NewString(),
		PetID:      petID,
		Type:       in.Type,
		Title:      strings.TrimSpace(in.Title),
		Notes:      strings.TrimSpace(in.Notes),
		Actor:      actor,
		Source:     src,
		OccurredAt: occurred,
		RecordedAt: now,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return HealthRecord{}, err
	}
	return rec, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (HealthRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return HealthRecord{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPet(ctx context.Context, petID string, filter ListFilter) ([]HealthRecord, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPet(ctx, petID, filter)
}
