package pets

import (
	"context"
	"errors"
	"testing"
)

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Pet
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Pet{}}
}

func (r *testRepo) Create(ctx context.Context, p Pet) error {
	if p.ID == "" {
		return errors.New("repo: id required")
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, errRepoNotFound
	}
	return p, nil
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if p.OwnerUserID == ownerUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestService_Create_NormalizesEnums(t *testing.T) {
	svc := NewService(newTestRepo())

	p, err := svc.Create(context.Background(), "guardian-1", CreateInput{
		Name:    "Milo",
		Species: "DOG",
		Sex:     "dragón",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if p.Species != SpeciesDog {
		t.Fatalf("expected dog, got %s", p.Species)
	}
	// Valores desconocidos caen a los defaults seguros.
	if p.Sex != SexUnknown {
		t.Fatalf("expected unknown sex, got %s", p.Sex)
	}
	if p.OwnerUserID != "guardian-1" {
		t.Fatalf("expected owner set")
	}
}

func TestService_Create_RequiresName(t *testing.T) {
	svc := NewService(newTestRepo())

	if _, err := svc.Create(context.Background(), "guardian-1", CreateInput{Name: "  "}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_GetByID_NotFound(t *testing.T) {
	svc := NewService(newTestRepo())

	if _, err := svc.GetByID(context.Background(), "ghost"); err != ErrPetNotFound {
		t.Fatalf("expected ErrPetNotFound, got %v", err)
	}
}

func TestService_OwnerOf(t *testing.T) {
	svc := NewService(newTestRepo())

	p, err := svc.Create(context.Background(), "guardian-1", CreateInput{Name: "Milo"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	owner, err := svc.OwnerOf(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("OwnerOf error: %v", err)
	}
	if owner != "guardian-1" {
		t.Fatalf("expected guardian-1, got %s", owner)
	}
}
