package records

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]HealthRecord
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]HealthRecord{}}
}

func (r *testRepo) Create(ctx context.Context, rec HealthRecord) error {
	if rec.ID == "" {
		return errors.New("repo: id required")
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (HealthRecord, error) {
	rec, ok := r.byID[id]
	if !ok {
		return HealthRecord{}, errRepoNotFound
	}
	return rec, nil
}

func (r *testRepo) ListByPet(ctx context.Context, petID string, filter ListFilter) ([]HealthRecord, error) {
	out := make([]HealthRecord, 0)
	for _, rec := range r.byID {
		if rec.PetID == petID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func TestService_Append_Defaults(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	rec, err := svc.Append(context.Background(), "pet-1", Actor{
		Type: ActorTypeGuardian,
		ID:   "guardian-1",
	}, AppendInput{
		Type:  RecordTypeVaccine,
		Title: " Antirrábica ",
	})
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}

	if rec.Source != SourceManual {
		t.Fatalf("expected manual source by default, got %s", rec.Source)
	}
	if rec.OccurredAt != now || rec.RecordedAt != now {
		t.Fatalf("expected OccurredAt/RecordedAt defaulted to now")
	}
	if rec.Title != "Antirrábica" {
		t.Fatalf("expected trimmed title, got %q", rec.Title)
	}
}

func TestService_Append_KeepsExplicitOccurredAt(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	occurred := time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)
	rec, err := svc.Append(context.Background(), "pet-1", Actor{
		Type: ActorTypeProfessional,
		ID:   "pro-1",
		Name: "Dra. Gómez",
	}, AppendInput{
		Type:       RecordTypeConsultation,
		Title:      "Control",
		OccurredAt: occurred,
		Source:     SourceApproval,
	})
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}

	if rec.OccurredAt != occurred {
		t.Fatalf("expected explicit OccurredAt kept")
	}
	if rec.Source != SourceApproval {
		t.Fatalf("expected explicit source kept")
	}
	// La atribución congela el nombre al momento del append.
	if rec.Actor.Name != "Dra. Gómez" {
		t.Fatalf("expected actor name preserved, got %q", rec.Actor.Name)
	}
}

func TestService_Append_InvalidInput(t *testing.T) {
	svc := NewService(newTestRepo())

	if _, err := svc.Append(context.Background(), "", Actor{Type: ActorTypeGuardian, ID: "g"}, AppendInput{Type: RecordTypeNote}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput without pet, got %v", err)
	}
	if _, err := svc.Append(context.Background(), "pet-1", Actor{}, AppendInput{Type: RecordTypeNote}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput without actor, got %v", err)
	}
	if _, err := svc.Append(context.Background(), "pet-1", Actor{Type: ActorTypeGuardian, ID: "g"}, AppendInput{}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput without type, got %v", err)
	}
}
