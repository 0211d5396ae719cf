package notifications

import (
	"context"
	"errors"
	"testing"

	"petbook-access/internal/platform/logger"
	"petbook-access/internal/ports/notify"
)

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Notification
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Notification{}}
}

func (r *testRepo) Create(ctx context.Context, n Notification) error {
	if n.ID == "" {
		return errors.New("repo: id required")
	}
	r.byID[n.ID] = n
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Notification, error) {
	n, ok := r.byID[id]
	if !ok {
		return Notification{}, errRepoNotFound
	}
	return n, nil
}

func (r *testRepo) ListByRecipient(ctx context.Context, recipientID string) ([]Notification, error) {
	out := make([]Notification, 0)
	for _, n := range r.byID {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *testRepo) MarkRead(ctx context.Context, id string) error {
	n, ok := r.byID[id]
	if !ok {
		return errRepoNotFound
	}
	n.IsRead = true
	r.byID[id] = n
	return nil
}

func TestService_Send_PersistsNotification(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, logger.Nop())

	err := svc.Send(context.Background(), notify.Notification{
		Type:        notify.TypeAccessRequested,
		RecipientID: "guardian-1",
		Message:     "hola",
		Related:     map[string]string{"pet_id": "pet-1"},
	})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}

	items, err := svc.ListByRecipient(context.Background(), "guardian-1")
	if err != nil {
		t.Fatalf("ListByRecipient error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(items))
	}
	if items[0].IsRead {
		t.Fatalf("expected unread notification")
	}
	if items[0].Related["pet_id"] != "pet-1" {
		t.Fatalf("expected related ids preserved")
	}
}

func TestService_Send_NeverDeduplicates(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, logger.Nop())

	n := notify.Notification{Type: notify.TypeAccessApproved, RecipientID: "pro-1"}
	if err := svc.Send(context.Background(), n); err != nil {
		t.Fatalf("Send #1 error: %v", err)
	}
	if err := svc.Send(context.Background(), n); err != nil {
		t.Fatalf("Send #2 error: %v", err)
	}

	items, _ := svc.ListByRecipient(context.Background(), "pro-1")
	if len(items) != 2 {
		t.Fatalf("expected 2 notifications (at-least-once), got %d", len(items))
	}
}

func TestService_Send_InvalidInput(t *testing.T) {
	svc := NewService(newTestRepo(), logger.Nop())

	if err := svc.Send(context.Background(), notify.Notification{RecipientID: "x"}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput without type, got %v", err)
	}
	if err := svc.Send(context.Background(), notify.Notification{Type: "x"}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput without recipient, got %v", err)
	}
}

func TestService_MarkRead_ChecksRecipient(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, logger.Nop())

	if err := svc.Send(context.Background(), notify.Notification{
		Type:        notify.TypeGrantUpdated,
		RecipientID: "pro-1",
	}); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	items, _ := svc.ListByRecipient(context.Background(), "pro-1")
	id := items[0].ID

	// Otro usuario no puede marcarla.
	if err := svc.MarkRead(context.Background(), id, "intruso"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for wrong recipient, got %v", err)
	}

	if err := svc.MarkRead(context.Background(), id, "pro-1"); err != nil {
		t.Fatalf("MarkRead error: %v", err)
	}

	items, _ = svc.ListByRecipient(context.Background(), "pro-1")
	if !items[0].IsRead {
		t.Fatalf("expected notification marked read")
	}
}
