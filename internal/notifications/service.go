package notifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"petbook-access/internal/platform/logger"
	"petbook-access/internal/ports/notify"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Send implementa notify.Sink. Los services del dominio lo llaman
// fire-and-forget; acá solo persistimos para que la UI lo levante.
func (s *Service) Send(ctx context.Context, in notify.Notification) error {
	if strings.TrimSpace(in.RecipientID) == "" || strings.TrimSpace(in.Type) == "" {
		return ErrInvalidInput
	}

	n := Notification{
		ID:          uuid.NewString(),
		Type:        in.Type,
		RecipientID: in.RecipientID,
		Message:     in.Message,
		Related:     in.Related,
		IsRead:      false,
		CreatedAt:   s.now(),
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	s.log.Debug().
		Str("type", n.Type).
		Str("recipient_id", n.RecipientID).
		Msg("notifications: created")
	return nil
}

func (s *Service) ListByRecipient(ctx context.Context, recipientID string) ([]Notification, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByRecipient(ctx, recipientID)
}

// MarkRead marca como leída, validando que la notificación sea del caller.
func (s *Service) MarkRead(ctx context.Context, id, recipientID string) error {
	id = strings.TrimSpace(id)
	recipientID = strings.TrimSpace(recipientID)
	if id == "" || recipientID == "" {
		return ErrInvalidInput
	}

	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	if n.RecipientID != recipientID {
		return ErrNotFound
	}
	return s.repo.MarkRead(ctx, id)
}
