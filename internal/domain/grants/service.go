package grants

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
	ErrBadState     = errors.New("invalid state")
)

// OwnerLookup resuelve el guardian de un pet (evita importar pets).
type OwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type Service struct {
	repo     Repository
	owners   OwnerLookup
	notifier notify.Sink
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, owners OwnerLookup, notifier notify.Sink, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		owners:   owners,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// RequestGrant es la vía desde el perfil del pet (independiente del QR):
// el profesional pide acceso y queda PENDING hasta que el guardian decida.
//
// Máquina de estados (kind=persistent):
//
//	NONE --(request)--> PENDING --(granted)--> GRANTED --(revoked)--> REVOKED
//	REVOKED --(re-request)--> PENDING
//
// Idempotente: si ya hay un grant pending/granted para el par, se devuelve ese.
func (s *Service) RequestGrant(ctx context.Context, petID, professionalID string) (Grant, error) {
	petID = strings.TrimSpace(petID)
	professionalID = strings.TrimSpace(professionalID)
	if petID == "" || professionalID == "" {
		return Grant{}, ErrInvalidInput
	}

	now := s.now()

	if existing, ok := s.latestPersistent(ctx, petID, professionalID); ok {
		switch existing.Status {
		case StatusPending, StatusGranted:
			return existing, nil
		case StatusRevoked:
			// Re-request después de revoke: mismo registro vuelve a pending.
			existing.Status = StatusPending
			existing.GrantedAt = nil
			existing.RevokedAt = nil
			existing.UpdatedAt = now
			if err := s.repo.Update(ctx, existing); err != nil {
				return Grant{}, err
			}
			s.notifyGuardian(ctx, existing)
			return existing, nil
		}
	}

	g := Grant{
		ID:             uuid.NewString(),
		PetID:          petID,
		ProfessionalID: professionalID,
		Kind:           KindPersistent,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return Grant{}, err
	}

	s.notifyGuardian(ctx, g)
	return g, nil
}

// SetStatus resuelve un grant persistent: granted o revoked.
// granted: setea GrantedAt y limpia RevokedAt. revoked: al revés.
// Cada transición dispara una notificación al profesional.
func (s *Service) SetStatus(ctx context.Context, grantID string, status Status) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	if grantID == "" {
		return Grant{}, ErrInvalidInput
	}
	if status != StatusGranted && status != StatusRevoked {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	if g.Kind != KindPersistent {
		// Los temporary no se revocan ni se "otorgan": solo expiran.
		return Grant{}, ErrBadState
	}

	// Idempotente
	if g.Status == status {
		return g, nil
	}

	now := s.now()
	switch status {
	case StatusGranted:
		if g.Status != StatusPending {
			return Grant{}, ErrBadState
		}
		g.Status = StatusGranted
		g.GrantedAt = &now
		g.RevokedAt = nil
	case StatusRevoked:
		// Se puede revocar un grant activo o uno todavía pending.
		g.Status = StatusRevoked
		g.RevokedAt = &now
		g.GrantedAt = nil
	}
	g.UpdatedAt = now

	if err := s.repo.Update(ctx, g); err != nil {
		return Grant{}, err
	}

	s.notifyProfessional(ctx, g)
	return g, nil
}

// GrantTemporary crea un TemporaryAccess con expiración now+ttl.
// Lo usan la aprobación del handshake (24h) y la emergencia (12h).
func (s *Service) GrantTemporary(ctx context.Context, petID, professionalID string, ttl time.Duration) (Grant, error) {
	petID = strings.TrimSpace(petID)
	professionalID = strings.TrimSpace(professionalID)
	if petID == "" || professionalID == "" || ttl <= 0 {
		return Grant{}, ErrInvalidInput
	}

	now := s.now()
	exp := now.Add(ttl)

	g := Grant{
		ID:             uuid.NewString(),
		PetID:          petID,
		ProfessionalID: professionalID,
		Kind:           KindTemporary,
		Status:         StatusGranted,
		GrantedAt:      &now,
		ExpiresAt:      &exp,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

// CheckAccess responde si el profesional tiene acceso al pet AHORA.
// true si existe (a) un persistent GRANTED, o (b) un temporary no expirado.
// Siempre se miran las dos vías; los stores son independientes.
func (s *Service) CheckAccess(ctx context.Context, petID, professionalID string) (bool, error) {
	petID = strings.TrimSpace(petID)
	professionalID = strings.TrimSpace(professionalID)
	if petID == "" || professionalID == "" {
		return false, ErrInvalidInput
	}

	items, err := s.repo.ListByPair(ctx, petID, professionalID)
	if err != nil {
		return false, err
	}

	now := s.now()
	for _, g := range items {
		if g.ActiveAt(now) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) GetByID(ctx context.Context, grantID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	if grantID == "" {
		return Grant{}, ErrInvalidInput
	}
	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, ErrNotFound
	}
	return g, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]Grant, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPet(ctx, petID)
}

func (s *Service) ListByProfessional(ctx context.Context, professionalID string) ([]Grant, error) {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByProfessional(ctx, professionalID)
}

// latestPersistent devuelve el persistent más reciente del par (por UpdatedAt).
func (s *Service) latestPersistent(ctx context.Context, petID, professionalID string) (Grant, bool) {
	items, err := s.repo.ListByPair(ctx, petID, professionalID)
	if err != nil {
		return Grant{}, false
	}

	var winner Grant
	has := false
	for _, g := range items {
		if g.Kind != KindPersistent {
			continue
		}
		if !has || g.UpdatedAt.After(winner.UpdatedAt) {
			winner = g
			has = true
		}
	}
	return winner, has
}

func (s *Service) notifyGuardian(ctx context.Context, g Grant) {
	if s.notifier == nil || s.owners == nil {
		return
	}
	ownerID, err := s.owners.OwnerOf(ctx, g.PetID)
	if err != nil || strings.TrimSpace(ownerID) == "" {
		s.log.Warn().Err(err).Str("pet_id", g.PetID).Msg("grants: owner lookup failed, skipping notification")
		return
	}
	err = s.notifier.Send(ctx, notify.Notification{
		Type:        notify.TypeGrantRequested,
		RecipientID: ownerID,
		Message:     "Un profesional solicitó acceso al historial de salud de tu mascota",
		Related: map[string]string{
			"grant_id":        g.ID,
			"pet_id":          g.PetID,
			"professional_id": g.ProfessionalID,
		},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("grant_id", g.ID).Msg("grants: notify guardian failed")
	}
}

func (s *Service) notifyProfessional(ctx context.Context, g Grant) {
	if s.notifier == nil {
		return
	}
	msg := "El guardian actualizó tu acceso"
	switch g.Status {
	case StatusGranted:
		msg = "El guardian te otorgó acceso al historial de salud"
	case StatusRevoked:
		msg = "El guardian revocó tu acceso al historial de salud"
	}
	err := s.notifier.Send(ctx, notify.Notification{
		Type:        notify.TypeGrantUpdated,
		RecipientID: g.ProfessionalID,
		Message:     msg,
		Related: map[string]string{
			"grant_id": g.ID,
			"pet_id":   g.PetID,
			"status":   string(g.Status),
		},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("grant_id", g.ID).Msg("grants: notify professional failed")
	}
}
