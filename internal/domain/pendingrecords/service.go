package pendingrecords

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"petbook-access/internal/domain/records"
	"petbook-access/internal/platform/logger"
	"petbook-access/internal/ports/notify"
	"petbook-access/internal/realtime"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrBadState     = errors.New("invalid state")

	// ErrNotAuthorized: el profesional no pasa CheckAccess al momento
	// del submit. Terminal para el caller: tiene que conseguir acceso
	// (QR, grant o emergencia) y reintentar.
	ErrNotAuthorized = errors.New("not authorized")
)

// AccessChecker evita importar grants.
type AccessChecker interface {
	CheckAccess(ctx context.Context, petID, professionalID string) (bool, error)
}

// OwnerLookup resuelve el guardian para notificarlo.
type OwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

// RecordAppender materializa la entrada canónica al aprobar (solo si la
// política Materialize está activa).
type RecordAppender interface {
	Append(ctx context.Context, petID string, actor records.Actor, in records.AppendInput) (records.HealthRecord, error)
}

type Service struct {
	repo     Repository
	access   AccessChecker
	owners   OwnerLookup
	recorder RecordAppender
	bus      realtime.Bus
	notifier notify.Sink
	log      logger.Logger
	now      func() time.Time

	// materialize: al aprobar, además de flipear el status, se agrega la
	// entrada al historial canónico. Default false (comportamiento
	// observado en producto: solo cambia el status).
	materialize bool
}

type Deps struct {
	Repo        Repository
	Access      AccessChecker
	Owners      OwnerLookup
	Recorder    RecordAppender
	Bus         realtime.Bus
	Notifier    notify.Sink
	Log         logger.Logger
	Materialize bool
}

func NewService(d Deps) *Service {
	return &Service{
		repo:        d.Repo,
		access:      d.Access,
		owners:      d.Owners,
		recorder:    d.Recorder,
		bus:         d.Bus,
		notifier:    d.Notifier,
		log:         d.Log,
		now:         time.Now,
		materialize: d.Materialize,
	}
}

// Submit crea la entrada en staging. Exige que el profesional pase
// CheckAccess AHORA; si no, ErrNotAuthorized y no se crea nada.
func (s *Service) Submit(ctx context.Context, petID, professionalID string, payload Payload) (PendingHealthRecord, error) {
	petID = strings.TrimSpace(petID)
	professionalID = strings.TrimSpace(professionalID)
	if petID == "" || professionalID == "" {
		return PendingHealthRecord{}, ErrInvalidInput
	}
	if strings.TrimSpace(payload.Title) == "" || payload.Type == "" {
		return PendingHealthRecord{}, ErrInvalidInput
	}

	allowed, err := s.access.CheckAccess(ctx, petID, professionalID)
	if err != nil {
		return PendingHealthRecord{}, err
	}
	if !allowed {
		return PendingHealthRecord{}, ErrNotAuthorized
	}

	now := s.now()
	if payload.Date.IsZero() {
		payload.Date = now
	}
	payload.Title = strings.TrimSpace(payload.Title)
	payload.Notes = strings.TrimSpace(payload.Notes)

	p := PendingHealthRecord{
		ID:             uuid.NewString(),
		PetID:          petID,
		ProfessionalID: professionalID,
		Payload:        payload,
		Status:         StatusPending,
		CreatedAt:      now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return PendingHealthRecord{}, err
	}

	s.publish(ctx, realtime.TopicPetPendingRecords(petID), realtime.Event{
		Type: realtime.EventPendingRecordCreated,
		Data: map[string]string{
			"pending_id":      p.ID,
			"pet_id":          p.PetID,
			"professional_id": p.ProfessionalID,
		},
		OccurredAt: now,
	})

	s.notifyGuardian(ctx, p)

	return p, nil
}

// Resolve flipea el status a approved|rejected. El payload no se toca.
// Idempotente: re-resolver con la MISMA decisión es no-op; con la
// contraria, ErrBadState (la transición pending->terminal es única).
func (s *Service) Resolve(ctx context.Context, pendingID string, decision Status) (PendingHealthRecord, error) {
	pendingID = strings.TrimSpace(pendingID)
	if pendingID == "" {
		return PendingHealthRecord{}, ErrInvalidInput
	}
	if decision != StatusApproved && decision != StatusRejected {
		return PendingHealthRecord{}, ErrInvalidInput
	}

	p, err := s.repo.GetByID(ctx, pendingID)
	if err != nil {
		return PendingHealthRecord{}, ErrNotFound
	}

	if p.Status == decision {
		return p, nil
	}
	if p.Status != StatusPending {
		return PendingHealthRecord{}, ErrBadState
	}

	now := s.now()
	p.Status = decision
	p.ResolvedAt = &now

	if err := s.repo.Update(ctx, p); err != nil {
		return PendingHealthRecord{}, err
	}

	if decision == StatusApproved && s.materialize {
		s.materializeRecord(ctx, p)
	}

	s.notifyProfessional(ctx, p)

	return p, nil
}

func (s *Service) GetByID(ctx context.Context, pendingID string) (PendingHealthRecord, error) {
	pendingID = strings.TrimSpace(pendingID)
	if pendingID == "" {
		return PendingHealthRecord{}, ErrInvalidInput
	}
	p, err := s.repo.GetByID(ctx, pendingID)
	if err != nil {
		return PendingHealthRecord{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]PendingHealthRecord, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPet(ctx, petID)
}

func (s *Service) ListByProfessional(ctx context.Context, professionalID string) ([]PendingHealthRecord, error) {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByProfessional(ctx, professionalID)
}

// materializeRecord copia el payload aprobado al historial canónico.
// Best-effort: el pending ya quedó approved; si esto falla, se loguea.
func (s *Service) materializeRecord(ctx context.Context, p PendingHealthRecord) {
	if s.recorder == nil {
		return
	}
	_, err := s.recorder.Append(ctx, p.PetID, records.Actor{
		Type: records.ActorTypeProfessional,
		ID:   p.ProfessionalID,
	}, records.AppendInput{
		Type:       p.Payload.Type,
		Title:      p.Payload.Title,
		Notes:      p.Payload.Notes,
		OccurredAt: p.Payload.Date,
		Source:     records.SourceCoauthor,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("pending_id", p.ID).
			Msg("pendingrecords: materialize failed")
	}
}

func (s *Service) publish(ctx context.Context, topic string, ev realtime.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, topic, ev); err != nil {
		s.log.Warn().Err(err).Str("topic", topic).Msg("pendingrecords: publish failed")
	}
}

func (s *Service) notifyGuardian(ctx context.Context, p PendingHealthRecord) {
	if s.notifier == nil || s.owners == nil {
		return
	}
	ownerID, err := s.owners.OwnerOf(ctx, p.PetID)
	if err != nil || strings.TrimSpace(ownerID) == "" {
		s.log.Warn().Err(err).Str("pet_id", p.PetID).
			Msg("pendingrecords: owner lookup failed, skipping notification")
		return
	}
	err = s.notifier.Send(ctx, notify.Notification{
		Type:        notify.TypePendingRecordCreated,
		RecipientID: ownerID,
		Message:     "Un profesional propuso una entrada al historial: " + p.Payload.Title,
		Related: map[string]string{
			"pending_id":      p.ID,
			"pet_id":          p.PetID,
			"professional_id": p.ProfessionalID,
		},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("pending_id", p.ID).Msg("pendingrecords: notify guardian failed")
	}
}

func (s *Service) notifyProfessional(ctx context.Context, p PendingHealthRecord) {
	if s.notifier == nil {
		return
	}
	msg := "El guardian aprobó tu entrada: " + p.Payload.Title
	if p.Status == StatusRejected {
		msg = "El guardian rechazó tu entrada: " + p.Payload.Title
	}
	err := s.notifier.Send(ctx, notify.Notification{
		Type:        notify.TypePendingRecordSolved,
		RecipientID: p.ProfessionalID,
		Message:     msg,
		Related: map[string]string{
			"pending_id": p.ID,
			"pet_id":     p.PetID,
			"status":     string(p.Status),
		},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("pending_id", p.ID).Msg("pendingrecords: notify professional failed")
	}
}
