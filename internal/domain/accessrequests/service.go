package accessrequests

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"petbook-access/internal/domain/grants"
	"petbook-access/internal/domain/records"
	"petbook-access/internal/platform/logger"
	"petbook-access/internal/ports/identity"
	"petbook-access/internal/ports/notify"
	"petbook-access/internal/realtime"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrRequestNotFound = errors.New("request not found")
	ErrBadState        = errors.New("invalid state")
)

// TokenValidator evita importar accesstokens. Los errores de validación
// (token invalid / token expired) se propagan tal cual al caller.
type TokenValidator interface {
	Validate(ctx context.Context, petID, value string) error
}

// TemporaryGranter es la parte del grant store que usamos al aprobar.
type TemporaryGranter interface {
	GrantTemporary(ctx context.Context, petID, professionalID string, ttl time.Duration) (grants.Grant, error)
}

// RecordAppender agrega la entrada "consultation" automática al aprobar.
type RecordAppender interface {
	Append(ctx context.Context, petID string, actor records.Actor, in records.AppendInput) (records.HealthRecord, error)
}

// OwnerLookup resuelve el guardian de un pet.
type OwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type Service struct {
	repo     Repository
	tokens   TokenValidator
	granter  TemporaryGranter
	recorder RecordAppender
	owners   OwnerLookup
	profiles identity.Resolver // opcional: atribución por nombre
	bus      realtime.Bus
	notifier notify.Sink
	log      logger.Logger
	now      func() time.Time
}

type Deps struct {
	Repo     Repository
	Tokens   TokenValidator
	Granter  TemporaryGranter
	Recorder RecordAppender
	Owners   OwnerLookup
	Profiles identity.Resolver
	Bus      realtime.Bus
	Notifier notify.Sink
	Log      logger.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		repo:     d.Repo,
		tokens:   d.Tokens,
		granter:  d.Granter,
		recorder: d.Recorder,
		owners:   d.Owners,
		profiles: d.Profiles,
		bus:      d.Bus,
		notifier: d.Notifier,
		log:      d.Log,
		now:      time.Now,
	}
}

// Request crea el handshake: el profesional presenta el token escaneado.
// Si el token no valida, NO se crea nada y el error del validador
// (token invalid / expired) sube tal cual.
func (s *Service) Request(ctx context.Context, petID, professionalID, tokenValue string) (AccessRequest, error) {
	petID = strings.TrimSpace(petID)
	professionalID = strings.TrimSpace(professionalID)
	tokenValue = strings.TrimSpace(tokenValue)
	if petID == "" || professionalID == "" || tokenValue == "" {
		return AccessRequest{}, ErrInvalidInput
	}

	if err := s.tokens.Validate(ctx, petID, tokenValue); err != nil {
		return AccessRequest{}, err
	}

	req := AccessRequest{
		ID:             uuid.NewString(),
		PetID:          petID,
		ProfessionalID: professionalID,
		Status:         StatusPending,
		CreatedAt:      s.now(),
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return AccessRequest{}, err
	}

	// Señal realtime hacia la sesión del guardian (sin polling).
	s.publish(ctx, realtime.TopicPetAccessRequests(petID), realtime.Event{
		Type: realtime.EventAccessRequested,
		Data: map[string]string{
			"request_id":      req.ID,
			"pet_id":          req.PetID,
			"professional_id": req.ProfessionalID,
		},
		OccurredAt: req.CreatedAt,
	})

	s.notifyGuardian(ctx, req)

	return req, nil
}

// Resolution es el resultado de Approve/Reject.
// Grant viene solo cuando ESTA llamada creó el acceso temporal; en un
// re-approve idempotente (entrega duplicada) queda en nil.
type Resolution struct {
	Request AccessRequest
	Grant   *grants.Grant
}

// Approve: PENDING -> APPROVED. Crea un TemporaryAccess de 24h, agrega la
// entrada "consultation" automática atribuida al profesional, publica la
// resolución en request:{id} y notifica al profesional.
//
// Idempotente: aprobar un request ya APPROVED es no-op (no crea segundo
// grant), incluso con dos approves corriendo en paralelo: la transición
// PENDING -> APPROVED pasa por ResolvePending y solo un caller la gana.
// Todo-o-nada: si el grant no se puede crear, el request vuelve a PENDING.
func (s *Service) Approve(ctx context.Context, requestID string) (Resolution, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return Resolution{}, ErrInvalidInput
	}

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return Resolution{}, ErrRequestNotFound
	}

	// Entrega duplicada de "approve": no-op.
	if req.Status == StatusApproved {
		return Resolution{Request: req}, nil
	}
	if req.Status != StatusPending {
		return Resolution{}, ErrBadState
	}

	now := s.now()
	req.Status = StatusApproved
	req.ResolvedAt = &now
	if err := s.repo.ResolvePending(ctx, req); err != nil {
		if errors.Is(err, ErrAlreadyResolved) {
			return s.afterLostRace(ctx, requestID, StatusApproved)
		}
		return Resolution{}, err
	}

	g, err := s.granter.GrantTemporary(ctx, req.PetID, req.ProfessionalID, TemporaryAccessTTL)
	if err != nil {
		// Revertimos: un request APPROVED sin grant es un estado inválido.
		req.Status = StatusPending
		req.ResolvedAt = nil
		if revErr := s.repo.Update(ctx, req); revErr != nil {
			s.log.Error().Err(revErr).Str("request_id", req.ID).
				Msg("accessrequests: grant failed and revert failed, request left approved without grant")
		}
		return Resolution{}, err
	}

	s.appendConsultation(ctx, req)

	s.publishResolution(ctx, req)
	s.notifyProfessional(ctx, req, "El guardian aprobó tu solicitud de acceso")

	return Resolution{Request: req, Grant: &g}, nil
}

// Reject: PENDING -> REJECTED. No crea ningún grant.
// Idempotente sobre un request ya REJECTED.
func (s *Service) Reject(ctx context.Context, requestID string) (Resolution, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return Resolution{}, ErrInvalidInput
	}

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return Resolution{}, ErrRequestNotFound
	}

	if req.Status == StatusRejected {
		return Resolution{Request: req}, nil
	}
	if req.Status != StatusPending {
		return Resolution{}, ErrBadState
	}

	now := s.now()
	req.Status = StatusRejected
	req.ResolvedAt = &now
	if err := s.repo.ResolvePending(ctx, req); err != nil {
		if errors.Is(err, ErrAlreadyResolved) {
			return s.afterLostRace(ctx, requestID, StatusRejected)
		}
		return Resolution{}, err
	}

	s.publishResolution(ctx, req)
	s.notifyProfessional(ctx, req, "El guardian rechazó tu solicitud de acceso")

	return Resolution{Request: req}, nil
}

// afterLostRace relee el request cuando otro caller ganó la transición
// PENDING -> terminal. Si el ganador lo dejó en el estado que este caller
// quería, es el mismo no-op idempotente de la entrega duplicada (sin
// grant ni efectos nuevos); si quedó en el estado contrario, ErrBadState.
func (s *Service) afterLostRace(ctx context.Context, requestID string, wanted Status) (Resolution, error) {
	cur, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return Resolution{}, ErrRequestNotFound
	}
	if cur.Status == wanted {
		return Resolution{Request: cur}, nil
	}
	return Resolution{}, ErrBadState
}

// AwaitResolution bloquea hasta que el request quede resuelto o el ctx muera.
// Es la espera larga del lado profesional después de escanear el QR: no hay
// timeout del server, se cancela solo vía ctx (cliente que abandona).
//
// Se suscribe ANTES de chequear el estado actual para no perder una
// resolución que corra en paralelo. Eventos duplicados son no-ops: siempre
// se relee el estado del repo.
func (s *Service) AwaitResolution(ctx context.Context, requestID string) (AccessRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return AccessRequest{}, ErrInvalidInput
	}

	sub, err := s.bus.Subscribe(ctx, realtime.TopicRequest(requestID))
	if err != nil {
		return AccessRequest{}, err
	}
	defer sub.Close()

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return AccessRequest{}, ErrRequestNotFound
	}
	if req.Terminal() {
		return req, nil
	}

	for {
		select {
		case _, open := <-sub.C:
			if !open {
				return AccessRequest{}, ctx.Err()
			}
			// Releer estado real: el evento es solo la señal.
			req, err := s.repo.GetByID(ctx, requestID)
			if err != nil {
				return AccessRequest{}, ErrRequestNotFound
			}
			if req.Terminal() {
				return req, nil
			}
		case <-ctx.Done():
			return AccessRequest{}, ctx.Err()
		}
	}
}

func (s *Service) GetByID(ctx context.Context, requestID string) (AccessRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return AccessRequest{}, ErrInvalidInput
	}
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return AccessRequest{}, ErrRequestNotFound
	}
	return req, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]AccessRequest, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPet(ctx, petID)
}

// appendConsultation agrega la entrada automática de tipo CONSULTATION
// atribuida al profesional. Best-effort: si falla queda logueado, el
// acceso ya fue otorgado.
func (s *Service) appendConsultation(ctx context.Context, req AccessRequest) {
	if s.recorder == nil {
		return
	}

	name := req.ProfessionalID
	if s.profiles != nil {
		if p, err := s.profiles.Resolve(ctx, req.ProfessionalID); err == nil && strings.TrimSpace(p.DisplayName) != "" {
			name = p.DisplayName
		}
	}

	_, err := s.recorder.Append(ctx, req.PetID, records.Actor{
		Type: records.ActorTypeProfessional,
		ID:   req.ProfessionalID,
		Name: name,
	}, records.AppendInput{
		Type:   records.RecordTypeConsultation,
		Title:  "Consulta con " + name,
		Notes:  "Acceso aprobado vía QR",
		Source: records.SourceApproval,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("request_id", req.ID).
			Msg("accessrequests: consultation record append failed")
	}
}

func (s *Service) publishResolution(ctx context.Context, req AccessRequest) {
	s.publish(ctx, realtime.TopicRequest(req.ID), realtime.Event{
		Type: realtime.EventAccessResolved,
		Data: map[string]string{
			"request_id": req.ID,
			"pet_id":     req.PetID,
			"status":     string(req.Status),
		},
		OccurredAt: s.now(),
	})
}

func (s *Service) publish(ctx context.Context, topic string, ev realtime.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, topic, ev); err != nil {
		s.log.Warn().Err(err).Str("topic", topic).Msg("accessrequests: publish failed")
	}
}

func (s *Service) notifyGuardian(ctx context.Context, req AccessRequest) {
	if s.notifier == nil || s.owners == nil {
		return
	}
	ownerID, err := s.owners.OwnerOf(ctx, req.PetID)
	if err != nil || strings.TrimSpace(ownerID) == "" {
		s.log.Warn().Err(err).Str("pet_id", req.PetID).
			Msg("accessrequests: owner lookup failed, skipping notification")
		return
	}
	err = s.notifier.Send(ctx, notify.Notification{
		Type:        notify.TypeAccessRequested,
		RecipientID: ownerID,
		Message:     "Un profesional escaneó el QR y solicita acceso al historial",
		Related: map[string]string{
			"request_id":      req.ID,
			"pet_id":          req.PetID,
			"professional_id": req.ProfessionalID,
		},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("request_id", req.ID).Msg("accessrequests: notify guardian failed")
	}
}

func (s *Service) notifyProfessional(ctx context.Context, req AccessRequest, msg string) {
	if s.notifier == nil {
		return
	}
	typ := notify.TypeAccessApproved
	if req.Status == StatusRejected {
		typ = notify.TypeAccessRejected
	}
	err := s.notifier.Send(ctx, notify.Notification{
		Type:        typ,
		RecipientID: req.ProfessionalID,
		Message:     msg,
		Related: map[string]string{
			"request_id": req.ID,
			"pet_id":     req.PetID,
			"status":     string(req.Status),
		},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("request_id", req.ID).Msg("accessrequests: notify professional failed")
	}
}
