package emergency

import (
	"context"
	"errors"
	"strings"
	"time"

	"petbook-access/internal/domain/grants"
	"petbook-access/internal/domain/records"
	"petbook-access/internal/platform/logger"
	"petbook-access/internal/ports/identity"
	"petbook-access/internal/ports/notify"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// TemporaryGranter es la parte del grant store que usa la emergencia.
type TemporaryGranter interface {
	GrantTemporary(ctx context.Context, petID, professionalID string, ttl time.Duration) (grants.Grant, error)
}

// RecordAppender agrega la entrada de consulta automática de la emergencia.
type RecordAppender interface {
	Append(ctx context.Context, petID string, actor records.Actor, in records.AppendInput) (records.HealthRecord, error)
}

type Service struct {
	granter  TemporaryGranter
	recorder RecordAppender
	profiles identity.Resolver
	notifier notify.Sink
	log      logger.Logger
	now      func() time.Time
}

func NewService(granter TemporaryGranter, recorder RecordAppender, profiles identity.Resolver, notifier notify.Sink, log logger.Logger) *Service {
	return &Service{
		granter:  granter,
		recorder: recorder,
		profiles: profiles,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Trigger es la vía de emergencia: se saltea la aprobación del guardian
// por completo. Crea un TemporaryAccess de 12h YA y notifica al profesional
// con los datos críticos (alergias, medicaciones). No se crea ningún
// AccessRequest.
//
// El tradeoff sin consentimiento es deliberado (cuidado crítico no puede
// esperar una aprobación asíncrona); por eso cada disparo queda en el log
// de auditoría.
func (s *Service) Trigger(ctx context.Context, petID, professionalID string, payload Payload) (grants.Grant, error) {
	petID = strings.TrimSpace(petID)
	professionalID = strings.TrimSpace(professionalID)
	if petID == "" || professionalID == "" {
		return grants.Grant{}, ErrInvalidInput
	}

	g, err := s.granter.GrantTemporary(ctx, petID, professionalID, TemporaryAccessTTL)
	if err != nil {
		return grants.Grant{}, err
	}

	// Auditoría del bypass de consentimiento.
	s.log.Warn().
		Str("pet_id", petID).
		Str("professional_id", professionalID).
		Str("grant_id", g.ID).
		Str("reason", payload.Reason).
		Time("expires_at", derefTime(g.ExpiresAt)).
		Msg("emergency: consent-free temporary access granted")

	s.appendConsultation(ctx, petID, professionalID, payload)
	s.notifyProfessional(ctx, g, payload)

	return g, nil
}

func (s *Service) appendConsultation(ctx context.Context, petID, professionalID string, payload Payload) {
	if s.recorder == nil {
		return
	}

	name := professionalID
	if s.profiles != nil {
		if p, err := s.profiles.Resolve(ctx, professionalID); err == nil && strings.TrimSpace(p.DisplayName) != "" {
			name = p.DisplayName
		}
	}

	notes := "Atención de emergencia"
	if strings.TrimSpace(payload.Reason) != "" {
		notes += ": " + strings.TrimSpace(payload.Reason)
	}

	_, err := s.recorder.Append(ctx, petID, records.Actor{
		Type: records.ActorTypeProfessional,
		ID:   professionalID,
		Name: name,
	}, records.AppendInput{
		Type:   records.RecordTypeConsultation,
		Title:  "Consulta de emergencia con " + name,
		Notes:  notes,
		Source: records.SourceEmergency,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("pet_id", petID).
			Msg("emergency: consultation record append failed")
	}
}

func (s *Service) notifyProfessional(ctx context.Context, g grants.Grant, payload Payload) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.Send(ctx, notify.Notification{
		Type:        notify.TypeEmergencyAlert,
		RecipientID: g.ProfessionalID,
		Message:     summarize(payload),
		Related: map[string]string{
			"grant_id": g.ID,
			"pet_id":   g.PetID,
		},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("grant_id", g.ID).Msg("emergency: notify professional failed")
	}
}

// summarize arma el resumen de datos críticos para el mensaje de la alerta.
func summarize(p Payload) string {
	parts := []string{"Alerta de emergencia"}
	if strings.TrimSpace(p.Reason) != "" {
		parts = append(parts, "Motivo: "+strings.TrimSpace(p.Reason))
	}
	if len(p.Allergies) > 0 {
		parts = append(parts, "Alergias: "+strings.Join(p.Allergies, ", "))
	}
	if len(p.Medications) > 0 {
		parts = append(parts, "Medicaciones: "+strings.Join(p.Medications, ", "))
	}
	if strings.TrimSpace(p.Notes) != "" {
		parts = append(parts, p.Notes)
	}
	return strings.Join(parts, ". ")
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
