// Package actions expone el punto de entrada único de la app móvil:
// un POST /actions con discriminador "action" en el body JSON.
// Es el contrato externo del handshake; las rutas REST por módulo
// existen además para las vistas web.
package actions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"petbook-access/internal/domain/accessrequests"
	"petbook-access/internal/domain/accesstokens"
	"petbook-access/internal/domain/emergency"
	"petbook-access/internal/middleware"
)

const (
	ActionRequestAccess  = "request_access"
	ActionApproveAccess  = "approve_access"
	ActionRejectAccess   = "reject_access"
	ActionEmergencyAlert = "send_emergency_alert"
)

// PetOwnerLookup evita importar el paquete pets.
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type Handler struct {
	requests  *accessrequests.Service
	emergency *emergency.Service
	petOwners PetOwnerLookup
	validate  *validator.Validate
}

func NewHandler(requests *accessrequests.Service, emg *emergency.Service, petOwners PetOwnerLookup) *Handler {
	return &Handler{
		requests:  requests,
		emergency: emg,
		petOwners: petOwners,
		validate:  validator.New(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/actions", h.dispatch)
}

type envelope struct {
	Action string `json:"action" validate:"required"`
}

type requestAccessPayload struct {
	PetID          string `json:"petId" validate:"required"`
	Token          string `json:"token" validate:"required"`
	ProfessionalID string `json:"professionalId"`
}

type resolveAccessPayload struct {
	RequestID string `json:"requestId" validate:"required"`
}

type emergencyData struct {
	Reason      string   `json:"reason"`
	Allergies   []string `json:"allergies"`
	Medications []string `json:"medications"`
	Notes       string   `json:"notes"`
}

type emergencyPayload struct {
	PetID          string        `json:"petId" validate:"required"`
	ProfessionalID string        `json:"professionalId"`
	EmergencyData  emergencyData `json:"emergencyData"`
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || h.validate.Struct(env) != nil {
		http.Error(w, "action required", http.StatusBadRequest)
		return
	}

	switch env.Action {
	case ActionRequestAccess:
		h.requestAccess(w, r, raw, claims.UserID)
	case ActionApproveAccess:
		h.resolveAccess(w, r, raw, claims.UserID, true)
	case ActionRejectAccess:
		h.resolveAccess(w, r, raw, claims.UserID, false)
	case ActionEmergencyAlert:
		h.sendEmergencyAlert(w, r, raw, claims.UserID)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

func (h *Handler) requestAccess(w http.ResponseWriter, r *http.Request, raw json.RawMessage, userID string) {
	var p requestAccessPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// El professionalId del body tiene que ser el caller autenticado.
	professionalID := strings.TrimSpace(p.ProfessionalID)
	if professionalID == "" {
		professionalID = userID
	}
	if professionalID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	req, err := h.requests.Request(r.Context(), p.PetID, professionalID, p.Token)
	if err != nil {
		switch {
		case errors.Is(err, accesstokens.ErrTokenInvalid):
			writeError(w, http.StatusUnauthorized, "token_invalid")
		case errors.Is(err, accesstokens.ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "token_expired")
		case errors.Is(err, accessrequests.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid_input")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"requestId": req.ID})
}

func (h *Handler) resolveAccess(w http.ResponseWriter, r *http.Request, raw json.RawMessage, userID string, approve bool) {
	var p resolveAccessPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req, err := h.requests.GetByID(r.Context(), p.RequestID)
	if err != nil {
		writeError(w, http.StatusNotFound, "request_not_found")
		return
	}

	// Solo el guardian del pet aprueba/rechaza.
	ownerID, err := h.petOwners.OwnerOf(r.Context(), req.PetID)
	if err != nil || ownerID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if approve {
		_, err = h.requests.Approve(r.Context(), p.RequestID)
	} else {
		_, err = h.requests.Reject(r.Context(), p.RequestID)
	}
	if err != nil {
		switch {
		case errors.Is(err, accessrequests.ErrRequestNotFound):
			writeError(w, http.StatusNotFound, "request_not_found")
		case errors.Is(err, accessrequests.ErrBadState):
			writeError(w, http.StatusConflict, "invalid_state")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) sendEmergencyAlert(w http.ResponseWriter, r *http.Request, raw json.RawMessage, userID string) {
	var p emergencyPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	professionalID := strings.TrimSpace(p.ProfessionalID)
	if professionalID == "" {
		professionalID = userID
	}
	if professionalID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	// El pet tiene que existir: el bypass de emergencia no inventa pets.
	if _, err := h.petOwners.OwnerOf(r.Context(), p.PetID); err != nil {
		writeError(w, http.StatusNotFound, "pet_not_found")
		return
	}

	_, err := h.emergency.Trigger(r.Context(), p.PetID, professionalID, emergency.Payload{
		Reason:      p.EmergencyData.Reason,
		Allergies:   p.EmergencyData.Allergies,
		Medications: p.EmergencyData.Medications,
		Notes:       p.EmergencyData.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, emergency.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid_input")
		default:
			writeError(w, http.StatusInternalServerError, "internal_error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
