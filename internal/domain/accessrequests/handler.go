package accessrequests

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"petbook-access/internal/middleware"
)

// PetOwnerLookup evita importar el paquete pets (rompe ciclos).
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, petOwners PetOwnerLookup) {
	// Guardian: bandeja de solicitudes del pet.
	r.Get("/pets/{petID}/access-requests", listRequestsHandler(svc, petOwners))

	r.Route("/access-requests/{requestID}", func(ar chi.Router) {
		ar.Post("/approve", resolveHandler(svc, petOwners, true))
		ar.Post("/reject", resolveHandler(svc, petOwners, false))

		// Profesional: espera bloqueante de la resolución (long poll con ctx).
		ar.Get("/wait", waitHandler(svc))
	})
}

type requestResponse struct {
	ID             string     `json:"id"`
	PetID          string     `json:"pet_id"`
	ProfessionalID string     `json:"professional_id"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

func toRequestResponse(req AccessRequest) requestResponse {
	return requestResponse{
		ID:             req.ID,
		PetID:          req.PetID,
		ProfessionalID: req.ProfessionalID,
		Status:         req.Status,
		CreatedAt:      req.CreatedAt,
		ResolvedAt:     req.ResolvedAt,
	}
}

func listRequestsHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")

		ownerID, err := petOwners.OwnerOf(r.Context(), petID)
		if err != nil || strings.TrimSpace(ownerID) == "" {
			http.Error(w, "pet not found", http.StatusNotFound)
			return
		}
		if ownerID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListByPet(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]requestResponse, 0, len(items))
		for _, req := range items {
			out = append(out, toRequestResponse(req))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func resolveHandler(svc *Service, petOwners PetOwnerLookup, approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		requestID := chi.URLParam(r, "requestID")

		req, err := svc.GetByID(r.Context(), requestID)
		if err != nil {
			http.Error(w, "request not found", http.StatusNotFound)
			return
		}

		// Solo el guardian del pet resuelve.
		ownerID, err := petOwners.OwnerOf(r.Context(), req.PetID)
		if err != nil || ownerID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var res Resolution
		if approve {
			res, err = svc.Approve(r.Context(), requestID)
		} else {
			res, err = svc.Reject(r.Context(), requestID)
		}
		if err != nil {
			switch {
			case errors.Is(err, ErrRequestNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, ErrBadState):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(res.Request))
	}
}

// waitHandler bloquea hasta la resolución. El profesional lo usa después
// de request_access; el timeout lo pone el cliente (query timeout=30s max 120).
func waitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		requestID := chi.URLParam(r, "requestID")

		req, err := svc.GetByID(r.Context(), requestID)
		if err != nil {
			http.Error(w, "request not found", http.StatusNotFound)
			return
		}
		if req.ProfessionalID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		timeout := 30 * time.Second
		if raw := r.URL.Query().Get("timeout"); raw != "" {
			if d, err := time.ParseDuration(raw); err == nil && d > 0 && d <= 2*time.Minute {
				timeout = d
			}
		}

		// La espera puede superar el WriteTimeout global del server y la
		// respuesta se escribe recién al final: sin correr el deadline de
		// la conexión, el long poll se perdería.
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		resolved, err := svc.AwaitResolution(ctx, requestID)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				// Venció la espera: devolvemos el estado actual y el cliente
				// re-intenta (o re-suscribe por SSE).
				current, gerr := svc.GetByID(r.Context(), requestID)
				if gerr != nil {
					current = req
				}
				writeJSON(w, http.StatusOK, toRequestResponse(current))
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(resolved))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
