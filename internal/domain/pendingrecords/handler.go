package pendingrecords

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"petbook-access/internal/domain/records"
	"petbook-access/internal/middleware"
)

// PetOwnerLookup evita importar el paquete pets (rompe ciclos).
type PetOwnerLookup interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

func RegisterRoutes(r chi.Router, svc *Service, petOwners PetOwnerLookup) {
	r.Route("/pets/{petID}/pending-records", func(pr chi.Router) {
		// Profesional con acceso propone una entrada.
		pr.Post("/", submitHandler(svc))
		// Guardian revisa la bandeja.
		pr.Get("/", listByPetHandler(svc, petOwners))
	})

	// Guardian resuelve.
	r.Post("/pending-records/{pendingID}/resolve", resolveHandler(svc, petOwners))

	// Profesional: sus entradas propuestas.
	r.Get("/me/pending-records", listMineHandler(svc))
}

type pendingResponse struct {
	ID             string             `json:"id"`
	PetID          string             `json:"pet_id"`
	ProfessionalID string             `json:"professional_id"`
	Title          string             `json:"title"`
	Type           records.RecordType `json:"type"`
	Date           time.Time          `json:"date"`
	Notes          string             `json:"notes,omitempty"`
	Status         Status             `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	ResolvedAt     *time.Time         `json:"resolved_at,omitempty"`
}

func toPendingResponse(p PendingHealthRecord) pendingResponse {
	return pendingResponse{
		ID:             p.ID,
		PetID:          p.PetID,
		ProfessionalID: p.ProfessionalID,
		Title:          p.Payload.Title,
		Type:           p.Payload.Type,
		Date:           p.Payload.Date,
		Notes:          p.Payload.Notes,
		Status:         p.Status,
		CreatedAt:      p.CreatedAt,
		ResolvedAt:     p.ResolvedAt,
	}
}

type submitRequest struct {
	Title string             `json:"title"`
	Type  records.RecordType `json:"type"`
	Date  time.Time          `json:"date"`
	Notes string             `json:"notes"`
}

func submitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Submit(r.Context(), petID, claims.UserID, Payload{
			Title: req.Title,
			Type:  req.Type,
			Date:  req.Date,
			Notes: req.Notes,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrNotAuthorized):
				http.Error(w, err.Error(), http.StatusForbidden)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toPendingResponse(p))
	}
}

func listByPetHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
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

		out := make([]pendingResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPendingResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type resolveRequest struct {
	Decision Status `json:"decision"`
}

func resolveHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		pendingID := chi.URLParam(r, "pendingID")

		p, err := svc.GetByID(r.Context(), pendingID)
		if err != nil {
			http.Error(w, "pending record not found", http.StatusNotFound)
			return
		}

		ownerID, err := petOwners.OwnerOf(r.Context(), p.PetID)
		if err != nil || ownerID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req resolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		resolved, err := svc.Resolve(r.Context(), pendingID, req.Decision)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrBadState):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, ErrNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toPendingResponse(resolved))
	}
}

func listMineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByProfessional(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]pendingResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPendingResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
