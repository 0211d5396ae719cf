package accesstokens

import (
	"context"
	"encoding/json"
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

// RegisterRoutes registra las rutas del emisor de tokens QR.
// origin es el origin público para armar el deep link.
func RegisterRoutes(r chi.Router, svc *Service, petOwners PetOwnerLookup, origin string) {
	r.Route("/pets/{petID}/access-tokens", func(tr chi.Router) {
		tr.Post("/", issueTokenHandler(svc, petOwners, origin))
		tr.Get("/", listTokensHandler(svc, petOwners))
	})
}

type tokenResponse struct {
	ID        string    `json:"id"`
	PetID     string    `json:"pet_id"`
	Token     string    `json:"token"`
	ShareURL  string    `json:"share_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func issueTokenHandler(svc *Service, petOwners PetOwnerLookup, origin string) http.HandlerFunc {
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
		// Solo el guardian emite tokens QR de su pet.
		if ownerID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		t, err := svc.Issue(r.Context(), petID)
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, tokenResponse{
			ID:        t.ID,
			PetID:     t.PetID,
			Token:     t.Value,
			ShareURL:  t.ShareLink(origin),
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}
}

func listTokensHandler(svc *Service, petOwners PetOwnerLookup) http.HandlerFunc {
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

		out := make([]tokenResponse, 0, len(items))
		for _, t := range items {
			out = append(out, tokenResponse{
				ID:        t.ID,
				PetID:     t.PetID,
				Token:     t.Value,
				CreatedAt: t.CreatedAt,
				ExpiresAt: t.ExpiresAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
