package records

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

// AccessChecker evita importar el paquete grants.
type AccessChecker interface {
	CheckAccess(ctx context.Context, petID, professionalID string) (bool, error)
}

func RegisterRoutes(r chi.Router, svc *Service, petOwners PetOwnerLookup, access AccessChecker) {
	r.Route("/pets/{petID}/records", func(rr chi.Router) {
		rr.Get("/", listRecordsHandler(svc, petOwners, access))
		rr.Post("/", appendRecordHandler(svc, petOwners, access))
	})
}

type recordResponse struct {
	ID         string     `json:"id"`
	PetID      string     `json:"pet_id"`
	Type       RecordType `json:"type"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes,omitempty"`
	ActorType  ActorType  `json:"actor_type"`
	ActorID    string     `json:"actor_id"`
	ActorName  string     `json:"actor_name,omitempty"`
	Source     Source     `json:"source"`
	OccurredAt time.Time  `json:"occurred_at"`
	RecordedAt time.Time  `json:"recorded_at"`
}

func toRecordResponse(rec HealthRecord) recordResponse {
	return recordResponse{
		ID:         rec.ID,
		PetID:      rec.PetID,
		Type:       rec.Type,
		Title:      rec.Title,
		Notes:      rec.Notes,
		ActorType:  rec.Actor.Type,
		ActorID:    rec.Actor.ID,
		ActorName:  rec.Actor.Name,
		Source:     rec.Source,
		OccurredAt: rec.OccurredAt,
		RecordedAt: rec.RecordedAt,
	}
}

// authorizeRead: guardian del pet, o profesional que pasa CheckAccess.
func authorizeRead(r *http.Request, petOwners PetOwnerLookup, access AccessChecker, petID, userID string) (int, bool) {
	ownerID, err := petOwners.OwnerOf(r.Context(), petID)
	if err != nil || strings.TrimSpace(ownerID) == "" {
		return http.StatusNotFound, false
	}
	if ownerID == userID {
		return 0, true
	}
	allowed, err := access.CheckAccess(r.Context(), petID, userID)
	if err != nil || !allowed {
		return http.StatusForbidden, false
	}
	return 0, true
}

func listRecordsHandler(svc *Service, petOwners PetOwnerLookup, access AccessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")

		if st, ok := authorizeRead(r, petOwners, access, petID, claims.UserID); !ok {
			switch st {
			case http.StatusNotFound:
				http.Error(w, "pet not found", st)
			default:
				http.Error(w, "forbidden", st)
			}
			return
		}

		items, err := svc.ListByPet(r.Context(), petID, ListFilter{})
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type appendRecordRequest struct {
	Type       RecordType `json:"type"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// appendRecordHandler: el guardian agrega entradas directas al historial.
// Los profesionales NO escriben acá: pasan por pending-records (co-autoría).
func appendRecordHandler(svc *Service, petOwners PetOwnerLookup, access AccessChecker) http.HandlerFunc {
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

		var req appendRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		actor := Actor{
			Type: ActorTypeGuardian,
			ID:   claims.UserID,
			Name: claims.DisplayName,
		}
		rec, err := svc.Append(r.Context(), petID, actor, AppendInput{
			Type:       req.Type,
			Title:      req.Title,
			Notes:      req.Notes,
			OccurredAt: req.OccurredAt,
			Source:     SourceManual,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
