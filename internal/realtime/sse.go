package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes expone la suscripción realtime como Server-Sent Events:
//
//	GET /realtime/{topic}
//
// El topic va URL-escapado (contiene ':'), p.ej. /realtime/pet%3A123%3Aaccess-requests.
// Es la misma semántica del bus: si el cliente se cae, re-suscribe y puede
// haber perdido eventos; debe resincronizar con un GET del recurso.
func RegisterRoutes(r chi.Router, bus Bus) {
	r.Get("/realtime/{topic}", subscribeHandler(bus))
}

func subscribeHandler(bus Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "topic")
		topic, err := url.PathUnescape(raw)
		if err != nil || topic == "" {
			http.Error(w, "invalid topic", http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		sub, err := bus.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, "subscribe failed", http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		// El WriteTimeout global del server pondría un deadline fijo a la
		// conexión y cortaría el stream a los pocos segundos; esta conexión
		// vive lo que dure la suscripción.
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case ev, open := <-sub.C:
				if !open {
					return
				}
				b, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, b)
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	}
}
