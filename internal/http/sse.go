package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hperssn/clockd/internal/runner"
)

// StreamSessionEvents streams a session over server-sent events: one
// "snapshot" event on connect, then every engine event as it happens.
func StreamSessionEvents(manager *runner.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		clock, err := manager.GetSession(id, GetUserId(r))
		if err != nil {
			RespondError(w, err.Error(), StatusFor(err))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		events, cancel := clock.Subscribe()
		defer cancel()

		writeSSE(w, "snapshot", clock.Snapshot())
		flusher.Flush()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					writeSSE(w, "closed", struct{}{})
					flusher.Flush()
					return
				}

				writeSSE(w, string(ev.Kind), ev)
				flusher.Flush()

			case <-r.Context().Done():
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) {
	data, _ := json.Marshal(payload)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
