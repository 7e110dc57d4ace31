package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/http"
	"github.com/hperssn/clockd/internal/runner"
	"github.com/hperssn/clockd/internal/storage"
)

func startSession(m *runner.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := domain.NewSession("", httpapi.GetUserId(r))

		clock, err := m.StartSession(session)
		if err != nil {
			httpapi.RespondError(w, err.Error(), httpapi.StatusFor(err))
			return
		}
		httpapi.RespondJSON(w, clock.Snapshot(), http.StatusCreated)
	}
}

func getSession(m *runner.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clock, err := m.GetSession(chi.URLParam(r, "id"), httpapi.GetUserId(r))
		if err != nil {
			httpapi.RespondError(w, err.Error(), httpapi.StatusFor(err))
			return
		}

		httpapi.RespondJSON(w, clock.Snapshot(), http.StatusOK)
	}
}

func stopSession(m *runner.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.StopSession(chi.URLParam(r, "id"), httpapi.GetUserId(r)); err != nil {
			httpapi.RespondError(w, err.Error(), httpapi.StatusFor(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// engineCommand runs the {action} URL param against target.
func engineCommand(m *runner.SessionManager, target domain.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := chi.URLParam(r, "action")
		if action == httpapi.ActionConfigure {
			httpapi.RespondError(w, "use PUT /sessions/{id}/timer to configure", http.StatusMethodNotAllowed)
			return
		}

		runCommand(m, w, r, httpapi.Command{Target: target, Action: action})
	}
}

func configureTimer(m *runner.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.TimerSetting

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.RespondError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		runCommand(m, w, r, httpapi.Command{
			Target:  domain.SourceTimer,
			Action:  httpapi.ActionConfigure,
			Hours:   req.Hours,
			Minutes: req.Minutes,
			Seconds: req.Seconds,
		})
	}
}

func runCommand(m *runner.SessionManager, w http.ResponseWriter, r *http.Request, cmd httpapi.Command) {
	clock, err := m.GetSession(chi.URLParam(r, "id"), httpapi.GetUserId(r))
	if err != nil {
		httpapi.RespondError(w, err.Error(), httpapi.StatusFor(err))
		return
	}

	if err := httpapi.Dispatch(clock, cmd); err != nil {
		httpapi.RespondError(w, err.Error(), httpapi.StatusFor(err))
		return
	}

	httpapi.RespondJSON(w, clock.Snapshot(), http.StatusOK)
}

func getHistory(m *runner.SessionManager, repo storage.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if _, err := m.GetSession(id, httpapi.GetUserId(r)); err != nil {
			httpapi.RespondError(w, err.Error(), httpapi.StatusFor(err))
			return
		}

		records, err := repo.GetEventsBySession(id)
		if err != nil {
			httpapi.RespondError(w, "failed to read history", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []storage.EventRecord{}
		}

		httpapi.RespondJSON(w, records, http.StatusOK)
	}
}

// recentWindow is how far back GET /history looks without a since param.
const recentWindow = 24 * time.Hour

// getRecentHistory lists the user's journaled events across all sessions,
// newest first, since the RFC 3339 "since" query param.
func getRecentHistory(repo storage.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since := time.Now().Add(-recentWindow)
		if raw := r.URL.Query().Get("since"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				httpapi.RespondError(w, "since must be an RFC 3339 timestamp", http.StatusBadRequest)
				return
			}
			since = parsed
		}

		records, err := repo.GetRecentEvents(httpapi.GetUserId(r), since)
		if err != nil {
			httpapi.RespondError(w, "failed to read history", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []storage.EventRecord{}
		}

		httpapi.RespondJSON(w, records, http.StatusOK)
	}
}

func getStats(repo storage.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := repo.GetUserStats(httpapi.GetUserId(r))
		if err != nil {
			httpapi.RespondError(w, "failed to read stats", http.StatusInternalServerError)
			return
		}

		httpapi.RespondJSON(w, stats, http.StatusOK)
	}
}
