package main

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/http"
	"github.com/hperssn/clockd/internal/runner"
	"github.com/hperssn/clockd/internal/storage"
)

type routerDeps struct {
	manager  *runner.SessionManager
	journal  storage.Repository
	gatherer prometheus.Gatherer
	logger   *log.Logger
	devAuth  bool
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if d.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(httpapi.ExtractUserMiddleware(d.logger, d.devAuth))

		r.Post("/sessions", startSession(d.manager))
		r.Get("/sessions/{id}", getSession(d.manager))
		r.Delete("/sessions/{id}", stopSession(d.manager))

		r.Post("/sessions/{id}/stopwatch/{action}", engineCommand(d.manager, domain.SourceStopwatch))
		r.Put("/sessions/{id}/timer", configureTimer(d.manager))
		r.Post("/sessions/{id}/timer/{action}", engineCommand(d.manager, domain.SourceTimer))

		r.Get("/sessions/{id}/events", httpapi.StreamSessionEvents(d.manager))
		r.Get("/sessions/{id}/ws", httpapi.ServeSessionSocket(d.manager, d.logger))

		if d.journal != nil {
			r.Get("/sessions/{id}/history", getHistory(d.manager, d.journal))
			r.Get("/history", getRecentHistory(d.journal))
			r.Get("/stats", getStats(d.journal))
		}
	})

	return r
}
