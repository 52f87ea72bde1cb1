package report

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hivecare/carelog/store"
)

// Service serves the read-only reporting API.
type Service struct {
	store    *store.Store
	reporter *Reporter
	log      *slog.Logger
}

// NewService creates the HTTP facade over the store.
func NewService(st *store.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: st, reporter: New(st), log: log}
}

// Handler builds the router.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	s.RegisterHTTP(r)
	return r
}

// RegisterHTTP mounts the reporting routes on an existing router.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/shift-notes", s.handleShiftNotes)
		r.Get("/shift-notes/daily", s.handleDailySummaries)
		r.Get("/incidents", s.handleIncidents)
		r.Get("/incidents/summary", s.handleIncidentSummary)
		r.Get("/investigations", s.handleInvestigations)
		r.Get("/ledger", s.handleLedger)
		r.Get("/messages/{id}", s.handleMessage)
	})
}

// GET /api/v1/stats
func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.fail(w, "stats query", err)
		return
	}
	s.writeJSON(w, stats)
}

// GET /api/v1/shift-notes?from=YYYY-MM-DD&to=YYYY-MM-DD&limit=N
func (s *Service) handleShiftNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	notes, err := s.store.ListShiftNotes(r.Context(), q.Get("from"), q.Get("to"), limitParam(q.Get("limit")))
	if err != nil {
		s.fail(w, "shift notes query", err)
		return
	}
	s.writeJSON(w, notes)
}

// GET /api/v1/shift-notes/daily?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *Service) handleDailySummaries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days, err := s.reporter.DailyShiftSummaries(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		s.fail(w, "daily summaries", err)
		return
	}
	s.writeJSON(w, days)
}

// GET /api/v1/incidents?limit=N
func (s *Service) handleIncidents(w http.ResponseWriter, r *http.Request) {
	incidents, err := s.store.ListIncidents(r.Context(), limitParam(r.URL.Query().Get("limit")))
	if err != nil {
		s.fail(w, "incidents query", err)
		return
	}
	s.writeJSON(w, incidents)
}

// GET /api/v1/incidents/summary
func (s *Service) handleIncidentSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reporter.IncidentBreakdown(r.Context())
	if err != nil {
		s.fail(w, "incident summary", err)
		return
	}
	s.writeJSON(w, summary)
}

// GET /api/v1/investigations?limit=N
func (s *Service) handleInvestigations(w http.ResponseWriter, r *http.Request) {
	inv, err := s.store.ListInvestigations(r.Context(), limitParam(r.URL.Query().Get("limit")))
	if err != nil {
		s.fail(w, "investigations query", err)
		return
	}
	s.writeJSON(w, inv)
}

// GET /api/v1/ledger?status=complete|incomplete|unclassified&limit=N
func (s *Service) handleLedger(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.store.ListLedger(r.Context(), q.Get("status"), limitParam(q.Get("limit")))
	if err != nil {
		s.fail(w, "ledger query", err)
		return
	}
	s.writeJSON(w, rows)
}

// GET /api/v1/messages/{id}
func (s *Service) handleMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := s.store.Message(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "message query", err)
		return
	}
	if msg == nil {
		http.Error(w, "message not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, msg)
}

func (s *Service) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Service) fail(w http.ResponseWriter, what string, err error) {
	s.log.Error(what+" failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func limitParam(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
