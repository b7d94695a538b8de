package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Railwatch/internal/alert"
	"github.com/Alias1177/Railwatch/internal/feed"
	"github.com/Alias1177/Railwatch/models"
)

// Asker answers admin chat questions (implemented by assistant.Client)
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Server exposes the admin dashboard surface as a small JSON API over the
// session's feed and alerter.
type Server struct {
	feed    *feed.Feed
	alerter *alert.Alerter
	asker   Asker
	logger  zerolog.Logger
	mux     *http.ServeMux
}

// New wires the admin API routes
func New(f *feed.Feed, a *alert.Alerter, asker Asker, logger zerolog.Logger) *Server {
	s := &Server{
		feed:    f,
		alerter: a,
		asker:   asker,
		logger:  logger.With().Str("component", "admin_api").Logger(),
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("/anomalies", s.handleAnomalies)
	s.mux.HandleFunc("/anomalies/counts", s.handleCounts)
	s.mux.HandleFunc("/alert", s.handleAlert)
	s.mux.HandleFunc("/alert/dismiss", s.handleDismiss)
	s.mux.HandleFunc("/chat", s.handleChat)
	s.mux.HandleFunc("/healthz", s.handleHealth)

	return s
}

// Handler returns the root handler for http.Server
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	items := s.feed.Items()
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		if limit < len(items) {
			items = items[:limit]
		}
	}
	if items == nil {
		items = []models.Anomaly{}
	}

	s.writeJSON(w, items)
}

type countsResponse struct {
	models.Counts
	ResolvedToday int     `json:"resolved_today"`
	DetectionRate float64 `json:"detection_rate"`
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts := s.feed.Counts()
	resolvedToday := s.feed.ResolvedToday(time.Now())

	// dashboard KPI: share of anomalies resolved today
	rate := 0.0
	if total := counts.Total(); total > 0 {
		rate = float64(resolvedToday) / float64(total) * 100
	}

	s.writeJSON(w, countsResponse{
		Counts:        counts,
		ResolvedToday: resolvedToday,
		DetectionRate: rate,
	})
}

func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	current := s.alerter.Current()
	if current == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.writeJSON(w, current)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.alerter.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		http.Error(w, "question required", http.StatusBadRequest)
		return
	}

	answer, err := s.asker.Ask(r.Context(), req.Question)
	if err != nil {
		s.logger.Error().Err(err).Msg("assistant request failed")
		http.Error(w, "assistant unavailable", http.StatusBadGateway)
		return
	}

	s.writeJSON(w, chatResponse{Answer: answer})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("encoding response failed")
	}
}
