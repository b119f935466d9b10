// Package server exposes the refresh, read and health surfaces over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"feedsync/internal/domain"
)

// Ingestor is the service surface the server fronts.
type Ingestor interface {
	Refresh(ctx context.Context, vendorID string, force bool) (*domain.RefreshStats, error)
	Articles(ctx context.Context, vendorID string, limit int, force bool) ([]domain.Article, bool, error)
	CheckFeed(ctx context.Context, target string) (domain.FeedHealth, error)
}

type Server struct {
	ingestor Ingestor
	logger   *slog.Logger
	srv      *http.Server
}

func New(addr string, ingestor Ingestor, logger *slog.Logger) *Server {
	s := &Server{
		ingestor: ingestor,
		logger:   logger.With("component", "http"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.HandleFunc("GET /articles", s.handleArticles)
	mux.HandleFunc("GET /feeds/check", s.handleCheck)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.srv = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", "addr", s.srv.Addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	vendorID := r.URL.Query().Get("vendor")
	force := r.URL.Query().Get("force") == "true"

	stats, err := s.ingestor.Refresh(r.Context(), vendorID, force)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

type articlesResponse struct {
	Articles  []domain.Article `json:"articles"`
	FromCache bool             `json:"from_cache"`
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	articles, fromCache, err := s.ingestor.Articles(r.Context(), q.Get("vendor"), limit, q.Get("refresh") == "true")
	if err != nil {
		s.writeError(w, err)
		return
	}

	if articles == nil {
		articles = []domain.Article{}
	}
	s.writeJSON(w, http.StatusOK, articlesResponse{Articles: articles, FromCache: fromCache})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	target := q.Get("url")
	if target == "" {
		target = q.Get("vendor")
	}
	if target == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "vendor or url required"})
		return
	}

	health, err := s.ingestor.CheckFeed(r.Context(), target)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrNotFound) {
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}

	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}
