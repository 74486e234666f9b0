package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/KaramelBytes/casedash/internal/analysis"
	"github.com/KaramelBytes/casedash/internal/dashboard"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Dashboard is the pipeline the handlers serve. *dashboard.Service implements it.
type Dashboard interface {
	Snapshot(ctx context.Context) (*dashboard.Snapshot, error)
	KPIs(ctx context.Context) ([]analysis.KPI, error)
	Top(ctx context.Context, column string, n int) ([]analysis.CategoryCount, error)
}

// Server exposes the dashboard as JSON over HTTP.
type Server struct {
	dash    Dashboard
	metrics http.Handler
	log     *zap.Logger
}

// New builds a server. metrics may be nil, in which case /metrics is not routed.
func New(dash Dashboard, metrics http.Handler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{dash: dash, metrics: metrics, log: log.Named("server")}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	router := httprouter.New()
	router.GET("/api/dashboard", s.dashboardHandler)
	router.GET("/api/kpis", s.kpisHandler)
	router.GET("/api/columns/:name/top", s.topHandler)
	router.GET("/healthz", s.healthHandler)
	if s.metrics != nil {
		router.Handler(http.MethodGet, "/metrics", s.metrics)
	}
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		s.log.Error("handler panic", zap.String("path", r.URL.Path), zap.Any("panic", v))
		s.errorResponse(w, http.StatusInternalServerError, "internal server error")
	}
	return router
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	snap, err := s.dash.Snapshot(r.Context())
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, snap)
}

func (s *Server) kpisHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	kpis, err := s.dash.KPIs(r.Context())
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"kpis": kpis})
}

func (s *Server) topHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	name := ps.ByName("name")
	n := analysis.DefaultTopN
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			s.errorResponse(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = v
	}
	counts, err := s.dash.Top(r.Context(), name, n)
	if errors.Is(err, dashboard.ErrUnknownColumn) {
		s.errorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{
		"column": name,
		"n":      n,
		"counts": counts,
		"total":  analysis.Total(counts),
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, msg string) {
	s.sendJSON(w, status, map[string]any{"code": status, "error": msg})
}

func (s *Server) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.log.Debug("request cancelled", zap.String("path", r.URL.Path), zap.Error(err))
		s.errorResponse(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}
	s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	s.errorResponse(w, http.StatusInternalServerError, "internal server error")
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     zap.NewStdLog(s.log),
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
