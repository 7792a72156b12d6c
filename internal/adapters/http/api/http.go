// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/brecher/internal/adapters/repository"
	service "github.com/okian/brecher/internal/app"
	"github.com/okian/brecher/internal/auth"
	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/internal/domain/rules"
	"github.com/okian/brecher/internal/domain/scoreboard"
	"github.com/okian/brecher/internal/domain/types"
	"github.com/okian/brecher/pkg/logger"
)

// maxBodyBytes bounds request bodies; a full season backup fits easily.
const maxBodyBytes = 8 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the engine.
type Dependencies interface {
	Roster() model.Roster

	ComputeCellDisplay(ctx context.Context, week model.WeekID, person model.Person, day model.Day, category model.Category) (service.CellDisplay, error)
	WriteCell(ctx context.Context, w service.CellWrite) (service.WriteResult, error)

	ListWeeks(ctx context.Context) ([]model.WeekID, error)
	CreateWeek(ctx context.Context, week model.WeekID) (int, error)
	GetWeekView(ctx context.Context, week model.WeekID) (service.WeekView, error)

	GetWeeklyScoreboard(ctx context.Context, week model.WeekID) ([]types.Entry, error)
	GetMonthlyScoreboard(ctx context.Context) ([]types.Entry, error)
	GetWeeklyOverview(ctx context.Context) (service.Overview, error)
	GetCategoryLeaders(ctx context.Context) (service.Leaders, error)
	GetUserStatistics(ctx context.Context, person model.Person) (scoreboard.UserStatistics, error)
	GetChartData(ctx context.Context) ([]scoreboard.ChartSeries, error)

	Export(ctx context.Context) (service.Backup, error)
	ImportOwn(ctx context.Context, person model.Person, b service.Backup) (int, error)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithWriteLimit throttles cell writes per person.
func WithWriteLimit(perMinute float64, burst int) Option {
	return func(s *Server) {
		s.limiter = NewWriteLimiter(perMinute, burst)
	}
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps    Dependencies
	auth    *auth.Authenticator
	limiter *WriteLimiter
	logger  logger.Logger

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, authenticator *auth.Authenticator, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		auth:          authenticator,
		limiter:       NewWriteLimiter(defaultWritesPerMinute, defaultWriteBurst),
		logger:        logger.Get(),
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	open := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestID(MetricsMiddleware(h, endpoint)))
	}
	private := func(pattern, endpoint string, h http.HandlerFunc) {
		open(pattern, endpoint, s.authenticated(h))
	}

	open("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	open("GET /metrics", "metrics", s.healthHandler.HandleMetrics)
	open("POST /login", "login", s.handleLogin)

	private("GET /stats", "stats", s.statsHandler.HandleStats)

	private("GET /weeks", "weeks", s.handleListWeeks)
	private("POST /weeks/{week}", "weeks_create", s.handleCreateWeek)
	private("GET /weeks/{week}", "weeks_view", s.handleWeekView)
	private("GET /weeks/{week}/cells/{person}/{day}/{category}", "cell", s.handleGetCell)
	private("PUT /cells", "cells_write", s.limitWrites(s.handlePutCell, "cells_write"))

	private("GET /scoreboard/weekly/{week}", "scoreboard_weekly", s.handleWeeklyScoreboard)
	private("GET /scoreboard/monthly", "scoreboard_monthly", s.handleMonthlyScoreboard)
	private("GET /overview", "overview", s.handleOverview)
	private("GET /leaders", "leaders", s.handleLeaders)
	private("GET /chart-data", "chart_data", s.handleChartData)
	private("GET /users/{person}/stats", "user_stats", s.handleUserStats)

	private("GET /export", "export", s.handleExport)
	private("POST /import", "import", s.handleImport)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeEngineError maps engine and domain errors onto status codes.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *rules.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "validation_rejected", Message: verr.Reason})
	case errors.Is(err, service.ErrInvalidParameter), errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidWeek), errors.Is(err, repository.ErrInvalidKey):
		writeError(w, http.StatusBadRequest, "invalid_parameter", err)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", err)
	default:
		s.logger.Error(r.Context(), "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// parseWeek accepts "39" and "KW39".
func parseWeek(raw string) (model.WeekID, error) {
	return model.ParseWeekLabel(raw)
}
