package api

import (
	"net/http"

	"github.com/okian/brecher/internal/domain/model"
)

// handleWeeklyScoreboard handles GET /scoreboard/weekly/{week}.
func (s *Server) handleWeeklyScoreboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.weekly_scoreboard"
	week, err := parseWeek(r.PathValue("week"))
	if err != nil {
		s.writeEngineError(w, r, op, err)
		return
	}
	entries, err := s.deps.GetWeeklyScoreboard(r.Context(), week)
	if err != nil {
		s.writeEngineError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleMonthlyScoreboard handles GET /scoreboard/monthly.
func (s *Server) handleMonthlyScoreboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.GetMonthlyScoreboard(r.Context())
	if err != nil {
		s.writeEngineError(w, r, "api.monthly_scoreboard", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleOverview handles GET /overview.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.deps.GetWeeklyOverview(r.Context())
	if err != nil {
		s.writeEngineError(w, r, "api.overview", err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// handleLeaders handles GET /leaders.
func (s *Server) handleLeaders(w http.ResponseWriter, r *http.Request) {
	leaders, err := s.deps.GetCategoryLeaders(r.Context())
	if err != nil {
		s.writeEngineError(w, r, "api.leaders", err)
		return
	}
	writeJSON(w, http.StatusOK, leaders)
}

// handleChartData handles GET /chart-data.
func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	series, err := s.deps.GetChartData(r.Context())
	if err != nil {
		s.writeEngineError(w, r, "api.chart_data", err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

// handleUserStats handles GET /users/{person}/stats.
func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.GetUserStatistics(r.Context(), model.Person(r.PathValue("person")))
	if err != nil {
		s.writeEngineError(w, r, "api.user_stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
