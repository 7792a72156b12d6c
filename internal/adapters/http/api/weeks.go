package api

import (
	"net/http"

	"github.com/okian/brecher/internal/domain/model"
)

type weekRef struct {
	Week  model.WeekID `json:"week"`
	Label string       `json:"label"`
}

type createWeekResponse struct {
	weekRef
	Created int `json:"created"`
}

// handleListWeeks handles GET /weeks.
func (s *Server) handleListWeeks(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_weeks"
	weeks, err := s.deps.ListWeeks(r.Context())
	if err != nil {
		s.writeEngineError(w, r, op, err)
		return
	}
	out := make([]weekRef, 0, len(weeks))
	for _, week := range weeks {
		out = append(out, weekRef{Week: week, Label: week.Label()})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateWeek handles POST /weeks/{week}. Creating an existing week
// only fills in missing cells.
func (s *Server) handleCreateWeek(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_week"
	week, err := parseWeek(r.PathValue("week"))
	if err != nil {
		s.writeEngineError(w, r, op, err)
		return
	}
	n, err := s.deps.CreateWeek(r.Context(), week)
	if err != nil {
		s.writeEngineError(w, r, op, err)
		return
	}
	status := http.StatusOK
	if n > 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, createWeekResponse{weekRef: weekRef{Week: week, Label: week.Label()}, Created: n})
}

// handleWeekView handles GET /weeks/{week}.
func (s *Server) handleWeekView(w http.ResponseWriter, r *http.Request) {
	const op = "api.week_view"
	week, err := parseWeek(r.PathValue("week"))
	if err != nil {
		s.writeEngineError(w, r, op, err)
		return
	}
	view, err := s.deps.GetWeekView(r.Context(), week)
	if err != nil {
		s.writeEngineError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
