package api

import (
	"fmt"
	"net/http"

	service "github.com/okian/brecher/internal/app"
	"github.com/okian/brecher/internal/auth"
	"github.com/okian/brecher/internal/domain/model"
)

// handleGetCell handles GET /weeks/{week}/cells/{person}/{day}/{category}.
func (s *Server) handleGetCell(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_cell"
	week, err := parseWeek(r.PathValue("week"))
	if err != nil {
		s.writeEngineError(w, r, op, err)
		return
	}
	cell, err := s.deps.ComputeCellDisplay(r.Context(), week,
		model.Person(r.PathValue("person")),
		model.Day(r.PathValue("day")),
		model.Category(r.PathValue("category")),
	)
	if err != nil {
		s.writeEngineError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, cell)
}

// handlePutCell handles PUT /cells. Callers may only write their own cells.
func (s *Server) handlePutCell(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_cell"
	var req service.CellWrite
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	claims, _ := auth.FromContext(r.Context())
	if string(req.Person) != claims.Person {
		writeError(w, http.StatusForbidden, "forbidden",
			fmt.Errorf("%w: %s may not write for %s", ErrForbidden, claims.Person, req.Person))
		return
	}
	res, err := s.deps.WriteCell(r.Context(), req)
	if err != nil {
		s.writeEngineError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
