package api

import (
	"net/http"

	service "github.com/okian/brecher/internal/app"
	"github.com/okian/brecher/internal/auth"
	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/pkg/logger"
)

type importResponse struct {
	Imported int `json:"imported"`
}

// handleExport handles GET /export.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	backup, err := s.deps.Export(r.Context())
	if err != nil {
		s.writeEngineError(w, r, "api.export", err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="brecher-backup.json"`)
	writeJSON(w, http.StatusOK, backup)
}

// handleImport handles POST /import. Callers restore only their own
// entries; full restores go through brecherctl.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var backup service.Backup
	if err := decodeJSON(w, r, &backup); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	claims, _ := auth.FromContext(r.Context())
	n, err := s.deps.ImportOwn(r.Context(), model.Person(claims.Person), backup)
	if err != nil {
		s.writeEngineError(w, r, "api.import", err)
		return
	}
	s.logger.Info(r.Context(), "backup imported over http",
		logger.String("person", claims.Person),
		logger.Int("records", n),
	)
	writeJSON(w, http.StatusOK, importResponse{Imported: n})
}
