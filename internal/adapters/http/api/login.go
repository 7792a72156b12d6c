package api

import (
	"net/http"
	"time"

	"github.com/okian/brecher/internal/auth"
	"github.com/okian/brecher/internal/domain/model"
	"github.com/okian/brecher/pkg/logger"
	"github.com/okian/brecher/pkg/metrics"
)

type loginRequest struct {
	Person   string `json:"person"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Person    string    `json:"person"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleLogin handles POST /login. Only roster members can log in.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !s.deps.Roster().Contains(model.Person(req.Person)) {
		metrics.RecordAuthFailure("unknown_person")
		writeError(w, http.StatusUnauthorized, "unauthorized", auth.ErrBadCredentials)
		return
	}
	token, claims, err := s.auth.Login(req.Person, req.Password)
	if err != nil {
		metrics.RecordAuthFailure("bad_password")
		writeError(w, http.StatusUnauthorized, "unauthorized", auth.ErrBadCredentials)
		return
	}
	s.logger.Info(r.Context(), "login", logger.String("person", claims.Person))
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Person: claims.Person, ExpiresAt: claims.ExpiresAt})
}
