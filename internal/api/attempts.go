package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	limit, err := formInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	list, err := s.cfg.Attempts.ListByUser(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Falha ao listar tentativas: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  userID,
		"attempts":  list,
	})
}
