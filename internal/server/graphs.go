package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nextstep/pkg/workspace"
)

func (s *Server) listGraphs(w http.ResponseWriter, r *http.Request) {
	list, err := s.ws.Store().List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if list == nil {
		list = []workspace.Summary{}
	}
	respondJSON(w, http.StatusOK, list)
}

// saveAll saves every open tab. Tabs that failed are reported in the error
// while the rest stay saved.
func (s *Server) saveAll(w http.ResponseWriter, r *http.Request) {
	saved, err := s.ws.SaveAll(r.Context())
	if err != nil {
		s.logger.Warn("save all incomplete", "saved", len(saved), "err", err)
		respondError(w, err)
		return
	}
	if saved == nil {
		saved = []workspace.Summary{}
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) openGraph(w http.ResponseWriter, r *http.Request) {
	t, err := s.ws.Open(r.Context(), chi.URLParam(r, "graphID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.newTabView(t))
}

func (s *Server) deleteGraph(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Store().Delete(r.Context(), chi.URLParam(r, "graphID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
