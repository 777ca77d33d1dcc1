package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dd0wney/cluso-genremap/pkg/genre"
	"github.com/dd0wney/cluso-genremap/pkg/logging"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(indexHTML); err != nil {
		s.logger.Debug("write index", logging.Error(err))
	}
}

func (s *Server) handleGenre(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Genre id must be an integer")
		return
	}

	g, err := s.store.Lookup(id)
	if errors.Is(err, genre.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Genre not found")
		return
	}
	if err != nil {
		s.logger.Error("genre lookup", logging.GenreID(id), logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Genre lookup failed")
		return
	}
	s.respondJSON(w, http.StatusOK, g)
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Genre map not loaded")
		return
	}
	s.respondArtifact(w, r, "points.json", snap.Points, snap.LoadedAt)
}

func (s *Server) handleEdges(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Genre map not loaded")
		return
	}
	s.respondArtifact(w, r, "edges.json", snap.Edges, snap.LoadedAt)
}
