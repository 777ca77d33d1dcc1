package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dd0wney/cluso-genremap/pkg/logging"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode json response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// respondArtifact serves v in the on-disk artifact encoding. Conditional
// requests are answered against modTime.
func (s *Server) respondArtifact(w http.ResponseWriter, r *http.Request, name string, v any, modTime time.Time) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		s.logger.Error("encode artifact", logging.String("artifact", name), logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to encode "+name)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, name, modTime, bytes.NewReader(buf.Bytes()))
}
