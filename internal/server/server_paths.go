package server

import (
	"net/http"

	"github.com/BrandonIrizarry/docpicker/internal/server/httpx"
)

// getPathHandler lists completion candidates for the "path" query
// parameter, filtered by the optional "extensions" list.
func (s *Server) getPathHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("path") {
		httpx.WriteText(w, http.StatusBadRequest, "Missing 'path' parameter")
		return
	}

	entries, err := s.lister.List(query.Get("path"), query.Get("extensions"))
	if err != nil {
		s.log.Error().Err(err).Str("path", query.Get("path")).Msg("list path")
		httpx.WriteText(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.WriteJSON(w, http.StatusOK, entries)
}
