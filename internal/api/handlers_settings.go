package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/jsonlens/internal/settings"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Get())
}

// handleUpdateSettings applies a partial update. Absent fields keep their
// current value; list fields are replaced wholesale.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var patch settings.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := s.settings.Update(r.Context(), patch)
	if err != nil {
		s.log.Error("settings update failed", "error", err)
		jsonError(w, "failed to save settings", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleMatchSettings reports whether the beautifier would run for a page
// identified by one or more ?url= values.
func (s *Server) handleMatchSettings(w http.ResponseWriter, r *http.Request) {
	urls := r.URL.Query()["url"]
	if len(urls) == 0 {
		jsonError(w, "url is required", http.StatusBadRequest)
		return
	}

	current := s.settings.Get()
	active := false
	for _, u := range urls {
		if current.Active(u) {
			active = true
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": current.MatchesURL(urls...),
		"active":  active,
	})
}
