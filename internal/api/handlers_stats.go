package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
	}
	if s.beautifier.Latency != nil {
		resp["latency"] = s.beautifier.Latency.Snapshot()
	}
	if s.beautifier.Counters != nil {
		resp["outcomes"] = s.beautifier.Counters.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}
