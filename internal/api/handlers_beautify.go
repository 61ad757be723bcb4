package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/jsonlens/internal/beautify"
	"github.com/dgallion1/jsonlens/internal/jsontree"
	"github.com/dgallion1/jsonlens/internal/repair"
)

type beautifyRequest struct {
	Text   string          `json:"text"`
	Repair *bool           `json:"repair,omitempty"`
	Engine string          `json:"engine,omitempty"`
	State  map[string]bool `json:"state,omitempty"`
	Toggle []string        `json:"toggle,omitempty"`
}

type beautifyResponse struct {
	Outcome    beautify.Outcome `json:"outcome"`
	Beautified bool             `json:"beautified"`
	Repaired   bool             `json:"repaired"`
	Value      json.RawMessage  `json:"value,omitempty"`
	Pretty     string           `json:"pretty,omitempty"`
	Tree       *jsontree.Node   `json:"tree,omitempty"`
	Lines      []jsontree.Line  `json:"lines,omitempty"`
	State      map[string]bool  `json:"state,omitempty"`
}

// handleBeautify runs one text through the beautifier. Text that is not
// JSON is a normal 200 response with beautified=false.
func (s *Server) handleBeautify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req beautifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	b := s.beautifier.WithRepair(s.settings.Get().RepairTruncatedJSON)
	if req.Repair != nil {
		b = b.WithRepair(*req.Repair)
	}
	if req.Engine != "" {
		engine, err := beautify.ParseEngine(req.Engine)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		b = b.WithEngine(engine)
	}

	res := b.Beautify(req.Text)
	resp := beautifyResponse{
		Outcome:    res.Outcome,
		Beautified: res.OK(),
		Repaired:   res.Repaired(),
	}
	if res.OK() {
		tree := res.Tree
		tree.Apply(req.State)
		for _, path := range req.Toggle {
			tree.Toggle(path)
		}
		resp.Value, _ = res.Value.MarshalJSON()
		resp.Pretty = res.Pretty
		resp.Tree = tree.Root
		resp.Lines = tree.Lines()
		resp.State = tree.State()
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleRepair exposes the reconstructed text for diagnostics.
func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	text := beautify.Trim(req.Text)
	repaired, ok := repair.Repair(text)
	_, valid := repair.TryRepair(text)
	writeJSON(w, http.StatusOK, map[string]any{
		"repaired_text": repaired,
		"ok":            ok,
		"valid":         valid,
	})
}
