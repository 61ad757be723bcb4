package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/jsonlens/internal/beautify"
	"github.com/dgallion1/jsonlens/internal/config"
	"github.com/dgallion1/jsonlens/internal/pipeline"
	"github.com/dgallion1/jsonlens/internal/settings"
	"github.com/dgallion1/jsonlens/internal/stats"
)

const testKey = "secret"

func newTestServer(t *testing.T, initial settings.Settings) (*Server, *settings.Store) {
	t.Helper()
	return newTestServerWithLog(t, initial, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestServerWithLog(t *testing.T, initial settings.Settings, log *slog.Logger) (*Server, *settings.Store) {
	t.Helper()
	cfg := config.Config{
		APIKey:                testKey,
		WorkerCount:           1,
		MaxQueueSize:          10,
		MaxConcurrentBeautify: 2,
		MaxUploadBytes:        1 << 20,
		JobTTL:                time.Hour,
		CORSAllowedOrigins:    []string{"*"},
	}
	b := &beautify.Beautifier{Latency: stats.NewLatency(time.Hour), Counters: &stats.Counters{}}
	store := settings.NewStore(initial, nil)
	orch := pipeline.NewOrchestrator(cfg, b, store, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, b, store, log, cfg), store
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testKey)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth_Public(t *testing.T) {
	s, _ := newTestServer(t, settings.Default())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		errMsg string
	}{
		{"missing", "", "missing authorization"},
		{"wrong scheme", "Basic " + testKey, "missing authorization"},
		{"wrong key", "Bearer nope", "invalid api key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			s, _ := newTestServerWithLog(t, settings.Default(), slog.New(slog.NewJSONHandler(&logs, nil)))

			req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			req.Header.Set("X-Request-Id", "req-42")
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected application/json, got %q", ct)
			}
			if out := decode(t, rec); out["error"] != tt.errMsg {
				t.Errorf("expected error %q, got %v", tt.errMsg, out["error"])
			}
			if !strings.Contains(logs.String(), `"msg":"unauthorized request"`) ||
				!strings.Contains(logs.String(), `"request_id":"req-42"`) {
				t.Errorf("expected rejection logged with request id, got %s", logs.String())
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	s, _ := newTestServer(t, settings.Default())
	req := httptest.NewRequest(http.MethodOptions, "/api/beautify", nil)
	req.Header.Set("Origin", "chrome-extension://abc")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code == http.StatusUnauthorized {
		t.Fatal("expected preflight to bypass auth")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected Access-Control-Allow-Origin header")
	}
}

func TestBeautify(t *testing.T) {
	s, _ := newTestServer(t, settings.Default())

	tests := []struct {
		name       string
		body       string
		outcome    string
		beautified bool
		repaired   bool
	}{
		{"valid", `{"text":"{\"a\":{\"b\":1}}"}`, "parsed", true, false},
		{"not json", `{"text":"hello"}`, "not_json", false, false},
		{"truncated without repair", `{"text":"{\"a\":[1,2,3"}`, "not_json", false, false},
		{"truncated with repair", `{"text":"{\"a\":[1,2,3","repair":true}`, "repaired", true, true},
		{"empty object", `{"text":"{}"}`, "empty", false, false},
		{"lenient engine", `{"text":"{\"a\":[1,2,3","repair":true,"engine":"lenient"}`, "repaired", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/beautify", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			out := decode(t, rec)
			if out["outcome"] != tt.outcome {
				t.Errorf("expected outcome %q, got %v", tt.outcome, out["outcome"])
			}
			if out["beautified"] != tt.beautified || out["repaired"] != tt.repaired {
				t.Errorf("unexpected flags %v", out)
			}
			if tt.beautified && out["pretty"] == "" {
				t.Error("expected pretty text")
			}
		})
	}
}

func TestBeautify_RepairDefaultsToSettings(t *testing.T) {
	s, store := newTestServer(t, settings.Default())
	on := true
	if _, err := store.Update(context.Background(), settings.Patch{RepairTruncatedJSON: &on}); err != nil {
		t.Fatal(err)
	}
	out := decode(t, do(t, s, http.MethodPost, "/api/beautify", `{"text":"{\"a\":[1,2,3"}`))
	if out["outcome"] != "repaired" {
		t.Errorf("expected settings to enable repair, got %v", out["outcome"])
	}
	if string(mustMarshal(t, out["value"])) != `{"a":[1,2]}` {
		t.Errorf("unexpected value %v", out["value"])
	}
}

func TestBeautify_ToggleState(t *testing.T) {
	s, _ := newTestServer(t, settings.Default())
	out := decode(t, do(t, s, http.MethodPost, "/api/beautify", `{"text":"{\"a\":{\"b\":1}}","toggle":["/a"]}`))
	state, ok := out["state"].(map[string]any)
	if !ok || len(state) != 1 {
		t.Fatalf("expected one toggled container in state, got %v", out["state"])
	}
	if _, ok := state["/a"]; !ok {
		t.Errorf("expected /a in state, got %v", state)
	}
}

func TestBeautify_BadEngine(t *testing.T) {
	s, _ := newTestServer(t, settings.Default())
	rec := do(t, s, http.MethodPost, "/api/beautify", `{"text":"{}","engine":"magic"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRepair(t *testing.T) {
	s, _ := newTestServer(t, settings.Default())

	out := decode(t, do(t, s, http.MethodPost, "/api/repair", `{"text":"{\"a\":[1,2,3"}`))
	if out["repaired_text"] != `{"a":[1,2]}` || out["valid"] != true {
		t.Errorf("unexpected repair response %v", out)
	}

	out = decode(t, do(t, s, http.MethodPost, "/api/repair", `{"text":"[broken"}`))
	if out["valid"] != false {
		t.Errorf("expected invalid repair, got %v", out)
	}
}

func TestSettings_GetUpdateMatch(t *testing.T) {
	s, _ := newTestServer(t, settings.Default())

	rec := do(t, s, http.MethodPut, "/api/settings", `{"url_patterns":["kibana"],"field_names":[" message ",""]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got settings.Settings
	if err := json.Unmarshal(do(t, s, http.MethodGet, "/api/settings", "").Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !got.Enabled || len(got.FieldNames) != 1 || got.FieldNames[0] != "message" {
		t.Errorf("unexpected settings %+v", got)
	}

	out := decode(t, do(t, s, http.MethodGet, "/api/settings/match?url=https://logs/kibana/app", ""))
	if out["matches"] != true || out["active"] != true {
		t.Errorf("expected match, got %v", out)
	}
	out = decode(t, do(t, s, http.MethodGet, "/api/settings/match?url=https://example.com", ""))
	if out["matches"] != false || out["active"] != false {
		t.Errorf("expected no match, got %v", out)
	}

	rec = do(t, s, http.MethodGet, "/api/settings/match", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without url, got %d", rec.Code)
	}
}

func TestSettings_InvalidBody(t *testing.T) {
	s, _ := newTestServer(t, settings.Default())
	rec := do(t, s, http.MethodPut, "/api/settings", `{"enabled":"yes"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/scan", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func TestScan_SubmitPollResults(t *testing.T) {
	s, _ := newTestServer(t, settings.Settings{Enabled: true, FieldNames: []string{"message"}})
	content := "INFO message={\"a\":1}\nINFO message=plain\n"

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "app.log", content, map[string]string{"title": "App"}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	out := decode(t, rec)
	jobID, _ := out["job_id"].(string)
	if jobID == "" || !strings.HasSuffix(out["poll_url"].(string), "/status") {
		t.Fatalf("unexpected submit response %v", out)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		status := decode(t, do(t, s, http.MethodGet, "/api/scan/"+jobID+"/status", ""))
		if status["status"] == string(pipeline.StatusCompleted) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for job, last %v", status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	out = decode(t, do(t, s, http.MethodGet, "/api/scan/"+jobID+"/results?only=beautified", ""))
	results, _ := out["results"].([]any)
	if len(results) != 1 {
		t.Fatalf("expected 1 beautified result, got %v", out["results"])
	}

	// Same content again is reported as a duplicate of the first job.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "again.log", content, nil))
	out = decode(t, rec)
	if rec.Code != http.StatusOK || out["duplicate_of"] != jobID {
		t.Errorf("expected duplicate of %s, got %d %v", jobID, rec.Code, out)
	}

	// force bypasses the duplicate check.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "again.log", content, map[string]string{"force": "true"}))
	if rec.Code != http.StatusAccepted {
		t.Errorf("expected forced upload accepted, got %d", rec.Code)
	}
}

func TestScan_UnsupportedType(t *testing.T) {
	s, _ := newTestServer(t, settings.Default())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "image.png", "x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestScan_UnknownJob(t *testing.T) {
	s, _ := newTestServer(t, settings.Default())
	for _, path := range []string{"/api/scan/nope/status", "/api/scan/nope/results"} {
		if rec := do(t, s, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t, settings.Default())
	do(t, s, http.MethodPost, "/api/beautify", `{"text":"{\"a\":1}"}`)

	out := decode(t, do(t, s, http.MethodGet, "/api/stats", ""))
	outcomes, ok := out["outcomes"].(map[string]any)
	if !ok {
		t.Fatalf("expected outcomes, got %v", out)
	}
	if outcomes["parsed"] != float64(1) {
		t.Errorf("expected one parsed, got %v", outcomes)
	}
	if _, ok := out["latency"]; !ok {
		t.Error("expected latency snapshot")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"app.log", "app.log"},
		{"../../etc/passwd", "passwd"},
		{"dir\\file..txt", "dir_file_txt"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
