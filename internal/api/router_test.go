package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nikhilbhutani/promptrelay/internal/api/handlers"
	"github.com/nikhilbhutani/promptrelay/internal/config"
	"github.com/nikhilbhutani/promptrelay/internal/diagnostics"
	"github.com/nikhilbhutani/promptrelay/internal/inference"
	"github.com/nikhilbhutani/promptrelay/internal/llm"
	"github.com/nikhilbhutani/promptrelay/internal/models"
	"github.com/nikhilbhutani/promptrelay/internal/prompt"
)

type stubProber struct{}

func (stubProber) Run(context.Context) diagnostics.Report {
	return diagnostics.Report{
		APIKeyConfigured: true,
		TestResults:      []diagnostics.Result{{Model: "gpt2", Status: 200, Available: true, ResponsePreview: "ok"}},
		Recommendation:   diagnostics.Recommendation,
	}
}

type stubAttempts struct{}

func (stubAttempts) ListAttempts(_ context.Context, promptID int64) ([]models.PromptAttempt, error) {
	return []models.PromptAttempt{{PromptID: promptID, Position: 0, Candidate: "gpt2", Outcome: "unavailable", Status: 503}}, nil
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

// hfBackend serves 503 for gpt2 and an echoing answer for DialoGPT.
func hfBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gpt2":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/microsoft/DialoGPT-medium":
			w.Write([]byte(`[{"generated_text":"Hi there? Doing fine."}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, configured bool, deps Deps) (http.Handler, *prompt.MemoryStore) {
	t.Helper()
	backend := hfBackend(t)

	store := prompt.NewMemoryStore()
	orch := inference.NewOrchestrator(inference.NewClient("hf_test", backend.URL), inference.DefaultCandidates, nil)
	deps.Prompts = prompt.NewService(store, orch, llm.NewRegistry(config.LLMConfig{}), nil, configured)
	if deps.Prober == nil {
		deps.Prober = stubProber{}
	}

	cfg := &config.Config{CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}}}
	return NewRouter(cfg, deps).Setup(), store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestIndex(t *testing.T) {
	h, _ := newTestServer(t, true, Deps{})
	rr := do(t, h, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "AI Prompt Tool Running" {
		t.Errorf("GET / = %d %q", rr.Code, rr.Body.String())
	}
}

func TestCreatePrompt_FallsBackToSecondCandidate(t *testing.T) {
	h, store := newTestServer(t, true, Deps{})

	rr := do(t, h, http.MethodPost, "/prompts", `{"question":"Hi there?"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	body := decode(t, rr)
	if body["answer"] != "Doing fine." || body["question"] != "Hi there?" {
		t.Errorf("body = %v", body)
	}

	recs, _ := store.List(context.Background())
	if len(recs) != 1 || recs[0].AnswerText() != "Doing fine." {
		t.Errorf("stored = %+v", recs)
	}
}

func TestCreatePrompt_MissingQuestion(t *testing.T) {
	h, store := newTestServer(t, true, Deps{})

	for _, payload := range []string{`{}`, `{"question":""}`} {
		rr := do(t, h, http.MethodPost, "/prompts", payload)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", payload, rr.Code)
		}
		if got := decode(t, rr)["error"]; got != "Question is required" {
			t.Errorf("%s: error = %v", payload, got)
		}
	}
	if recs, _ := store.List(context.Background()); len(recs) != 0 {
		t.Errorf("records = %d, want 0", len(recs))
	}
}

func TestCreatePrompt_MissingCredential(t *testing.T) {
	h, store := newTestServer(t, false, Deps{})

	rr := do(t, h, http.MethodPost, "/prompts", `{"question":"Anyone?"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decode(t, rr)
	if body["error"] != "Service temporarily unavailable" || body["answer"] != prompt.TechnicalIssueMessage {
		t.Errorf("body = %v", body)
	}

	recs, _ := store.List(context.Background())
	if len(recs) != 1 || recs[0].AnswerText() != prompt.TechnicalIssueMessage {
		t.Errorf("stored = %+v", recs)
	}
}

func TestCreateDirect_NotConfigured(t *testing.T) {
	h, store := newTestServer(t, true, Deps{})

	rr := do(t, h, http.MethodPost, "/prompts/openai", `{"question":"q"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decode(t, rr)["error"]; got != "OpenAI API key not configured" {
		t.Errorf("error = %v", got)
	}
	if recs, _ := store.List(context.Background()); len(recs) != 0 {
		t.Errorf("records = %d, want 0", len(recs))
	}
}

func TestCreateSimple(t *testing.T) {
	h, _ := newTestServer(t, true, Deps{})

	rr := do(t, h, http.MethodPost, "/prompts/simple", `{"question":"hello"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decode(t, rr)["answer"]; got != "Hello! How can I help you today?" {
		t.Errorf("answer = %v", got)
	}
}

func TestListAndGet(t *testing.T) {
	h, _ := newTestServer(t, true, Deps{})
	do(t, h, http.MethodPost, "/prompts/simple", `{"question":"hello"}`)
	do(t, h, http.MethodPost, "/prompts/simple", `{"question":"hi"}`)

	rr := do(t, h, http.MethodGet, "/prompts", "")
	var list []map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 || list[0]["question"] != "hello" || list[1]["question"] != "hi" {
		t.Errorf("list = %v", list)
	}
	if _, ok := list[0]["created_at"]; !ok {
		t.Error("list entry missing created_at")
	}

	rr = do(t, h, http.MethodGet, "/prompts/1", "")
	if rr.Code != http.StatusOK || decode(t, rr)["question"] != "hello" {
		t.Errorf("GET /prompts/1 = %d %s", rr.Code, rr.Body.String())
	}

	for _, path := range []string{"/prompts/99", "/prompts/abc"} {
		if rr := do(t, h, http.MethodGet, path, ""); rr.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rr.Code)
		}
	}
}

func TestAttempts(t *testing.T) {
	h, _ := newTestServer(t, true, Deps{})
	do(t, h, http.MethodPost, "/prompts/simple", `{"question":"hello"}`)

	if rr := do(t, h, http.MethodGet, "/prompts/1/attempts", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("without lister: status = %d, want 503", rr.Code)
	}

	h, _ = newTestServer(t, true, Deps{Attempts: stubAttempts{}})
	do(t, h, http.MethodPost, "/prompts/simple", `{"question":"hello"}`)
	rr := do(t, h, http.MethodGet, "/prompts/1/attempts", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"candidate":"gpt2"`) {
		t.Errorf("attempts = %d %s", rr.Code, rr.Body.String())
	}
}

func TestTestAPI(t *testing.T) {
	h, _ := newTestServer(t, true, Deps{})

	rr := do(t, h, http.MethodGet, "/test-api", "")
	body := decode(t, rr)
	if rr.Code != http.StatusOK || body["api_key_configured"] != true || body["recommendation"] != diagnostics.Recommendation {
		t.Errorf("test-api = %d %v", rr.Code, body)
	}
}

func TestReadyz_ReportsFailingDependency(t *testing.T) {
	h, _ := newTestServer(t, true, Deps{Checks: map[string]handlers.Pinger{"database": downPinger{}, "redis": nil}})

	rr := do(t, h, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
	checks, _ := decode(t, rr)["checks"].(map[string]interface{})
	if _, ok := checks["redis"]; ok {
		t.Error("nil check should be skipped")
	}
}
