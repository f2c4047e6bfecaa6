package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nikhilbhutani/promptrelay/internal/inference"
)

type fakeProbeClient struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	overlap  atomic.Bool
	mu       sync.Mutex
	order    []string
	results  map[string]inference.ProbeResult
	errs     map[string]error
}

func (f *fakeProbeClient) Probe(_ context.Context, candidate, input string, timeout time.Duration) (inference.ProbeResult, error) {
	f.calls.Add(1)
	if f.inFlight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.inFlight.Add(-1)
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	f.order = append(f.order, candidate)
	f.mu.Unlock()

	if input != "Hello, world!" || timeout != inference.ProbeTimeout {
		return inference.ProbeResult{}, errors.New("unexpected probe parameters")
	}
	if err := f.errs[candidate]; err != nil {
		return inference.ProbeResult{}, err
	}
	return f.results[candidate], nil
}

// mapCache stores JSON like the Redis cache does.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return errors.New("miss")
	}
	return json.Unmarshal(raw, dest)
}

func (m *mapCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = raw
	return nil
}

func newFake() *fakeProbeClient {
	return &fakeProbeClient{
		results: map[string]inference.ProbeResult{
			"gpt2":                             {Status: 200, Body: `[{"generated_text":"Hello, world! I am"}]`},
			"microsoft/DialoGPT-medium":        {Status: 503, Body: strings.Repeat("x", 250)},
			"facebook/blenderbot-400M-distill": {Status: 404, Body: ""},
		},
		errs: map[string]error{},
	}
}

func TestRun_Classification(t *testing.T) {
	svc := NewService(newFake(), DefaultCandidates, true, nil, 0)
	report := svc.Run(context.Background())

	if !report.APIKeyConfigured {
		t.Error("APIKeyConfigured = false, want true")
	}
	if report.Recommendation != Recommendation {
		t.Errorf("Recommendation = %q", report.Recommendation)
	}
	if len(report.TestResults) != 3 {
		t.Fatalf("results = %d, want 3", len(report.TestResults))
	}

	want := []struct {
		model     string
		status    int
		available bool
	}{
		{"gpt2", 200, true},
		{"microsoft/DialoGPT-medium", 503, true},
		{"facebook/blenderbot-400M-distill", 404, false},
	}
	for i, w := range want {
		got := report.TestResults[i]
		if got.Model != w.model || got.Status != w.status || got.Available != w.available {
			t.Errorf("result[%d] = %+v, want model=%s status=%d available=%v", i, got, w.model, w.status, w.available)
		}
	}

	if n := len([]rune(report.TestResults[1].ResponsePreview)); n != 100 {
		t.Errorf("preview length = %d, want 100", n)
	}
	if report.TestResults[2].ResponsePreview != "No response" {
		t.Errorf("empty body preview = %q", report.TestResults[2].ResponsePreview)
	}
}

func TestRun_TransportError(t *testing.T) {
	fake := newFake()
	fake.errs["gpt2"] = errors.New("dial tcp: connection refused")

	report := NewService(fake, DefaultCandidates, false, nil, 0).Run(context.Background())

	got := report.TestResults[0]
	if got.Status != "error" || got.Available || !strings.Contains(got.Error, "connection refused") {
		t.Errorf("result = %+v, want error entry", got)
	}
	if report.APIKeyConfigured {
		t.Error("APIKeyConfigured = true, want false")
	}
}

func TestRun_StableClassification(t *testing.T) {
	svc := NewService(newFake(), DefaultCandidates, true, nil, 0)

	first := svc.Run(context.Background())
	second := svc.Run(context.Background())
	for i := range first.TestResults {
		if first.TestResults[i].Available != second.TestResults[i].Available {
			t.Errorf("candidate %s changed availability between runs", first.TestResults[i].Model)
		}
	}
}

func TestRun_CachedReport(t *testing.T) {
	fake := newFake()
	svc := NewService(fake, DefaultCandidates, true, &mapCache{}, time.Minute)

	first := svc.Run(context.Background())
	second := svc.Run(context.Background())

	if got := fake.calls.Load(); got != 3 {
		t.Errorf("probe calls = %d, want 3 (second run served from cache)", got)
	}
	for i := range first.TestResults {
		if first.TestResults[i].Available != second.TestResults[i].Available {
			t.Errorf("cached availability differs for %s", first.TestResults[i].Model)
		}
	}
}

func TestRun_ProbesOneAtATimeInOrder(t *testing.T) {
	fake := newFake()
	NewService(fake, DefaultCandidates, true, nil, 0).Run(context.Background())

	if fake.overlap.Load() {
		t.Error("candidates were probed concurrently")
	}
	if len(fake.order) != len(DefaultCandidates) {
		t.Fatalf("order = %v", fake.order)
	}
	for i, c := range DefaultCandidates {
		if fake.order[i] != c {
			t.Errorf("order = %v, want %v", fake.order, DefaultCandidates)
			break
		}
	}
}

func TestAvailable(t *testing.T) {
	for status, want := range map[int]bool{200: true, 503: true, 404: false, 401: false, 500: false} {
		if got := Available(status); got != want {
			t.Errorf("Available(%d) = %v, want %v", status, got, want)
		}
	}
}
