// Package diagnostics reports whether the hosted inference candidates are
// reachable. It never extracts answers or persists anything.
package diagnostics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nikhilbhutani/promptrelay/internal/inference"
)

const (
	probeInput     = "Hello, world!"
	previewRunes   = 100
	cacheKey       = "diagnostics:probe"
	Recommendation = "Use /prompts/simple endpoint for reliable responses"
)

// DefaultCandidates is the subset of models the probe checks.
var DefaultCandidates = []string{
	"gpt2",
	"microsoft/DialoGPT-medium",
	"facebook/blenderbot-400M-distill",
}

type ProbeClient interface {
	Probe(ctx context.Context, candidate, input string, timeout time.Duration) (inference.ProbeResult, error)
}

type ReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Result is one candidate's probe line. Status is the HTTP status code, or
// the string "error" when the call never got a response.
type Result struct {
	Model           string `json:"model"`
	Status          any    `json:"status"`
	Available       bool   `json:"available"`
	ResponsePreview string `json:"response_preview,omitempty"`
	Error           string `json:"error,omitempty"`
}

type Report struct {
	APIKeyConfigured bool     `json:"api_key_configured"`
	TestResults      []Result `json:"test_results"`
	Recommendation   string   `json:"recommendation"`
}

type Service struct {
	client        ProbeClient
	candidates    []string
	keyConfigured bool
	cache         ReportCache
	ttl           time.Duration
}

// NewService builds a prober. cache may be nil; a zero ttl disables caching.
func NewService(client ProbeClient, candidates []string, keyConfigured bool, cache ReportCache, ttl time.Duration) *Service {
	return &Service{
		client:        client,
		candidates:    append([]string(nil), candidates...),
		keyConfigured: keyConfigured,
		cache:         cache,
		ttl:           ttl,
	}
}

// Run probes the candidates one after another in configured order.
func (s *Service) Run(ctx context.Context) Report {
	if s.cacheEnabled() {
		var cached Report
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached
		}
	}

	results := make([]Result, 0, len(s.candidates))
	for _, candidate := range s.candidates {
		results = append(results, s.probe(ctx, candidate))
	}

	report := Report{
		APIKeyConfigured: s.keyConfigured,
		TestResults:      results,
		Recommendation:   Recommendation,
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, cacheKey, report, s.ttl); err != nil {
			slog.Debug("probe report not cached", "error", err)
		}
	}
	return report
}

func (s *Service) probe(ctx context.Context, candidate string) Result {
	res, err := s.client.Probe(ctx, candidate, probeInput, inference.ProbeTimeout)
	if err != nil {
		return Result{Model: candidate, Status: "error", Available: false, Error: err.Error()}
	}

	preview := "No response"
	if res.Body != "" {
		preview = truncateRunes(res.Body, previewRunes)
	}

	return Result{
		Model:           candidate,
		Status:          res.Status,
		Available:       Available(res.Status),
		ResponsePreview: preview,
	}
}

// Available treats a loading model (503) as reachable.
func Available(status int) bool {
	return status == http.StatusOK || status == http.StatusServiceUnavailable
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
