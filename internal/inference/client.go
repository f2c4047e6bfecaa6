package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	AnswerTimeout = 30 * time.Second
	ProbeTimeout  = 10 * time.Second

	maxBodyBytes = 4 << 20
)

// DefaultCandidates is the fixed order in which models are tried.
var DefaultCandidates = []string{
	"gpt2",
	"microsoft/DialoGPT-medium",
	"facebook/blenderbot-400M-distill",
	"google/flan-t5-small",
}

// Client calls hosted text-generation models, one model per endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

type inputsRequest struct {
	Inputs string `json:"inputs"`
}

// Call sends question to candidate and classifies the response. It never
// returns an error; every failure is folded into the Outcome.
func (c *Client) Call(ctx context.Context, candidate, question string, timeout time.Duration) Outcome {
	status, body, err := c.post(ctx, candidate, question, timeout)
	if err != nil {
		return transportError(0, "%v", err)
	}

	switch {
	case status == http.StatusServiceUnavailable:
		return Outcome{Kind: Unavailable, Status: status}
	case status == http.StatusNotFound:
		return Outcome{Kind: NotFound, Status: status}
	case status < 200 || status > 299:
		return transportError(status, "unexpected status %d: %s", status, preview(body, 200))
	}

	if len(body) > maxBodyBytes {
		return Outcome{Kind: MalformedBody, Status: status, Detail: "response exceeds 4 MiB"}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Outcome{Kind: EmptyBody, Status: status}
	}
	if !gjson.ValidBytes(body) {
		return Outcome{Kind: MalformedBody, Status: status, Detail: preview(body, 200)}
	}

	return Outcome{Kind: Answered, Status: status, Payload: gjson.ParseBytes(body)}
}

// ProbeResult is the raw answer of a lightweight reachability call.
type ProbeResult struct {
	Status int
	Body   string
}

// Probe posts input to candidate and returns the raw status and body without
// classifying them.
func (c *Client) Probe(ctx context.Context, candidate, input string, timeout time.Duration) (ProbeResult, error) {
	status, body, err := c.post(ctx, candidate, input, timeout)
	if err != nil {
		return ProbeResult{}, err
	}
	if len(body) > maxBodyBytes {
		body = body[:maxBodyBytes]
	}
	return ProbeResult{Status: status, Body: string(body)}, nil
}

func (c *Client) post(ctx context.Context, candidate, input string, timeout time.Duration) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(inputsRequest{Inputs: input})
	if err != nil {
		return 0, nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/"+candidate, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	// One byte past the limit tells an oversized body apart from one that fits.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func preview(body []byte, n int) string {
	s := string(body)
	if len(s) > n {
		return s[:n]
	}
	return s
}
