package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nikhilbhutani/promptrelay/internal/llm"
	"github.com/nikhilbhutani/promptrelay/internal/models"
	"github.com/nikhilbhutani/promptrelay/internal/prompt"
)

const errQuestionRequired = "Question is required"

type AttemptLister interface {
	ListAttempts(ctx context.Context, promptID int64) ([]models.PromptAttempt, error)
}

type PromptHandler struct {
	svc      *prompt.Service
	attempts AttemptLister
}

// NewPromptHandler builds the prompt routes. attempts may be nil when no
// database is available.
func NewPromptHandler(svc *prompt.Service, attempts AttemptLister) *PromptHandler {
	return &PromptHandler{svc: svc, attempts: attempts}
}

type askRequest struct {
	Question string `json:"question"`
}

type promptResponse struct {
	ID       int64   `json:"id"`
	Question string  `json:"question"`
	Answer   *string `json:"answer"`
}

type degradedResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	promptResponse
}

func toResponse(p *models.PromptRecord) promptResponse {
	return promptResponse{ID: p.ID, Question: p.Question, Answer: p.Answer}
}

func decodeQuestion(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return "", false
	}
	if req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errQuestionRequired})
		return "", false
	}
	return req.Question, true
}

// Create resolves the question through the fallback candidates.
func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Ask(r.Context(), question)
	var fault *prompt.OuterFault
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, toResponse(p))
	case errors.As(err, &fault):
		writeJSON(w, http.StatusServiceUnavailable, degradedResponse{
			Error:          "Service temporarily unavailable",
			Details:        fault.Err.Error(),
			promptResponse: toResponse(fault.Record),
		})
	case errors.Is(err, prompt.ErrQuestionRequired):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errQuestionRequired})
	default:
		slog.Error("failed to create prompt", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save prompt", "details": err.Error()})
	}
}

// CreateDirect returns a handler that asks one provider without fallback.
// label is the vendor name shown in error messages.
func (h *PromptHandler) CreateDirect(provider, label string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		question, ok := decodeQuestion(w, r)
		if !ok {
			return
		}

		p, err := h.svc.AskDirect(r.Context(), provider, question)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, toResponse(p))
		case errors.Is(err, llm.ErrProviderNotConfigured):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": label + " API key not configured"})
		case errors.Is(err, prompt.ErrQuestionRequired):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": errQuestionRequired})
		default:
			slog.Warn("direct provider failed", "provider", provider, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": label + " API error", "details": err.Error()})
		}
	}
}

// CreateSimple answers from the local keyword table.
func (h *PromptHandler) CreateSimple(w http.ResponseWriter, r *http.Request) {
	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}

	p, err := h.svc.AskSimple(r.Context(), question)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save prompt", "details": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(p))
}

func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.svc.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, prompts)
}

func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Attempts lists the stored candidate trace for one prompt.
func (h *PromptHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if h.attempts == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "attempt history unavailable"})
		return
	}

	attempts, err := h.attempts.ListAttempts(r.Context(), p.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

// lookup resolves the {id} URL parameter. A non-numeric id is a 404, like any
// unknown record.
func (h *PromptHandler) lookup(w http.ResponseWriter, r *http.Request) (*models.PromptRecord, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "prompt not found"})
		return nil, false
	}

	p, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, prompt.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "prompt not found"})
		return nil, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	return p, true
}
