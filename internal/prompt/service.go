package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nikhilbhutani/promptrelay/internal/inference"
	"github.com/nikhilbhutani/promptrelay/internal/llm"
	"github.com/nikhilbhutani/promptrelay/internal/models"
	"github.com/nikhilbhutani/promptrelay/internal/simple"
)

// TechnicalIssueMessage replaces the answer when resolution fails outside
// the candidate loop.
const TechnicalIssueMessage = "I received your question but encountered a technical issue. Please try again later."

var (
	ErrQuestionRequired  = errors.New("question is required")
	ErrCredentialMissing = errors.New("inference API key not configured")
)

// OuterFault is returned by Ask when the question was saved but resolution
// broke down before an answer could be produced. Record already carries the
// degraded answer.
type OuterFault struct {
	Record *models.PromptRecord
	Err    error
}

func (e *OuterFault) Error() string { return e.Err.Error() }

func (e *OuterFault) Unwrap() error { return e.Err }

type Resolver interface {
	Resolve(ctx context.Context, question string) inference.Resolution
}

type ProviderSource interface {
	Provider(name string) (llm.Provider, error)
}

// AttemptRecorder receives the per-candidate trace of a finished resolution.
type AttemptRecorder interface {
	RecordAttempts(ctx context.Context, promptID int64, res inference.Resolution) error
}

type Service struct {
	store      Store
	resolver   Resolver
	providers  ProviderSource
	recorder   AttemptRecorder
	configured bool
}

// NewService wires the intake paths. recorder may be nil. configured reports
// whether the inference credential is usable.
func NewService(store Store, resolver Resolver, providers ProviderSource, recorder AttemptRecorder, configured bool) *Service {
	return &Service{
		store:      store,
		resolver:   resolver,
		providers:  providers,
		recorder:   recorder,
		configured: configured,
	}
}

// Ask saves question, resolves it through the candidate list and stores the
// answer. The question is persisted before any provider is contacted.
func (s *Service) Ask(ctx context.Context, question string) (*models.PromptRecord, error) {
	if question == "" {
		return nil, ErrQuestionRequired
	}

	rec, err := s.store.Create(ctx, question, nil)
	if err != nil {
		return nil, fmt.Errorf("save question: %w", err)
	}

	res, err := s.resolve(ctx, rec)
	if err != nil {
		slog.Error("resolution failed outside candidate loop", "prompt_id", rec.ID, "error", err)
		msg := TechnicalIssueMessage
		if serr := s.store.SetAnswer(context.WithoutCancel(ctx), rec.ID, msg); serr != nil {
			slog.Error("failed to store degraded answer", "prompt_id", rec.ID, "error", serr)
		}
		rec.Answer = &msg
		return rec, &OuterFault{Record: rec, Err: err}
	}

	if s.recorder != nil {
		if err := s.recorder.RecordAttempts(context.WithoutCancel(ctx), rec.ID, res); err != nil {
			slog.Warn("attempt trace not recorded", "prompt_id", rec.ID, "resolution_id", res.ID, "error", err)
		}
	}

	rec.Answer = &res.Answer
	return rec, nil
}

// resolve runs everything between saving the question and storing the
// answer. Panics are turned into errors so the record never keeps a nil
// answer.
func (s *Service) resolve(ctx context.Context, rec *models.PromptRecord) (res inference.Resolution, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	if !s.configured {
		return res, ErrCredentialMissing
	}

	// Once started, resolution runs to completion even if the client leaves.
	ctx = context.WithoutCancel(ctx)

	res = s.resolver.Resolve(ctx, rec.Question)
	if err := s.store.SetAnswer(ctx, rec.ID, res.Answer); err != nil {
		return res, fmt.Errorf("store answer: %w", err)
	}
	return res, nil
}

// AskDirect answers question with a single named provider and no fallback.
// The record is only saved when the provider succeeds.
func (s *Service) AskDirect(ctx context.Context, provider, question string) (*models.PromptRecord, error) {
	if question == "" {
		return nil, ErrQuestionRequired
	}

	p, err := s.providers.Provider(provider)
	if err != nil {
		return nil, err
	}

	resp, err := p.ChatCompletion(ctx, llm.QuestionRequest(p.DefaultModel(), question))
	if err != nil {
		return nil, err
	}

	slog.Info("direct provider answered",
		"provider", resp.Provider,
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"cost_usd", resp.CostUSD,
		"latency_ms", resp.LatencyMs,
	)

	answer := resp.Content
	rec, err := s.store.Create(ctx, question, &answer)
	if err != nil {
		return nil, fmt.Errorf("save prompt: %w", err)
	}
	return rec, nil
}

// AskSimple answers from the local keyword table.
func (s *Service) AskSimple(ctx context.Context, question string) (*models.PromptRecord, error) {
	if question == "" {
		return nil, ErrQuestionRequired
	}

	answer := simple.Respond(question)
	rec, err := s.store.Create(ctx, question, &answer)
	if err != nil {
		return nil, fmt.Errorf("save prompt: %w", err)
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.PromptRecord, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]models.PromptRecord, error) {
	return s.store.List(ctx)
}
