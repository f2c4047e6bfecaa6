package inference

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Caller performs one classified call against one candidate.
type Caller interface {
	Call(ctx context.Context, candidate, question string, timeout time.Duration) Outcome
}

// Attempt records how a single candidate fared during a resolution.
type Attempt struct {
	Candidate string
	Kind      OutcomeKind
	Status    int
	Detail    string
	Latency   time.Duration
}

// Resolution is the result of walking the candidate list. Answer is never
// empty: it is either the first usable candidate answer or the placeholder.
type Resolution struct {
	ID        uuid.UUID
	Question  string
	Answer    string
	Candidate string
	Exhausted bool
	Attempts  []Attempt
}

// LastError describes the most recent failed attempt, or "" if none failed.
func (r Resolution) LastError() string {
	for i := len(r.Attempts) - 1; i >= 0; i-- {
		a := r.Attempts[i]
		if a.Kind == Answered {
			continue
		}
		if a.Detail != "" {
			return fmt.Sprintf("%s: %s: %s", a.Candidate, a.Kind, a.Detail)
		}
		return fmt.Sprintf("%s: %s", a.Candidate, a.Kind)
	}
	return ""
}

// Placeholder is the answer given when every candidate failed.
func Placeholder(question string) string {
	return fmt.Sprintf("I understand you're asking: '%s'. I'm currently having trouble accessing AI models, but I've saved your question for when the service is restored.", question)
}

// Orchestrator tries candidates strictly in order until one yields a usable
// answer.
type Orchestrator struct {
	caller     Caller
	candidates []string
	timeout    time.Duration
	logger     *slog.Logger
}

func NewOrchestrator(caller Caller, candidates []string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		caller:     caller,
		candidates: append([]string(nil), candidates...),
		timeout:    AnswerTimeout,
		logger:     logger,
	}
}

// Candidates returns a copy of the configured order.
func (o *Orchestrator) Candidates() []string {
	return append([]string(nil), o.candidates...)
}

// Resolve always returns a Resolution with a non-empty Answer.
func (o *Orchestrator) Resolve(ctx context.Context, question string) Resolution {
	res := Resolution{
		ID:       uuid.New(),
		Question: question,
		Attempts: make([]Attempt, 0, len(o.candidates)),
	}

	for i, candidate := range o.candidates {
		start := time.Now()
		out := o.attempt(ctx, candidate, question)
		res.Attempts = append(res.Attempts, Attempt{
			Candidate: candidate,
			Kind:      out.Kind,
			Status:    out.Status,
			Detail:    out.Detail,
			Latency:   time.Since(start),
		})

		if out.Kind == Answered {
			o.logger.Info("candidate answered",
				"resolution_id", res.ID,
				"candidate", candidate,
				"position", i,
			)
			res.Answer = out.Text
			res.Candidate = candidate
			return res
		}

		o.logger.Warn("candidate failed, trying next",
			"resolution_id", res.ID,
			"candidate", candidate,
			"position", i,
			"outcome", out.Kind.String(),
			"status", out.Status,
			"detail", out.Detail,
		)
	}

	o.logger.Warn("all candidates exhausted",
		"resolution_id", res.ID,
		"candidates", len(o.candidates),
		"last_error", res.LastError(),
	)
	res.Answer = Placeholder(question)
	res.Exhausted = true
	return res
}

// attempt runs one candidate. Answered is only returned with non-empty,
// echo-stripped Text; a panic anywhere inside becomes a TransportError.
func (o *Orchestrator) attempt(ctx context.Context, candidate, question string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = transportError(0, "panic: %v", r)
		}
	}()

	out = o.caller.Call(ctx, candidate, question, o.timeout)
	if out.Kind != Answered {
		return out
	}

	if out.Text == "" {
		text, ok := Extract(out.Payload, question)
		if !ok {
			return Outcome{Kind: EmptyBody, Status: out.Status, Detail: "no usable text in payload"}
		}
		out.Text = text
		return out
	}

	out.Text = StripEcho(out.Text, question)
	if out.Text == "" {
		return Outcome{Kind: EmptyBody, Status: out.Status, Detail: "answer only echoed the question"}
	}
	return out
}
