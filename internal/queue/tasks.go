package queue

import (
	"github.com/nikhilbhutani/promptrelay/internal/inference"
	"github.com/nikhilbhutani/promptrelay/internal/models"
)

const TypeAttemptsRecord = "prompt:attempts"

type AttemptsRecordPayload struct {
	PromptID     int64                  `json:"prompt_id"`
	ResolutionID string                 `json:"resolution_id"`
	Attempts     []models.PromptAttempt `json:"attempts"`
}

// NewAttemptsPayload flattens a resolution into the task payload.
func NewAttemptsPayload(promptID int64, res inference.Resolution) AttemptsRecordPayload {
	attempts := make([]models.PromptAttempt, len(res.Attempts))
	for i, a := range res.Attempts {
		attempts[i] = models.PromptAttempt{
			PromptID:     promptID,
			ResolutionID: res.ID.String(),
			Position:     i,
			Candidate:    a.Candidate,
			Outcome:      a.Kind.String(),
			Status:       a.Status,
			Detail:       a.Detail,
			LatencyMs:    a.Latency.Milliseconds(),
		}
	}
	return AttemptsRecordPayload{
		PromptID:     promptID,
		ResolutionID: res.ID.String(),
		Attempts:     attempts,
	}
}
