package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/promptrelay/internal/models"
	"github.com/nikhilbhutani/promptrelay/internal/queue"
)

type AttemptStore interface {
	RecordAttempts(ctx context.Context, promptID int64, resolutionID uuid.UUID, attempts []models.PromptAttempt) error
}

type AttemptsWorker struct {
	store AttemptStore
}

func NewAttemptsWorker(store AttemptStore) *AttemptsWorker {
	return &AttemptsWorker{store: store}
}

func (w *AttemptsWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AttemptsRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	resolutionID, err := uuid.Parse(payload.ResolutionID)
	if err != nil {
		return fmt.Errorf("parse resolution ID: %w: %w", err, asynq.SkipRetry)
	}

	if err := w.store.RecordAttempts(ctx, payload.PromptID, resolutionID, payload.Attempts); err != nil {
		return fmt.Errorf("record attempts: %w", err)
	}

	slog.Info("recorded resolution attempts",
		"prompt_id", payload.PromptID,
		"resolution_id", resolutionID,
		"attempts", len(payload.Attempts),
	)
	return nil
}
