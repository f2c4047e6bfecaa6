package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikhilbhutani/promptrelay/internal/models"
)

// Service stores and reads the candidate-attempt trace of fallback
// resolutions.
type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// RecordAttempts writes one resolution's attempts in a single batch. Replays
// of the same resolution are ignored.
func (s *Service) RecordAttempts(ctx context.Context, promptID int64, resolutionID uuid.UUID, attempts []models.PromptAttempt) error {
	if len(attempts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, a := range attempts {
		batch.Queue(
			`INSERT INTO prompt_attempts (prompt_id, resolution_id, position, candidate, outcome, status, detail, latency_ms)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (resolution_id, position) DO NOTHING`,
			promptID, resolutionID, a.Position, a.Candidate, a.Outcome, a.Status, a.Detail, a.LatencyMs,
		)
	}

	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert prompt attempts: %w", err)
	}
	return nil
}

// ListAttempts returns every stored attempt for a prompt, oldest resolution
// first.
func (s *Service) ListAttempts(ctx context.Context, promptID int64) ([]models.PromptAttempt, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, prompt_id, resolution_id::text, position, candidate, outcome, status, detail, latency_ms, created_at
		 FROM prompt_attempts WHERE prompt_id = $1
		 ORDER BY created_at, resolution_id, position`,
		promptID,
	)
	if err != nil {
		return nil, fmt.Errorf("query prompt attempts: %w", err)
	}
	defer rows.Close()

	attempts := []models.PromptAttempt{}
	for rows.Next() {
		var a models.PromptAttempt
		if err := rows.Scan(&a.ID, &a.PromptID, &a.ResolutionID, &a.Position, &a.Candidate, &a.Outcome, &a.Status, &a.Detail, &a.LatencyMs, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prompt attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prompt attempts: %w", err)
	}
	return attempts, nil
}
