package prompt

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikhilbhutani/promptrelay/internal/models"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, question string, answer *string) (*models.PromptRecord, error) {
	var p models.PromptRecord
	err := s.db.QueryRow(ctx,
		`INSERT INTO prompts (question, answer)
		 VALUES ($1, $2)
		 RETURNING id, question, answer, created_at`,
		question, answer,
	).Scan(&p.ID, &p.Question, &p.Answer, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert prompt: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) SetAnswer(ctx context.Context, id int64, answer string) error {
	tag, err := s.db.Exec(ctx, "UPDATE prompts SET answer = $1 WHERE id = $2", answer, id)
	if err != nil {
		return fmt.Errorf("update prompt answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*models.PromptRecord, error) {
	var p models.PromptRecord
	err := s.db.QueryRow(ctx,
		`SELECT id, question, answer, created_at FROM prompts WHERE id = $1`, id,
	).Scan(&p.ID, &p.Question, &p.Answer, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.PromptRecord, error) {
	rows, err := s.db.Query(ctx, `SELECT id, question, answer, created_at FROM prompts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()

	prompts := []models.PromptRecord{}
	for rows.Next() {
		var p models.PromptRecord
		if err := rows.Scan(&p.ID, &p.Question, &p.Answer, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prompts: %w", err)
	}
	return prompts, nil
}
