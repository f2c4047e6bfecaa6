package models

import "time"

// PromptRecord is a persisted question/answer pair. Answer stays nil until
// resolution finishes.
type PromptRecord struct {
	ID        int64     `json:"id" db:"id"`
	Question  string    `json:"question" db:"question"`
	Answer    *string   `json:"answer" db:"answer"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AnswerText returns the answer or "" when unset.
func (p *PromptRecord) AnswerText() string {
	if p.Answer == nil {
		return ""
	}
	return *p.Answer
}

// PromptAttempt is one stored candidate attempt of a fallback resolution.
type PromptAttempt struct {
	ID           int64     `json:"id" db:"id"`
	PromptID     int64     `json:"prompt_id" db:"prompt_id"`
	ResolutionID string    `json:"resolution_id" db:"resolution_id"`
	Position     int       `json:"position" db:"position"`
	Candidate    string    `json:"candidate" db:"candidate"`
	Outcome      string    `json:"outcome" db:"outcome"`
	Status       int       `json:"status,omitempty" db:"status"`
	Detail       string    `json:"detail,omitempty" db:"detail"`
	LatencyMs    int64     `json:"latency_ms" db:"latency_ms"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
